// Package web serves the HTML shell every page renders into and the static
// assets the map client needs.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/kjstillabower/geo-data-maps/internal/pages"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// Footer is the copyright line under every page.
const Footer = "Copyright © 2024 Swiss Geo Data Maps. All rights reserved."

// LongWaitNotice is shown while a slow control value is being rendered.
const LongWaitNotice = "Hang on, larger datasets take more time to process and render..."

// View is the data the shell template renders.
type View struct {
	// Nav lists every registered page in display order.
	Nav []pages.Meta
	// Page is the page being shown.
	Page pages.Meta
	// Cards are the pages listed on the home page; empty elsewhere.
	Cards    []pages.Meta
	NotFound bool
	// HasMap is false for pages without a figure.
	HasMap   bool
	Footer   string
	LongWait string
}

// Shell renders the page layout.
type Shell struct {
	tmpl *template.Template
}

// NewShell parses the embedded templates.
func NewShell() (*Shell, error) {
	tmpl, err := template.New("layout.html").Funcs(template.FuncMap{
		"toJSON": toJSON,
	}).ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Shell{tmpl: tmpl}, nil
}

// NewView builds the view of current. The home page ("/") additionally lists
// every other page.
func NewView(nav []pages.Meta, current pages.Meta) View {
	v := View{Nav: nav, Page: current, HasMap: current.Path != "/", Footer: Footer, LongWait: LongWaitNotice}
	if current.Path == "/" {
		for _, m := range nav {
			if m.Path != "/" {
				v.Cards = append(v.Cards, m)
			}
		}
	}
	return v
}

// Render writes the shell with the given status. The template is executed
// into a buffer first so a failure still produces a clean 500.
func (s *Shell) Render(w http.ResponseWriter, status int, v View) error {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "layout.html", v); err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// Assets serves the embedded static files; mount it under /assets/.
func Assets() http.Handler {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}

func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return template.JS(b), nil
}
