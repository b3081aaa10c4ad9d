package pages

import (
	"context"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

func TestNewDefault_Order(t *testing.T) {
	r, err := NewDefault(newFakeSource(), Options{})
	if err != nil {
		t.Fatalf("NewDefault() error = %v", err)
	}
	var paths []string
	for _, m := range r.Metas() {
		paths = append(paths, m.Path)
	}
	want := []string{"/", "/land", "/zueri", "/mobile", "/antenna", "/density", "/ev", "/osm", "/osm-europe", "/swiss", "/wind"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("order = %v\nwant    %v", paths, want)
	}
}

type stubPage struct{ meta Meta }

func (s stubPage) Meta() Meta                                      { return s.meta }
func (s stubPage) Controls(ctx context.Context) ([]Control, error) { return nil, nil }
func (s stubPage) Figure(ctx context.Context, v Values) (*figure.Figure, error) {
	return nil, ErrNoFigure
}

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(stubPage{Meta{Name: "a", Path: "/a/b"}}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(stubPage{Meta{Name: "dup", Path: "/a/b"}}); err == nil {
		t.Error("duplicate path accepted")
	}
	if err := r.Register(stubPage{Meta{Name: "rel", Path: "nope"}}); err == nil {
		t.Error("relative path accepted")
	}
	if p, ok := r.Lookup("a-b"); !ok || p.Meta().Name != "a" {
		t.Errorf("Lookup(a-b) = %v, %v", p, ok)
	}
	if _, ok := r.ByPath("/a/b/"); !ok {
		t.Error("ByPath with trailing slash not found")
	}
	if _, ok := r.Lookup("missing"); ok {
		t.Error("Lookup(missing) found a page")
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{"/": "home", "": "home", "/osm-europe": "osm-europe", "/a/b": "a-b"}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLess_OrderedBeforeUnordered(t *testing.T) {
	a := Meta{Path: "/z", Order: order(500)}
	b := Meta{Path: "/a"}
	if !less(a, b) || less(b, a) {
		t.Error("ordered page should sort before unordered")
	}
	c := Meta{Path: "/b", Order: order(500)}
	if !less(c, a) {
		t.Error("equal order should fall back to path")
	}
}

func TestResolve(t *testing.T) {
	controls := []Control{
		{ID: "tag", Kind: Dropdown, Options: options("books", "cafe"), Default: []string{"books"}},
		{ID: "layers", Kind: Checklist, Options: options("chargers"), Default: []string{"chargers"}},
	}
	tests := []struct {
		name   string
		query  string
		tag    string
		layers []string
	}{
		{"defaults", "", "books", []string{"chargers"}},
		{"valid", "tag=cafe&layers=chargers", "cafe", []string{"chargers"}},
		{"unknown dropdown value falls back", "tag=unicorns", "books", []string{"chargers"}},
		{"empty checklist kept empty", "layers=", "books", nil},
		{"unknown checklist value dropped", "layers=bogus&layers=chargers", "books", []string{"chargers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, _ := url.ParseQuery(tt.query)
			v := Resolve(controls, q)
			if v.Get("tag") != tt.tag {
				t.Errorf("tag = %q, want %q", v.Get("tag"), tt.tag)
			}
			if !reflect.DeepEqual(v["layers"], tt.layers) {
				t.Errorf("layers = %v, want %v", v["layers"], tt.layers)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{"books": "Books", "fast_food": "Fast_food", "ATM": "Atm", "": "", "ñu": "Ñu"}
	for in, want := range tests {
		if got := capitalize(in); got != want {
			t.Errorf("capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetasHaveSources(t *testing.T) {
	r, _ := NewDefault(newFakeSource(), Options{})
	for _, m := range r.Metas() {
		if m.Path == "/" {
			continue
		}
		if m.Source.Label == "" || !strings.HasPrefix(m.Source.DocsURL, "http") {
			t.Errorf("%s: missing source credit", m.Path)
		}
	}
}
