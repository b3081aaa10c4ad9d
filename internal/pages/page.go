// Package pages holds the map pages and the registry the web shell renders
// them from. Each page declares its controls and answers control changes
// with a figure.
package pages

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
	"github.com/kjstillabower/geo-data-maps/internal/models"
	"github.com/kjstillabower/geo-data-maps/internal/validation"
)

// ErrNoFigure is returned by pages without a map.
var ErrNoFigure = errors.New("page has no figure")

// Source credits the data provider under a map.
type Source struct {
	Label   string `json:"label"`
	DocsURL string `json:"docsUrl"`
}

// Meta describes a page for the registry and navigation.
type Meta struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Path        string `json:"path"`
	ImageURL    string `json:"imageUrl,omitempty"`
	Order       *int   `json:"order,omitempty"`
	TopMenu     bool   `json:"topMenu,omitempty"`
	Heading     string `json:"heading"`
	Source      Source `json:"source"`
}

// Slug is the API name of the page: "home" for "/", else the path without slashes.
func (m Meta) Slug() string {
	return Slug(m.Path)
}

// Slug derives a page slug from its path.
func Slug(path string) string {
	s := strings.Trim(path, "/")
	if s == "" {
		return "home"
	}
	return strings.ReplaceAll(s, "/", "-")
}

func order(n int) *int { return &n }

// ControlKind is the widget type of a control.
type ControlKind string

const (
	Dropdown  ControlKind = "dropdown"
	Checklist ControlKind = "checklist"
)

// Option is one selectable control value.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Control is one page input.
type Control struct {
	ID      string      `json:"id"`
	Label   string      `json:"label,omitempty"`
	Kind    ControlKind `json:"kind"`
	Options []Option    `json:"options"`
	Default []string    `json:"default"`
	// SlowValues trigger the long-wait notice when selected.
	SlowValues []string `json:"slowValues,omitempty"`
}

func (c Control) values() []string {
	out := make([]string, len(c.Options))
	for i, o := range c.Options {
		out[i] = o.Value
	}
	return out
}

func options(values ...string) []Option {
	out := make([]Option, len(values))
	for i, v := range values {
		out[i] = Option{Value: v, Label: v}
	}
	return out
}

// Values are resolved control selections by control id.
type Values map[string][]string

// Get returns the first value of id, or "".
func (v Values) Get(id string) string {
	if vs := v[id]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether value is among the selections of id.
func (v Values) Has(id, value string) bool {
	for _, x := range v[id] {
		if x == value {
			return true
		}
	}
	return false
}

// Resolve validates raw query values against controls. Dropdowns fall back
// to their default on unknown values; checklists keep the known values and
// use their default only when the parameter is absent.
func Resolve(controls []Control, raw url.Values) Values {
	out := make(Values, len(controls))
	for _, c := range controls {
		vals, present := raw[c.ID]
		switch c.Kind {
		case Checklist:
			if !present {
				out[c.ID] = append([]string(nil), c.Default...)
				continue
			}
			out[c.ID] = validation.Subset(vals, c.values())
		default:
			def := ""
			if len(c.Default) > 0 {
				def = c.Default[0]
			}
			v := ""
			if len(vals) > 0 {
				v = vals[0]
			}
			out[c.ID] = []string{validation.Choice(v, c.values(), def)}
		}
	}
	return out
}

// Page is one map page.
type Page interface {
	Meta() Meta
	// Controls returns the inputs with their options resolved.
	Controls(ctx context.Context) ([]Control, error)
	// Figure builds the map for already resolved values.
	Figure(ctx context.Context, values Values) (*figure.Figure, error)
}

// Table is tabular data shown below a map.
type Table struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// TablePage is implemented by pages that also show a table.
type TablePage interface {
	Table(ctx context.Context) (*Table, error)
}

// DataSource is the data the pages draw. *datasets.Store implements it.
type DataSource interface {
	Antennas(ctx context.Context) ([]models.Antenna, error)
	MobileAntennas(ctx context.Context) ([]models.Antenna, error)
	EVStations(ctx context.Context) ([]models.EVStation, error)
	Regions(ctx context.Context, level datasets.RegionLevel) ([]models.Region, error)
	Turbines(ctx context.Context) ([]models.Turbine, error)
	POIs(ctx context.Context, country, value string) (datasets.POISet, error)
	ZueriEndpoints(ctx context.Context) ([]datasets.Endpoint, error)
	ZueriItems(ctx context.Context, id string) ([]models.POI, error)
	Landscape(ctx context.Context) ([]models.LandscapeArea, error)
}

// Options are settings shared by the pages.
type Options struct {
	// MapboxToken enables satellite tiles on the landscape page.
	MapboxToken string
	// Tolerance simplifies region polygons before they are sent (degrees).
	Tolerance float64
}
