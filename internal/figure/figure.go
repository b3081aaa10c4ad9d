// Package figure is the map figure model returned by page callbacks and
// drawn by the browser with Leaflet. Colors are resolved on the server so
// the client only places layers.
package figure

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/simplify"

	"github.com/kjstillabower/geo-data-maps/internal/geo"
)

// TraceType selects how a trace is drawn.
type TraceType string

const (
	Density    TraceType = "density"
	Scatter    TraceType = "scatter"
	Choropleth TraceType = "choropleth"
)

// LatLon is a map position.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BaseMap is the tile layer under the traces.
type BaseMap struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

var (
	OpenStreetMap = BaseMap{
		Name:        "open-street-map",
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MaxZoom:     19,
	}
	CartoPositron = BaseMap{
		Name:        "carto-positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
		MaxZoom:     20,
	}
)

// Satellite returns the Mapbox satellite tiles for token.
func Satellite(token string) BaseMap {
	return BaseMap{
		Name:        "satellite",
		URL:         "https://api.mapbox.com/styles/v1/mapbox/satellite-v9/tiles/{z}/{x}/{y}?access_token=" + token,
		Attribution: "&copy; Mapbox &copy; OpenStreetMap contributors",
		MaxZoom:     20,
	}
}

// Point is one marker or heat sample.
type Point struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Size  float64 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
	// Weight is the heat intensity in [0,1].
	Weight float64 `json:"weight,omitempty"`
	Hover  string  `json:"hover,omitempty"`
}

// Trace is one layer of the figure.
type Trace struct {
	Type    TraceType `json:"type"`
	Name    string    `json:"name,omitempty"`
	Visible bool      `json:"visible"`
	Opacity float64   `json:"opacity,omitempty"`

	Points []Point `json:"points,omitempty"`
	// Radius is the heat radius in pixels.
	Radius float64 `json:"radius,omitempty"`
	// SizeMax, when set, scales marker sizes so the largest is SizeMax pixels.
	SizeMax float64 `json:"sizeMax,omitempty"`

	// Features carry "color", "z" and "hover" properties.
	Features *geojson.FeatureCollection `json:"features,omitempty"`

	ColorScale []geo.Stop `json:"colorScale,omitempty"`
	ZMin       float64    `json:"zmin"`
	ZMax       float64    `json:"zmax"`
	ShowScale  bool       `json:"showScale"`
}

// Button toggles trace visibility, one flag per trace.
type Button struct {
	Label   string `json:"label"`
	Visible []bool `json:"visible"`
}

// Figure is a complete map.
type Figure struct {
	Title   string   `json:"title"`
	Center  LatLon   `json:"center"`
	Zoom    float64  `json:"zoom"`
	BaseMap BaseMap  `json:"baseMap"`
	Traces  []Trace  `json:"traces"`
	Buttons []Button `json:"buttons,omitempty"`
	// Legend is "", "h" or "v".
	Legend string `json:"legend,omitempty"`
	// FitBounds asks the client to zoom to the data instead of Center/Zoom.
	FitBounds bool `json:"fitBounds,omitempty"`
}

// Switzerland is the default view.
var Switzerland = LatLon{Lat: 46.8, Lon: 8.2}

// New creates a figure on OpenStreetMap tiles.
func New(title string, center LatLon, zoom float64) *Figure {
	return &Figure{Title: title, Center: center, Zoom: zoom, BaseMap: OpenStreetMap, Traces: []Trace{}}
}

// Add appends traces and returns f.
func (f *Figure) Add(traces ...Trace) *Figure {
	f.Traces = append(f.Traces, traces...)
	return f
}

// PointCount sums the points of every trace.
func (f *Figure) PointCount() int {
	n := 0
	for _, t := range f.Traces {
		n += len(t.Points)
		if t.Features != nil {
			n += len(t.Features.Features)
		}
	}
	return n
}

// DensityTrace builds a heat layer. Each point's weight is its Size scaled
// against the largest size, or 1 when no sizes are set.
func DensityTrace(name string, points []Point, radius float64, scale geo.Scale) Trace {
	var maxSize float64
	for _, p := range points {
		if p.Size > maxSize {
			maxSize = p.Size
		}
	}
	out := make([]Point, len(points))
	for i, p := range points {
		p.Weight = 1
		if maxSize > 0 {
			p.Weight = p.Size / maxSize
		}
		out[i] = p
	}
	return Trace{
		Type:       Density,
		Name:       name,
		Visible:    true,
		Points:     out,
		Radius:     radius,
		ColorScale: scale.Stops(8),
		ZMin:       0,
		ZMax:       1,
	}
}

// ScatterTrace builds a marker layer with a fixed color.
func ScatterTrace(name string, points []Point, color string, opacity float64) Trace {
	out := make([]Point, len(points))
	for i, p := range points {
		if p.Color == "" {
			p.Color = color
		}
		out[i] = p
	}
	return Trace{Type: Scatter, Name: name, Visible: true, Points: out, Opacity: opacity}
}

// ColoredScatterTrace colors each marker by values[i] on scale over [zmin,zmax].
func ColoredScatterTrace(name string, points []Point, values []float64, scale geo.Scale, zmin, zmax, opacity float64) Trace {
	out := make([]Point, len(points))
	for i, p := range points {
		if i < len(values) {
			p.Color = scale.Hex(geo.Normalize(values[i], zmin, zmax))
		}
		out[i] = p
	}
	return Trace{
		Type: Scatter, Name: name, Visible: true, Points: out, Opacity: opacity,
		ColorScale: scale.Stops(8), ZMin: zmin, ZMax: zmax, ShowScale: true,
	}
}

// ChoroplethOptions configures ChoroplethTrace.
type ChoroplethOptions struct {
	ZMin, ZMax float64
	Opacity    float64
	ShowScale  bool
	// Tolerance simplifies polygons (degrees); 0 keeps them as is.
	Tolerance float64
}

// ChoroplethTrace fills geoms[i] with the color of z[i]. hover[i] is the
// tooltip HTML.
func ChoroplethTrace(name string, geoms []orb.Geometry, z []float64, hover []string, scale geo.Scale, opts ChoroplethOptions) Trace {
	fc := geojson.NewFeatureCollection()
	var simplifier *simplify.DouglasPeuckerSimplifier
	if opts.Tolerance > 0 {
		simplifier = simplify.DouglasPeucker(opts.Tolerance)
	}
	for i, g := range geoms {
		if g == nil || i >= len(z) {
			continue
		}
		if simplifier != nil {
			g = simplifier.Simplify(orb.Clone(g))
		}
		f := geojson.NewFeature(g)
		f.Properties["z"] = z[i]
		f.Properties["color"] = scale.Hex(geo.Normalize(z[i], opts.ZMin, opts.ZMax))
		if i < len(hover) {
			f.Properties["hover"] = hover[i]
		}
		fc.Append(f)
	}
	return Trace{
		Type:       Choropleth,
		Name:       name,
		Visible:    true,
		Opacity:    opts.Opacity,
		Features:   fc,
		ColorScale: scale.Stops(8),
		ZMin:       opts.ZMin,
		ZMax:       opts.ZMax,
		ShowScale:  opts.ShowScale,
	}
}

// Hover builds tooltip HTML from label/value pairs, escaping values.
// A pair with an empty label renders the value in bold as a heading.
func Hover(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		if b.Len() > 0 {
			b.WriteString("<br>")
		}
		label, value := pairs[i], html.EscapeString(pairs[i+1])
		if label == "" {
			b.WriteString("<b>" + value + "</b>")
			continue
		}
		b.WriteString(html.EscapeString(label) + ": " + value)
	}
	return b.String()
}

// Link renders an escaped anchor for http and https URLs. Any other value
// is returned as escaped text; "" stays "".
func Link(raw string) string {
	if raw == "" {
		return ""
	}
	text := html.EscapeString(raw)
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return text
	}
	return `<a href="` + html.EscapeString(u.String()) + `" target="_blank" rel="noopener">` + text + `</a>`
}

// Coords formats a GPS position for tooltips.
func Coords(lat, lon float64) string {
	return fmt.Sprintf("%s, %s", strconv.FormatFloat(lat, 'f', 5, 64), strconv.FormatFloat(lon, 'f', 5, 64))
}
