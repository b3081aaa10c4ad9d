package pages

import (
	"math"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
	"github.com/kjstillabower/geo-data-maps/internal/geo"
	"github.com/kjstillabower/geo-data-maps/internal/models"
)

// noShape is the population overlay choice that draws no regions.
const noShape = "-"

func shapeControl(label string) Control {
	opts := []string{noShape}
	for _, l := range datasets.RegionLevels {
		opts = append(opts, string(l))
	}
	return Control{
		ID:         "shape",
		Label:      label,
		Kind:       Dropdown,
		Options:    options(opts...),
		Default:    []string{noShape},
		SlowValues: []string{string(datasets.Bezirke), string(datasets.Gemeinden)},
	}
}

func tagControl() Control {
	return Control{
		ID:      "tag",
		Label:   "Fact:",
		Kind:    Dropdown,
		Options: options(datasets.TagValues()...),
		Default: []string{datasets.DefaultTagValue},
	}
}

func scale(name string) geo.Scale {
	s, ok := geo.LookupScale(name)
	if !ok {
		s, _ = geo.LookupScale("viridis")
	}
	return s
}

// formatZ renders a choropleth value for tooltips.
func formatZ(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	r, n := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	rest := []rune(s[n:])
	for i := range rest {
		rest[i] = unicode.ToLower(rest[i])
	}
	return string(unicode.ToUpper(r)) + string(rest)
}

// regionTrace draws regions colored by z with "<b>name</b><br>z" tooltips.
func regionTrace(name string, regions []models.Region, z []float64, scaleName string, opts figure.ChoroplethOptions) figure.Trace {
	geoms := make([]orb.Geometry, len(regions))
	hover := make([]string, len(regions))
	for i, r := range regions {
		geoms[i] = r.Geometry
		if i < len(z) {
			hover[i] = figure.Hover("", r.Name) + "<br>" + formatZ(z[i])
		}
	}
	return figure.ChoroplethTrace(name, geoms, z, hover, scale(scaleName), opts)
}

// poiPoints converts POIs to heat points with name, link and position tooltips.
func poiPoints(pois []models.POI) []figure.Point {
	out := make([]figure.Point, len(pois))
	for i, p := range pois {
		hover := figure.Hover("Name", p.Name)
		if l := figure.Link(p.Link); l != "" {
			hover += "<br>" + l
		}
		hover += "<br>" + figure.Hover("Coordinates", figure.Coords(p.Lat, p.Lon))
		out[i] = figure.Point{Lat: p.Lat, Lon: p.Lon, Hover: hover}
	}
	return out
}
