package pages

import (
	"context"
	"fmt"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

var osmSource = Source{
	Label:   "Open Street Maps Overpass API",
	DocsURL: "https://wiki.openstreetmap.org/wiki/Overpass_API",
}

// OSMPage is a heat map of Swiss OSM nodes with a chosen tag.
type OSMPage struct {
	src DataSource
}

func (p *OSMPage) Meta() Meta {
	return Meta{
		Name:        "Open Street Maps",
		Title:       "Swiss Open Street Maps POIs",
		Description: "Open Street Maps Points of Interest collected via the Overpass API.",
		Path:        "/osm",
		ImageURL:    "/assets/img/osm.svg",
		Heading:     "Open Street Maps POIs",
		Source:      osmSource,
	}
}

func (p *OSMPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{tagControl()}, nil
}

func (p *OSMPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	return osmFigure(ctx, p.src, "CH", values.Get("tag"), false)
}

// OSMEuropePage is OSMPage for a selectable European country.
type OSMEuropePage struct {
	src DataSource
}

func (p *OSMEuropePage) Meta() Meta {
	return Meta{
		Name:        "Open Street Maps Europe",
		Title:       "Open Street Maps Points of Interest",
		Description: "Open Street Maps Points of Interest of European countries collected via the Overpass API.",
		Path:        "/osm-europe",
		ImageURL:    "/assets/img/osm.svg",
		Heading:     "Open Street Maps POIs",
		Source:      osmSource,
	}
}

func (p *OSMEuropePage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{
		{
			ID:      "country",
			Label:   "Country:",
			Kind:    Dropdown,
			Options: options(datasets.Countries...),
			Default: []string{"CH"},
		},
		tagControl(),
	}, nil
}

func (p *OSMEuropePage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	return osmFigure(ctx, p.src, values.Get("country"), values.Get("tag"), true)
}

func osmFigure(ctx context.Context, src DataSource, country, tag string, fit bool) (*figure.Figure, error) {
	set, err := src.POIs(ctx, country, tag)
	if err != nil {
		return nil, err
	}
	f := figure.New(fmt.Sprintf("%s: %d points", capitalize(tag), set.Len()), figure.Switzerland, 7)
	f.FitBounds = fit
	return f.Add(figure.DensityTrace(tag, poiPoints(set.POIs()), 10, scale("inferno"))), nil
}

// DensityPage relates Swiss OSM nodes to population density per region.
type DensityPage struct {
	src  DataSource
	opts Options
}

func (p *DensityPage) Meta() Meta {
	return Meta{
		Name:        "Open Street Density Maps",
		Title:       "Open Street Maps Swiss Population Densities",
		Description: "Open Street Maps Points of Interest augmented with population data and density maps.",
		Path:        "/density",
		ImageURL:    "/assets/img/density.svg",
		Heading:     "Open Street Maps and Swiss Population Densities",
		Source:      osmSource,
	}
}

func (p *DensityPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{tagControl(), shapeControl("Pop. by:")}, nil
}

func (p *DensityPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	tag := values.Get("tag")
	set, err := p.src.POIs(ctx, "CH", tag)
	if err != nil {
		return nil, err
	}
	pois := set.POIs()
	f := figure.New(fmt.Sprintf("%s: %d points", capitalize(tag), set.Len()), figure.Switzerland, 7)
	f.Add(figure.DensityTrace(tag, poiPoints(pois), 5, scale("inferno")))

	level, ok := datasets.ParseRegionLevel(values.Get("shape"))
	if !ok {
		return f, nil
	}
	regions, err := p.src.Regions(ctx, level)
	if err != nil {
		return nil, err
	}
	counts := datasets.RegionCounts(regions, pois)
	z, zmax := datasets.POIDensity(regions, counts)
	return f.Add(regionTrace(string(level), regions, z, "reds", figure.ChoroplethOptions{
		ZMin: 0, ZMax: zmax, Opacity: 0.5, Tolerance: p.opts.Tolerance,
	})), nil
}
