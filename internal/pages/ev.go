package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

const evLayer = "chargers"

// EVPage is a heat map of charging stations over an optional population
// density choropleth.
type EVPage struct {
	src  DataSource
	opts Options
}

func (p *EVPage) Meta() Meta {
	return Meta{
		Name:        "EV Charger Network",
		Title:       "EV Charging Stations Network",
		Description: "EV Chargers Coverage in Switzerland.",
		Path:        "/ev",
		ImageURL:    "/assets/img/ev.svg",
		Heading:     "EV Charger Network",
		Source: Source{
			Label:   "IchTankeStrom",
			DocsURL: "https://github.com/SFOE/ichtankestrom_Documentation",
		},
	}
}

func (p *EVPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{
		{
			ID:      "layers",
			Kind:    Checklist,
			Options: []Option{{Value: evLayer, Label: "EV Chargers"}},
			Default: []string{evLayer},
		},
		shapeControl("Pop. density:"),
	}, nil
}

func (p *EVPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	stations, err := p.src.EVStations(ctx)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("%d EV Stations (%d available)", len(stations), datasets.CountAvailable(stations))
	f := figure.New(title, figure.Switzerland, 7)

	var points []figure.Point
	if values.Has("layers", evLayer) {
		points = make([]figure.Point, len(stations))
		for i, st := range stations {
			points[i] = figure.Point{
				Lat: st.Lat,
				Lon: st.Lon,
				Hover: figure.Hover("GPS", figure.Coords(st.Lat, st.Lon), "Name", st.Name,
					"Plugs", strings.Join(st.Plugs, ", "), "Status", st.Status),
			}
		}
	}
	f.Add(figure.DensityTrace("EV Chargers", points, 5, scale("plasma")))

	if level, ok := datasets.ParseRegionLevel(values.Get("shape")); ok {
		regions, err := p.src.Regions(ctx, level)
		if err != nil {
			return nil, err
		}
		z := make([]float64, len(regions))
		for i, r := range regions {
			z[i] = r.Density
		}
		f.Add(regionTrace(string(level), regions, z, "blues", figure.ChoroplethOptions{
			ZMin: 0, ZMax: 10000, Opacity: 0.5, Tolerance: p.opts.Tolerance,
		}))
	}
	return f, nil
}
