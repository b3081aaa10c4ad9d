package pages

import (
	"context"
	"fmt"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

// PopulationPage colors the Kantone by population, area or density.
type PopulationPage struct {
	src  DataSource
	opts Options
}

var populationFacts = []string{"Population", "Area", "Density"}

func (p *PopulationPage) Meta() Meta {
	return Meta{
		Name:        "Swiss Population by Kanton",
		Title:       "Swiss Population",
		Description: "Map of Switzerland with Population, Area and Density by Kanton.",
		Path:        "/swiss",
		ImageURL:    "/assets/img/swiss.svg",
		Heading:     "Swiss Population",
		Source:      Source{Label: "Open Data", DocsURL: "https://opendata.swiss/"},
	}
}

func (p *PopulationPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{{
		ID:      "fact",
		Kind:    Dropdown,
		Options: options(populationFacts...),
		Default: []string{populationFacts[0]},
	}}, nil
}

func (p *PopulationPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	regions, err := p.src.Regions(ctx, datasets.Kantone)
	if err != nil {
		return nil, err
	}
	fact := values.Get("fact")
	z := make([]float64, len(regions))
	zmax := 1_500_000.0
	for i, r := range regions {
		switch fact {
		case "Area":
			z[i] = r.Area
		case "Density":
			if r.Area > 0 {
				z[i] = r.Population / r.Area
			}
		default:
			z[i] = r.Population
		}
	}
	switch fact {
	case "Area":
		zmax = 750_000
	case "Density":
		zmax = 10
	}
	f := figure.New(fmt.Sprintf("Kantone: %s", fact), figure.LatLon{Lat: 47, Lon: 8.2}, 7)
	f.BaseMap = figure.CartoPositron
	return f.Add(regionTrace(fact, regions, z, "viridis", figure.ChoroplethOptions{
		ZMin: 0, ZMax: zmax, Opacity: 0.7, ShowScale: true, Tolerance: p.opts.Tolerance,
	})), nil
}
