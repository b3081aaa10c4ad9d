package pages

import (
	"context"
	"fmt"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

// ZueriPage is a heat map of one Zürich Tourism API endpoint.
type ZueriPage struct {
	src DataSource
}

func (p *ZueriPage) Meta() Meta {
	return Meta{
		Name:        "Zürich POIs",
		Title:       "Zürich Tourism POIs",
		Description: "Points of Interest in Zürich retrieved from the Zürich Tourism API.",
		Path:        "/zueri",
		ImageURL:    "/assets/img/zueri.svg",
		Order:       order(10),
		Heading:     "Zürich Tourism POIs",
		Source: Source{
			Label:   "Open Data Zürich Tourism API v2",
			DocsURL: "https://zt.zuerich.com/en/open-data/v2",
		},
	}
}

// Controls fetches the endpoint list, so it fails when the API is down and
// nothing is cached.
func (p *ZueriPage) Controls(ctx context.Context) ([]Control, error) {
	eps, err := p.src.ZueriEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, len(eps))
	for i, e := range eps {
		opts[i] = Option{Value: e.ID, Label: e.Name}
	}
	def := datasets.DefaultZueriEndpoint
	if len(eps) > 0 && datasets.EndpointName(eps, def) == def {
		def = eps[0].ID
	}
	return []Control{{ID: "endpoint", Kind: Dropdown, Options: opts, Default: []string{def}}}, nil
}

func (p *ZueriPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	id := values.Get("endpoint")
	eps, err := p.src.ZueriEndpoints(ctx)
	if err != nil {
		return nil, err
	}
	items, err := p.src.ZueriItems(ctx, id)
	if err != nil {
		return nil, err
	}
	title := fmt.Sprintf("%s: %d points", datasets.EndpointName(eps, id), len(items))
	f := figure.New(title, figure.LatLon{Lat: 47.37, Lon: 8.53}, 12)
	return f.Add(figure.DensityTrace(id, poiPoints(items), 10, scale("spectral"))), nil
}
