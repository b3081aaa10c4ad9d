package pages

import (
	"context"
	"fmt"
	"html"

	"github.com/paulmach/orb"

	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

// LandPage draws the landscape typology with a show/hide toggle.
type LandPage struct {
	src  DataSource
	opts Options
}

func (p *LandPage) Meta() Meta {
	return Meta{
		Name:        "Landschafts-Typen",
		Title:       "Landschafts-Typen Maps",
		Description: "Landschafts-Typen der Schweiz.",
		Path:        "/land",
		ImageURL:    "/assets/img/land.svg",
		Order:       order(1),
		Heading:     "Landschafts-Typen",
		Source: Source{
			Label:   "BAFU",
			DocsURL: "https://www.bafu.admin.ch/bafu/de/home/themen/landschaft/fachinformationen/landschaftsqualitaet-erhalten-und-entwickeln/landschaftstypologie-schweiz.html",
		},
	}
}

func (p *LandPage) Controls(ctx context.Context) ([]Control, error) { return nil, nil }

func (p *LandPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	areas, err := p.src.Landscape(ctx)
	if err != nil {
		return nil, err
	}
	geoms := make([]orb.Geometry, len(areas))
	z := make([]float64, len(areas))
	hover := make([]string, len(areas))
	var zmin, zmax float64
	for i, a := range areas {
		geoms[i] = a.Geometry
		z[i] = float64(a.TypeNr)
		if i == 0 || z[i] < zmin {
			zmin = z[i]
		}
		if z[i] > zmax {
			zmax = z[i]
		}
		hover[i] = "<b>" + html.EscapeString(a.Object) + "</b> - " + html.EscapeString(a.TypeName) +
			"<br>" + figure.Hover("Region", a.Region)
	}
	f := figure.New(fmt.Sprintf("%d landscape areas", len(areas)), figure.LatLon{Lat: 47, Lon: 8.2}, 7)
	f.BaseMap = figure.CartoPositron
	if p.opts.MapboxToken != "" {
		f.BaseMap = figure.Satellite(p.opts.MapboxToken)
	}
	f.Add(figure.ChoroplethTrace("Landschaftstypen", geoms, z, hover, scale("earth"), figure.ChoroplethOptions{
		ZMin: zmin, ZMax: zmax, Opacity: 0.8, Tolerance: p.opts.Tolerance,
	}))
	f.Buttons = []figure.Button{
		{Label: "Show", Visible: []bool{true}},
		{Label: "Hide", Visible: []bool{false}},
	}
	return f, nil
}
