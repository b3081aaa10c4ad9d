package pages

import (
	"context"
	"fmt"
	"strings"

	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

// MobilePage layers 3G, 4G and 5G antennas with toggle buttons.
type MobilePage struct {
	src DataSource
}

var mobileLayers = []struct {
	name  string
	color string
}{
	{"3G", "#636efa"},
	{"4G", "#ef553b"},
	{"5G", "#00cc96"},
}

func (p *MobilePage) Meta() Meta {
	return Meta{
		Name:        "Mobile Network",
		Title:       "3G, 4G, 5G Network Antennas in Switzerland",
		Description: "Layered maps displaying the distribution of 3G, 4G and 5G antennas in Switzerland.",
		Path:        "/mobile",
		ImageURL:    "/assets/img/mobile.svg",
		Order:       order(150),
		Heading:     "Mobile Network Antennas",
		Source: Source{
			Label:   "Bakom",
			DocsURL: "https://data.geo.admin.ch/browser/index.html#/collections/ch.bakom.standorte-mobilfunkanlagen",
		},
	}
}

func (p *MobilePage) Controls(ctx context.Context) ([]Control, error) { return nil, nil }

func (p *MobilePage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	ants, err := p.src.MobileAntennas(ctx)
	if err != nil {
		return nil, err
	}
	f := figure.New(fmt.Sprintf("Total: %d antennas", len(ants)), figure.LatLon{Lat: 47, Lon: 8.2}, 7)
	f.Legend = "h"
	for _, layer := range mobileLayers {
		var points []figure.Point
		for _, a := range ants {
			if !strings.Contains(a.Techno, layer.name) {
				continue
			}
			points = append(points, figure.Point{
				Lat:  a.Lat,
				Lon:  a.Lon,
				Size: float64(a.PowerCode),
				Hover: figure.Hover("Techno", a.Techno, "Power", a.Power, "Typ", a.Type,
					"GPS", figure.Coords(a.Lat, a.Lon)),
			})
		}
		f.Add(figure.ScatterTrace(layer.name, points, layer.color, 0.7))
	}
	f.Buttons = []figure.Button{
		{Label: "Show 3G", Visible: []bool{true, false, false}},
		{Label: "Show 4G", Visible: []bool{false, true, false}},
		{Label: "Show 5G", Visible: []bool{false, false, true}},
		{Label: "Show All", Visible: []bool{true, true, true}},
	}
	return f, nil
}
