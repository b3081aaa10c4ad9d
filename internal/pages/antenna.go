package pages

import (
	"context"
	"fmt"
	"sort"

	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

const antennaDataset = "5G-Coverage"

// minAntennaRadius is the radius of the smallest power class (Sehr Klein).
const minAntennaRadius = 2

// AntennaPage is a heat map of 5G antenna sites sized by power class.
type AntennaPage struct {
	src DataSource
}

func (p *AntennaPage) Meta() Meta {
	return Meta{
		Name:        "5G Antenna Coverage",
		Title:       "5G-Coverage",
		Description: "Points of 5G Antenna Coverage in Switzerland",
		Path:        "/antenna",
		ImageURL:    "/assets/img/antenna.svg",
		Heading:     "5G Antenna Coverage",
		Source: Source{
			Label:   "Bakom",
			DocsURL: "http://data.geo.admin.ch/ch.bakom.mobil-antennenstandorte-5g/data/ch.bakom.mobil-antennenstandorte-5g_de.json",
		},
	}
}

func (p *AntennaPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{{
		ID:      "dataset",
		Kind:    Dropdown,
		Options: options(antennaDataset),
		Default: []string{antennaDataset},
	}}, nil
}

// Figure draws one heat layer per power class with the class code as the
// radius, so stronger sites spread wider. Unknown classes use the smallest
// radius.
func (p *AntennaPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	ants, err := p.src.Antennas(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[int][]figure.Point)
	names := make(map[int]string)
	for _, a := range ants {
		code := a.PowerCode
		if code < minAntennaRadius {
			code = minAntennaRadius
		}
		byCode[code] = append(byCode[code], figure.Point{Lat: a.Lat, Lon: a.Lon})
		if names[code] == "" && a.Power != "" {
			names[code] = a.Power
		}
	}
	codes := make([]int, 0, len(byCode))
	for c := range byCode {
		codes = append(codes, c)
	}
	sort.Ints(codes)

	f := figure.New(fmt.Sprintf("%d antennas", len(ants)), figure.Switzerland, 7)
	for _, c := range codes {
		name := names[c]
		if name == "" {
			name = fmt.Sprintf("%s %d", antennaDataset, c)
		}
		f.Add(figure.DensityTrace(name, byCode[c], float64(c), scale("plasma")))
	}
	return f, nil
}
