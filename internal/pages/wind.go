package pages

import (
	"context"
	"fmt"
	"strconv"

	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/figure"
	"github.com/kjstillabower/geo-data-maps/internal/geo"
)

const defaultWindScale = "cividis"

// WindPage shows wind turbines sized by rotor diameter and colored by
// rated power, with a table of all installations.
type WindPage struct {
	src DataSource
}

var windColumns = []string{"manufacturer", "model", "ratedPower", "diameter", "yearOfConstruction"}

func (p *WindPage) Meta() Meta {
	return Meta{
		Name:        "Wind Turbines",
		Title:       "Swiss Wind Energy Turbines",
		Description: "Locations of Wind Turbines in Switzerland.",
		Path:        "/wind",
		ImageURL:    "/assets/img/wind.svg",
		Heading:     "Wind Turbines",
		Source: Source{
			Label:   "SFOE",
			DocsURL: "https://data.geo.admin.ch/browser/index.html#/collections/ch.bfe.windenergieanlagen?.language=en",
		},
	}
}

func (p *WindPage) Controls(ctx context.Context) ([]Control, error) {
	return []Control{{
		ID:      "scale",
		Label:   "Color scale:",
		Kind:    Dropdown,
		Options: options(geo.ScaleNames()...),
		Default: []string{defaultWindScale},
	}}, nil
}

func (p *WindPage) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	turbines, err := p.src.Turbines(ctx)
	if err != nil {
		return nil, err
	}
	points := make([]figure.Point, len(turbines))
	power := make([]float64, len(turbines))
	var maxPower float64
	for i, t := range turbines {
		power[i] = float64(t.RatedPower)
		if power[i] > maxPower {
			maxPower = power[i]
		}
		points[i] = figure.Point{
			Lat:  t.Lat,
			Lon:  t.Lon,
			Size: float64(t.Diameter * 10),
			Hover: figure.Hover("", t.Manufacturer, "Model", t.Model,
				"Power", strconv.Itoa(t.RatedPower)+" kW",
				"Diameter", strconv.Itoa(t.Diameter)+" m",
				"Year", t.YearOfConstruction),
		}
	}
	title := fmt.Sprintf("%d wind turbines totaling %s", len(turbines), datasets.TotalMW(turbines))
	f := figure.New(title, figure.Switzerland, 7)
	tr := figure.ColoredScatterTrace("Power (kW)", points, power, scale(values.Get("scale")), 0, maxPower, 0.8)
	tr.SizeMax = 20
	return f.Add(tr), nil
}

func (p *WindPage) Table(ctx context.Context) (*Table, error) {
	turbines, err := p.src.Turbines(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, len(turbines))
	for i, t := range turbines {
		rows[i] = map[string]any{
			"manufacturer":       t.Manufacturer,
			"model":              t.Model,
			"ratedPower":         t.RatedPower,
			"diameter":           t.Diameter,
			"yearOfConstruction": t.YearOfConstruction,
		}
	}
	return &Table{Columns: windColumns, Rows: rows}, nil
}
