package pages

import (
	"context"

	"github.com/kjstillabower/geo-data-maps/internal/figure"
)

// Home is the landing page; the shell lists every other page below it.
type Home struct{}

func (Home) Meta() Meta {
	return Meta{
		Name:        "Home",
		Title:       "Geo Data Maps",
		Description: "Landing Page for all available maps",
		Path:        "/",
		Order:       order(0),
		TopMenu:     true,
		Heading:     "Swiss Geo Data Maps",
	}
}

func (Home) Controls(ctx context.Context) ([]Control, error) { return nil, nil }

func (Home) Figure(ctx context.Context, values Values) (*figure.Figure, error) {
	return nil, ErrNoFigure
}
