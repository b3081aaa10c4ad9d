package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/kjstillabower/geo-data-maps/internal/models"
	"github.com/kjstillabower/geo-data-maps/internal/validation"
)

// DefaultZueriEndpoint is the endpoint id selected before any choice.
const DefaultZueriEndpoint = "101"

// Endpoint is one Zürich Tourism API data endpoint.
type Endpoint struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ZueriEndpoints returns the API endpoints that have a German name, in API order.
func (s *Store) ZueriEndpoints(ctx context.Context) ([]Endpoint, error) {
	res, err := s.fetcher.Fetch(ctx, "zueri:endpoints", 0, func(ctx context.Context) ([]byte, error) {
		body, err := s.upstream.Get(ctx, "zueri", s.opts.ZueriURL)
		if err != nil {
			return nil, err
		}
		eps, err := ParseZueriEndpoints(body)
		if err != nil {
			return nil, err
		}
		return json.Marshal(eps)
	})
	if err != nil {
		return nil, err
	}
	var eps []Endpoint
	if err := json.Unmarshal(res.Data, &eps); err != nil {
		return nil, fmt.Errorf("decode cached zueri endpoints: %w", err)
	}
	return eps, nil
}

// ZueriItems returns the geolocated items of endpoint id.
func (s *Store) ZueriItems(ctx context.Context, id string) ([]models.POI, error) {
	id, err := validation.ValidateToken(id, 16)
	if err != nil {
		return nil, err
	}
	res, err := s.fetcher.Fetch(ctx, "zueri:"+id, 0, func(ctx context.Context) ([]byte, error) {
		u, err := url.Parse(s.opts.ZueriURL)
		if err != nil {
			return nil, fmt.Errorf("zueri url: %w", err)
		}
		q := u.Query()
		q.Set("id", id)
		u.RawQuery = q.Encode()
		body, err := s.upstream.Get(ctx, "zueri", u.String())
		if err != nil {
			return nil, err
		}
		items, err := ParseZueriItems(body)
		if err != nil {
			return nil, err
		}
		return json.Marshal(items)
	})
	if err != nil {
		return nil, err
	}
	var items []models.POI
	if err := json.Unmarshal(res.Data, &items); err != nil {
		return nil, fmt.Errorf("decode cached zueri items: %w", err)
	}
	return items, nil
}

// ParseZueriEndpoints maps the endpoint list; entries without name.de are dropped.
func ParseZueriEndpoints(body []byte) ([]Endpoint, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("parse zueri endpoints: invalid json")
	}
	out := []Endpoint{}
	gjson.ParseBytes(body).ForEach(func(_, item gjson.Result) bool {
		name := item.Get("name.de")
		if !name.Exists() || name.Type == gjson.Null {
			return true
		}
		out = append(out, Endpoint{ID: item.Get("id").String(), Name: name.String()})
		return true
	})
	return out, nil
}

// ParseZueriItems maps endpoint items to POIs. Items without geoCoordinates
// are skipped; a missing German name is "n/a".
func ParseZueriItems(body []byte) ([]models.POI, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("parse zueri items: invalid json")
	}
	out := []models.POI{}
	gjson.ParseBytes(body).ForEach(func(_, item gjson.Result) bool {
		geo := item.Get("geoCoordinates")
		if !geo.Exists() || geo.Type == gjson.Null {
			return true
		}
		name := item.Get("name.de").String()
		if name == "" {
			name = "n/a"
		}
		out = append(out, models.POI{
			Name: name,
			Lat:  geo.Get("latitude").Float(),
			Lon:  geo.Get("longitude").Float(),
			Link: item.Get("address.url").String(),
		})
		return true
	})
	return out, nil
}

// EndpointName returns the name of id in eps, or id itself.
func EndpointName(eps []Endpoint, id string) string {
	for _, e := range eps {
		if e.ID == id {
			return e.Name
		}
	}
	return id
}
