//go:build integration
// +build integration

package client

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/tidwall/gjson"
)

// TestHTTPClient_ZueriEndpoints_Integration fetches the live tourism endpoint list.
func TestHTTPClient_ZueriEndpoints_Integration(t *testing.T) {
	if os.Getenv("GEODATA_INTEGRATION") == "" {
		t.Skip("GEODATA_INTEGRATION not set, skipping integration test")
	}
	c := NewHTTPClient(Config{Timeout: 30 * time.Second})
	body, err := c.Get(context.Background(), "zueri", "https://www.zuerich.com/en/api/v2/data")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !gjson.ValidBytes(body) || len(gjson.ParseBytes(body).Array()) == 0 {
		t.Errorf("expected non-empty JSON array, got %d bytes", len(body))
	}
}

// TestHTTPClient_Overpass_Integration runs a tiny Overpass query.
func TestHTTPClient_Overpass_Integration(t *testing.T) {
	if os.Getenv("GEODATA_INTEGRATION") == "" {
		t.Skip("GEODATA_INTEGRATION not set, skipping integration test")
	}
	c := NewHTTPClient(Config{Timeout: 60 * time.Second})
	query := `[out:json];node["amenity"="townhall"](47.36,8.53,47.38,8.55);out;`
	body, err := c.PostForm(context.Background(), "overpass", "https://overpass-api.de/api/interpreter", map[string][]string{"data": {query}})
	if err != nil {
		t.Fatalf("PostForm() error = %v", err)
	}
	if !gjson.GetBytes(body, "elements").IsArray() {
		t.Errorf("expected elements array")
	}
}
