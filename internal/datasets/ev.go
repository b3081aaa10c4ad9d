package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/kjstillabower/geo-data-maps/internal/models"
)

const (
	evStaticKey = "ev:static"
	evStatusKey = "ev:status"

	// StatusUnknown marks stations missing from the live status feed.
	StatusUnknown = "Unknown"
	// StatusAvailable is the OICP status counted as free.
	StatusAvailable = "Available"
)

// EVStations returns every charging point merged with its live status. The
// static station list is cached for the default TTL, the status feed for
// EVStatusTTL. When the remote station list is unavailable the preprocessed
// local file is used. A failing or unconfigured status feed leaves every
// status Unknown.
func (s *Store) EVStations(ctx context.Context) ([]models.EVStation, error) {
	stations, err := s.evStatic(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.evStatus(ctx)
	if err != nil {
		s.log(ctx).Warn("ev status unavailable", zap.Error(err))
		statuses = nil
	}
	merged := MergeEVStatus(stations, statuses)
	recordCount("ev", len(merged))
	return merged, nil
}

func (s *Store) evStatic(ctx context.Context) ([]models.EVStation, error) {
	local := s.path(s.opts.Files.EVStations)
	if s.opts.EVStaticURL == "" {
		return s.evLocal(local)
	}
	res, err := s.fetcher.Fetch(ctx, evStaticKey, 0, func(ctx context.Context) ([]byte, error) {
		body, err := s.upstream.Get(ctx, "ev_static", s.opts.EVStaticURL)
		if err != nil {
			return nil, err
		}
		stations, err := ParseOICPStations(body)
		if err != nil {
			return nil, err
		}
		return json.Marshal(stations)
	})
	if err != nil {
		if !exists(local) {
			return nil, err
		}
		s.log(ctx).Warn("ev station feed unavailable, using local file", zap.String("path", local), zap.Error(err))
		return s.evLocal(local)
	}
	var stations []models.EVStation
	if err := json.Unmarshal(res.Data, &stations); err != nil {
		return nil, fmt.Errorf("decode cached ev stations: %w", err)
	}
	return stations, nil
}

func (s *Store) evLocal(path string) ([]models.EVStation, error) {
	return loadStatic(s, "ev_local", func() ([]models.EVStation, error) {
		fc, err := readGeoJSON(path)
		if err != nil {
			return nil, err
		}
		out := make([]models.EVStation, 0, len(fc.Features))
		for _, f := range fc.Features {
			p, ok := f.Geometry.(orb.Point)
			if !ok {
				continue
			}
			out = append(out, models.EVStation{
				EvseID: propString(f.Properties, "EvseID"),
				Name:   propString(f.Properties, "name"),
				Lat:    p.Lat(),
				Lon:    p.Lon(),
				Plugs:  plugsProp(f.Properties["plugs"]),
			})
		}
		return out, nil
	})
}

func (s *Store) evStatus(ctx context.Context) (map[string]string, error) {
	if s.opts.EVStatusURL == "" {
		return nil, nil
	}
	res, err := s.fetcher.Fetch(ctx, evStatusKey, s.opts.EVStatusTTL, func(ctx context.Context) ([]byte, error) {
		body, err := s.upstream.Get(ctx, "ev_status", s.opts.EVStatusURL)
		if err != nil {
			return nil, err
		}
		return json.Marshal(ParseOICPStatus(body))
	})
	if err != nil {
		return nil, err
	}
	var statuses map[string]string
	if err := json.Unmarshal(res.Data, &statuses); err != nil {
		return nil, fmt.Errorf("decode cached ev status: %w", err)
	}
	return statuses, nil
}

// ParseOICPStations extracts the EVSE records of an OICP EVSEData document.
// Coordinates come from GeoCoordinates.Google ("lat lon"); records without
// usable coordinates are skipped.
func ParseOICPStations(body []byte) ([]models.EVStation, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("parse ev stations: invalid json")
	}
	records := gjson.GetBytes(body, "EVSEData.#.EVSEDataRecord|@flatten")
	var out []models.EVStation
	records.ForEach(func(_, rec gjson.Result) bool {
		lat, lon, ok := parseGoogleCoords(rec.Get("GeoCoordinates.Google").String())
		if !ok {
			return true
		}
		name := rec.Get(`ChargingStationNames.#(lang=="de").value`).String()
		if name == "" {
			name = rec.Get("ChargingStationNames.0.value").String()
		}
		var plugs []string
		for _, p := range rec.Get("Plugs").Array() {
			plugs = append(plugs, p.String())
		}
		out = append(out, models.EVStation{
			EvseID: rec.Get("EvseID").String(),
			Name:   name,
			Lat:    lat,
			Lon:    lon,
			Plugs:  plugs,
		})
		return true
	})
	return out, nil
}

// ParseOICPStatus maps EvseID to EVSEStatus from an OICP status document.
func ParseOICPStatus(body []byte) map[string]string {
	out := make(map[string]string)
	gjson.GetBytes(body, "EVSEStatuses.#.EVSEStatusRecord|@flatten").ForEach(func(_, rec gjson.Result) bool {
		if id := rec.Get("EvseID").String(); id != "" {
			out[id] = rec.Get("EVSEStatus").String()
		}
		return true
	})
	return out
}

// MergeEVStatus copies stations and sets each status from statuses by EVSE
// id, StatusUnknown when missing.
func MergeEVStatus(stations []models.EVStation, statuses map[string]string) []models.EVStation {
	out := make([]models.EVStation, len(stations))
	for i, st := range stations {
		st.Status = StatusUnknown
		if v, ok := statuses[st.EvseID]; ok && v != "" {
			st.Status = v
		}
		out[i] = st
	}
	return out
}

// CountAvailable counts stations whose status is Available.
func CountAvailable(stations []models.EVStation) int {
	n := 0
	for _, st := range stations {
		if st.Status == StatusAvailable {
			n++
		}
	}
	return n
}

func parseGoogleCoords(s string) (lat, lon float64, ok bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 2 {
		return 0, 0, false
	}
	lat, err1 := strconv.ParseFloat(fields[0], 64)
	lon, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// plugsProp accepts the preprocessed plugs column as a list, a JSON list
// string or a comma separated string.
func plugsProp(v any) []string {
	if items, ok := v.([]interface{}); ok {
		list := make([]string, 0, len(items))
		for _, it := range items {
			list = append(list, fmt.Sprint(it))
		}
		return list
	}
	s, _ := v.(string)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var list []string
	if strings.HasPrefix(s, "[") && json.Unmarshal([]byte(s), &list) == nil {
		return list
	}
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list
}
