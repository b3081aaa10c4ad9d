package datasets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/kjstillabower/geo-data-maps/internal/models"
	"github.com/kjstillabower/geo-data-maps/internal/validation"
)

// DefaultTagValue is the OSM tag value shown before any selection.
const DefaultTagValue = "books"

// tagCatalog maps each selectable OSM tag value to its key.
var tagCatalog = map[string]string{
	"books": "shop", "bakery": "shop", "supermarket": "shop", "bicycle": "shop",
	"chocolate": "shop", "cheese": "shop", "kiosk": "shop", "hairdresser": "shop",
	"florist": "shop", "butcher": "shop", "optician": "shop", "outdoor": "shop",

	"cafe": "amenity", "restaurant": "amenity", "bar": "amenity", "pub": "amenity",
	"fast_food": "amenity", "ice_cream": "amenity", "library": "amenity",
	"cinema": "amenity", "theatre": "amenity", "pharmacy": "amenity",
	"hospital": "amenity", "doctors": "amenity", "dentist": "amenity",
	"veterinary": "amenity", "school": "amenity", "university": "amenity",
	"kindergarten": "amenity", "post_office": "amenity", "atm": "amenity",
	"bank": "amenity", "fuel": "amenity", "charging_station": "amenity",
	"parking": "amenity", "bench": "amenity", "drinking_water": "amenity",
	"toilets": "amenity", "recycling": "amenity", "place_of_worship": "amenity",
	"fountain": "amenity", "police": "amenity", "fire_station": "amenity",

	"hotel": "tourism", "hostel": "tourism", "camp_site": "tourism",
	"museum": "tourism", "viewpoint": "tourism", "attraction": "tourism",
	"artwork": "tourism", "picnic_site": "tourism", "alpine_hut": "tourism",
	"information": "tourism",

	"playground": "leisure", "park": "leisure", "fitness_centre": "leisure",
	"swimming_pool": "leisure", "sports_centre": "leisure",

	"peak": "natural", "tree": "natural", "spring": "natural", "cave_entrance": "natural",

	"castle": "historic", "memorial": "historic", "ruins": "historic",
	"monument": "historic", "wayside_cross": "historic",

	"waterfall": "waterway",

	"bus_stop": "highway", "station": "railway", "aerodrome": "aeroway",
	"tower": "man_made", "windmill": "man_made",
}

// TagValues lists the selectable OSM tag values alphabetically.
func TagValues() []string {
	out := make([]string, 0, len(tagCatalog))
	for v := range tagCatalog {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// TagKey returns the OSM key of a tag value.
func TagKey(value string) (string, bool) {
	k, ok := tagCatalog[value]
	return k, ok
}

// Countries lists the ISO 3166-1 codes offered for Overpass area queries.
var Countries = []string{
	"AD", "AL", "AT", "BA", "BE", "BG", "BY", "CH", "CY", "CZ", "DE", "DK",
	"EE", "ES", "FI", "FR", "GB", "GR", "HR", "HU", "IE", "IS", "IT", "LI",
	"LT", "LU", "LV", "MC", "MD", "ME", "MK", "MT", "NL", "NO", "PL", "PT",
	"RO", "RS", "SE", "SI", "SK", "SM", "UA", "VA",
}

// POISet is the cached shape of an Overpass result: parallel columns.
type POISet struct {
	Names    []string  `json:"names"`
	Longs    []float64 `json:"longs"`
	Lats     []float64 `json:"lats"`
	Websites []string  `json:"websites"`
}

// Len returns the number of points.
func (p POISet) Len() int { return len(p.Names) }

// POIs converts the columns to records.
func (p POISet) POIs() []models.POI {
	out := make([]models.POI, 0, len(p.Names))
	for i := range p.Names {
		if i >= len(p.Lats) || i >= len(p.Longs) {
			break
		}
		poi := models.POI{Name: p.Names[i], Lat: p.Lats[i], Lon: p.Longs[i]}
		if i < len(p.Websites) {
			poi.Link = p.Websites[i]
		}
		out = append(out, poi)
	}
	return out
}

var errUnknownTag = errors.New("unknown tag value")

// OverpassQuery builds the area query for nodes tagged key=value in country.
func OverpassQuery(country, key, value string) string {
	return fmt.Sprintf(`[out:json][timeout:180];
( area["ISO3166-1"="%s"][admin_level=2]; )->.searchArea;
( node[%s=%s]( area.searchArea ); );
out center;`, country, key, value)
}

// osmCacheKey keys cached results by country and tag.
func osmCacheKey(country, key, value string) string {
	return fmt.Sprintf("osm:%s:%s:%s", country, key, value)
}

// POIs returns the OSM nodes tagged with value in country. Inputs are
// validated before they reach the query.
func (s *Store) POIs(ctx context.Context, country, value string) (POISet, error) {
	country, err := validation.ValidateCountryCode(country)
	if err != nil {
		return POISet{}, err
	}
	value, err = validation.ValidateToken(value, 64)
	if err != nil {
		return POISet{}, err
	}
	key, ok := TagKey(value)
	if !ok {
		return POISet{}, fmt.Errorf("%w: %s", errUnknownTag, value)
	}
	res, err := s.fetcher.Fetch(ctx, osmCacheKey(country, key, value), 0, func(ctx context.Context) ([]byte, error) {
		form := url.Values{"data": {OverpassQuery(country, key, value)}}
		body, err := s.overpass.PostForm(ctx, "overpass", s.opts.OverpassURL, form)
		if err != nil {
			return nil, err
		}
		set, err := ParseOverpass(body)
		if err != nil {
			return nil, err
		}
		return json.Marshal(set)
	})
	if err != nil {
		return POISet{}, err
	}
	var set POISet
	if err := json.Unmarshal(res.Data, &set); err != nil {
		return POISet{}, fmt.Errorf("decode cached osm result: %w", err)
	}
	return set, nil
}

// ParseOverpass extracts node names, coordinates and websites from an
// Overpass JSON response. Nodes without a name are "n/a".
func ParseOverpass(body []byte) (POISet, error) {
	if !gjson.ValidBytes(body) {
		return POISet{}, errors.New("parse overpass response: invalid json")
	}
	set := POISet{Names: []string{}, Longs: []float64{}, Lats: []float64{}, Websites: []string{}}
	gjson.GetBytes(body, `elements.#(type=="node")#`).ForEach(func(_, el gjson.Result) bool {
		name := el.Get("tags.name").String()
		if name == "" {
			name = "n/a"
		}
		set.Names = append(set.Names, name)
		set.Longs = append(set.Longs, el.Get("lon").Float())
		set.Lats = append(set.Lats, el.Get("lat").Float())
		set.Websites = append(set.Websites, el.Get("tags.website").String())
		return true
	})
	return set, nil
}
