package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
	_ "modernc.org/sqlite"
)

// ErrNotGeoPackageGeometry is returned for blobs without the "GP" header.
var ErrNotGeoPackageGeometry = errors.New("not a geopackage geometry blob")

// Layer is the feature table of a GeoPackage.
type Layer struct {
	Table    string
	Features []Feature
	CRS      CRS
	// Skipped counts rows whose geometry could not be decoded.
	Skipped int
}

// ReadGeoPackage reads the feature table named table (or the first one
// registered when table is empty) from the GeoPackage at path. Coordinates
// are returned as stored together with the layer CRS.
func ReadGeoPackage(ctx context.Context, path, table string) (*Layer, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open geopackage %s: %w", path, err)
	}
	defer db.Close()

	var geomCol string
	var srsID int
	q := `SELECT table_name, column_name, srs_id FROM gpkg_geometry_columns`
	args := []any{}
	if table != "" {
		q += ` WHERE table_name = ?`
		args = append(args, table)
	}
	q += ` LIMIT 1`
	if err := db.QueryRowContext(ctx, q, args...).Scan(&table, &geomCol, &srsID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("geopackage %s: no feature table %q", path, table)
		}
		return nil, fmt.Errorf("geopackage %s: read geometry columns: %w", path, err)
	}

	layer := &Layer{Table: table}
	if crs, ok := ParseCRS(strconv.Itoa(srsID)); ok {
		layer.CRS = crs
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(`SELECT * FROM %q`, table))
	if err != nil {
		return nil, fmt.Errorf("geopackage %s: query %s: %w", path, table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("geopackage %s: scan: %w", path, err)
		}
		f := Feature{Attributes: make(map[string]string, len(cols)-1)}
		for i, col := range cols {
			if col == geomCol {
				blob, _ := values[i].([]byte)
				g, err := DecodeGeoPackageGeometry(blob)
				if err != nil {
					layer.Skipped++
					f.Geometry = nil
					continue
				}
				f.Geometry = g
				continue
			}
			f.Attributes[col] = attributeString(values[i])
		}
		if f.Geometry == nil {
			continue
		}
		layer.Features = append(layer.Features, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("geopackage %s: rows: %w", path, err)
	}
	return layer, nil
}

// DecodeGeoPackageGeometry strips the GeoPackage binary header (magic,
// version, flags, srs id and optional envelope) and decodes the WKB body.
func DecodeGeoPackageGeometry(b []byte) (orb.Geometry, error) {
	if len(b) < 8 || b[0] != 'G' || b[1] != 'P' {
		return nil, ErrNotGeoPackageGeometry
	}
	flags := b[3]
	var envelope int
	switch (flags >> 1) & 0x07 {
	case 0:
		envelope = 0
	case 1:
		envelope = 32
	case 2, 3:
		envelope = 48
	case 4:
		envelope = 64
	default:
		return nil, fmt.Errorf("invalid geopackage envelope flag %d", (flags>>1)&0x07)
	}
	if len(b) < 8+envelope {
		return nil, fmt.Errorf("geopackage geometry truncated: %d bytes", len(b))
	}
	if flags&0x10 != 0 {
		return nil, errors.New("empty geopackage geometry")
	}
	g, err := wkb.Unmarshal(b[8+envelope:])
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	return g, nil
}

func attributeString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
