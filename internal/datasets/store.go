// Package datasets loads the map datasets: static files from the data
// directory and remote feeds through the cache-aside fetcher.
package datasets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kjstillabower/geo-data-maps/internal/client"
	"github.com/kjstillabower/geo-data-maps/internal/models"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
	"github.com/kjstillabower/geo-data-maps/internal/service"
)

// ErrUnknownWarmKey is returned by WarmKey for keys no loader owns.
var ErrUnknownWarmKey = errors.New("unknown warm key")

// Files names the static inputs. Relative paths resolve against Options.DataDir.
type Files struct {
	Antennas     string
	AntennasPrep string
	Mobile       string
	Wind         string
	Landscape    string
	EVStations   string
	Kantone      string
	Bezirke      string
	Gemeinden    string
	KantoneShp   string
	BezirkeShp   string
	GemeindenShp string
}

// Options configures a Store.
type Options struct {
	DataDir string
	Files   Files

	OverpassURL string
	ZueriURL    string
	EVStaticURL string
	EVStatusURL string
	// EVStatusTTL is the freshness window of the live status feed.
	EVStatusTTL time.Duration
	// RegionLayers bounds how many region levels stay decoded in memory.
	RegionLayers int
}

// Store is the single entry point pages use to obtain data.
type Store struct {
	opts     Options
	fetcher  *service.CachedFetcher
	upstream client.Fetcher
	overpass client.Fetcher
	logger   *zap.Logger

	regions *lru.Cache[RegionLevel, []models.Region]
	group   singleflight.Group

	mu     sync.Mutex
	static map[string]any
}

// New creates a Store. overpass may be nil, in which case upstream serves
// Overpass queries too.
func New(opts Options, fetcher *service.CachedFetcher, upstream, overpass client.Fetcher, logger *zap.Logger) (*Store, error) {
	if opts.RegionLayers <= 0 {
		opts.RegionLayers = 3
	}
	if opts.EVStatusTTL <= 0 {
		opts.EVStatusTTL = 5 * time.Minute
	}
	if overpass == nil {
		overpass = upstream
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.EVStatusURL == "" {
		logger.Info("ev status feed not configured, charging points report Unknown")
	}
	regions, err := lru.New[RegionLevel, []models.Region](opts.RegionLayers)
	if err != nil {
		return nil, fmt.Errorf("region cache: %w", err)
	}
	return &Store{
		opts:     opts,
		fetcher:  fetcher,
		upstream: upstream,
		overpass: overpass,
		logger:   logger,
		regions:  regions,
		static:   make(map[string]any),
	}, nil
}

// path resolves a dataset file name against the data directory.
func (s *Store) path(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.opts.DataDir, name)
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// log returns the request-scoped logger when ctx carries one.
func (s *Store) log(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return s.logger
}

// loadStatic returns the memoized value of name, running load once. Failed
// loads are not memoized. Concurrent first calls share one load.
func loadStatic[T any](s *Store, name string, load func() (T, error)) (T, error) {
	s.mu.Lock()
	if v, ok := s.static[name]; ok {
		s.mu.Unlock()
		return v.(T), nil
	}
	s.mu.Unlock()

	v, err, _ := s.group.Do("static:"+name, func() (any, error) {
		start := time.Now()
		v, err := load()
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.static[name] = v
		s.mu.Unlock()
		s.logger.Info("dataset loaded", zap.String("dataset", name), zap.Duration("duration", time.Since(start)))
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, fmt.Errorf("load %s: %w", name, err)
	}
	return v.(T), nil
}

func recordCount(dataset string, n int) {
	observability.DatasetRecords.WithLabelValues(dataset).Set(float64(n))
}

// StartupKeys are the warm keys of the datasets every page start needs:
// the static files and the Kantone layer.
var StartupKeys = []string{"antennas", "mobile", "wind", "landscape", "ev", "regions:Kantone"}

// WarmKey loads one configured warm key through the cache. Keys:
// "osm:<CC>:<tag value>", "zueri:endpoints", "zueri:<id>", "ev",
// "regions:<level>", and the static names "antennas", "mobile", "wind",
// "landscape".
func (s *Store) WarmKey(ctx context.Context, key string) error {
	parts := strings.Split(strings.TrimSpace(key), ":")
	var err error
	switch {
	case len(parts) == 3 && parts[0] == "osm":
		_, err = s.POIs(ctx, parts[1], parts[2])
	case len(parts) == 2 && parts[0] == "zueri" && parts[1] == "endpoints":
		_, err = s.ZueriEndpoints(ctx)
	case len(parts) == 2 && parts[0] == "zueri":
		_, err = s.ZueriItems(ctx, parts[1])
	case len(parts) == 2 && parts[0] == "regions":
		level, ok := ParseRegionLevel(parts[1])
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownWarmKey, key)
		}
		_, err = s.Regions(ctx, level)
	case len(parts) == 1 && parts[0] == "ev":
		_, err = s.EVStations(ctx)
	case len(parts) == 1 && parts[0] == "antennas":
		_, err = s.Antennas(ctx)
	case len(parts) == 1 && parts[0] == "mobile":
		_, err = s.MobileAntennas(ctx)
	case len(parts) == 1 && parts[0] == "wind":
		_, err = s.Turbines(ctx)
	case len(parts) == 1 && parts[0] == "landscape":
		_, err = s.Landscape(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownWarmKey, key)
	}
	return err
}
