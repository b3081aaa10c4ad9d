package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort     string
	RequestTimeout time.Duration

	// DataDir holds the static datasets (shapefiles, GeoJSON, CSV, GeoPackage).
	DataDir string
	// TempDir is the file cache directory.
	TempDir string

	Datasets Datasets

	OverpassURL     string
	ZueriURL        string
	EVStaticURL     string
	EVStatusURL     string
	UpstreamTimeout time.Duration
	OverpassTimeout time.Duration

	CacheBackend          string // "file", "in_memory" or "memcached"
	CacheTTL              time.Duration
	StaleCacheTTL         time.Duration
	EVStatusTTL           time.Duration
	CoalesceEnabled       bool
	CoalesceTimeout       time.Duration
	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int
	RegionCacheSize       int

	WarmKeys        []string
	WarmInterval    time.Duration
	WarmConcurrency int

	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	ShutdownTimeout      time.Duration
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// DegradedRetryInitial and DegradedRetryMax bound the Fibonacci delays
	// between recovery attempts while degraded.
	DegradedRetryInitial time.Duration
	DegradedRetryMax     time.Duration

	// SimplifyTolerance simplifies region polygons before they are sent (degrees, 0 = off).
	SimplifyTolerance float64

	// MapboxToken enables the satellite base map on the landscape page.
	MapboxToken string
}

// Datasets names the static input files, relative to DataDir.
type Datasets struct {
	Antennas     string
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
	AntennasPrep string
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Data struct {
		Dir      string `yaml:"dir"`
		TempDir  string `yaml:"temp_dir"`
		Datasets struct {
			Antennas     string `yaml:"antennas"`
			AntennasPrep string `yaml:"antennas_prepared"`
			Mobile       string `yaml:"mobile"`
			Wind         string `yaml:"wind"`
			Landscape    string `yaml:"landscape"`
			EVStations   string `yaml:"ev_stations"`
			Kantone      string `yaml:"kantone"`
			Bezirke      string `yaml:"bezirke"`
			Gemeinden    string `yaml:"gemeinden"`
			KantoneShp   string `yaml:"kantone_shp"`
			BezirkeShp   string `yaml:"bezirke_shp"`
			GemeindenShp string `yaml:"gemeinden_shp"`
		} `yaml:"datasets"`
	} `yaml:"data"`

	Upstream struct {
		OverpassURL     string `yaml:"overpass_url"`
		ZueriURL        string `yaml:"zueri_url"`
		EVStaticURL     string `yaml:"ev_static_url"`
		EVStatusURL     string `yaml:"ev_status_url"`
		Timeout         string `yaml:"timeout"`
		OverpassTimeout string `yaml:"overpass_timeout"`
	} `yaml:"upstream"`

	Cache struct {
		Backend         string `yaml:"backend"`
		TTL             string `yaml:"ttl"`
		StaleTTL        string `yaml:"stale_ttl"`
		EVStatusTTL     string `yaml:"ev_status_ttl"`
		CoalesceEnabled *bool  `yaml:"coalesce_enabled"`
		CoalesceTimeout string `yaml:"coalesce_timeout"`
		RegionLayers    int    `yaml:"region_layers"`
		Memcached       struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Warm struct {
			Keys        []string `yaml:"keys"`
			Interval    string   `yaml:"interval"`
			Concurrency int      `yaml:"concurrency"`
		} `yaml:"warm"`
	} `yaml:"cache"`

	Reliability struct {
		RetryMaxAttempts int    `yaml:"retry_max_attempts"`
		RetryBaseDelay   string `yaml:"retry_base_delay"`
		RetryMaxDelay    string `yaml:"retry_max_delay"`
		RateLimitRPS     int    `yaml:"rate_limit_rps"`
		RateLimitBurst   int    `yaml:"rate_limit_burst"`
		CircuitBreaker   struct {
			Enabled          *bool  `yaml:"enabled"`
			FailureThreshold int    `yaml:"failure_threshold"`
			SuccessThreshold int    `yaml:"success_threshold"`
			Timeout          string `yaml:"timeout"`
		} `yaml:"circuit_breaker"`
	} `yaml:"reliability"`

	Map struct {
		SimplifyTolerance *float64 `yaml:"simplify_tolerance"`
	} `yaml:"map"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		OverloadWindow       string `yaml:"overload_window"`
		OverloadThresholdPct int    `yaml:"overload_threshold_pct"`
		DegradedWindow       string `yaml:"degraded_window"`
		DegradedErrorPct     int    `yaml:"degraded_error_pct"`
		DegradedRetryInitial string `yaml:"degraded_retry_initial"`
		DegradedRetryMax     string `yaml:"degraded_retry_max"`
	} `yaml:"lifecycle"`
}

type secretsFile struct {
	MapboxToken string `yaml:"mapbox_token"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) in the
// working directory. A .env file there is loaded first without overriding the
// process environment. MAPBOX_TOKEN comes from env or config/secrets.yaml.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	return LoadFrom(cwd)
}

// LoadFrom is Load rooted at dir instead of the working directory.
func LoadFrom(dir string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(dir, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = strings.TrimSpace(os.Getenv("PORT"))
	if cfg.ServerPort == "" {
		cfg.ServerPort = fc.Server.Port
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8050"
	}
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 90*time.Second)

	cfg.DataDir = stringOr(fc.Data.Dir, "static")
	cfg.TempDir = stringOr(fc.Data.TempDir, "temp")
	ds := fc.Data.Datasets
	cfg.Datasets = Datasets{
		Antennas:     stringOr(ds.Antennas, "antennenstandorte-5g_de.json"),
		AntennasPrep: stringOr(ds.AntennasPrep, "ant_gdf.json"),
		Mobile:       stringOr(ds.Mobile, "mobilfunk.json"),
		Wind:         stringOr(ds.Wind, "wind-turb.csv"),
		Landscape:    stringOr(ds.Landscape, "landschaft.gpkg"),
		EVStations:   stringOr(ds.EVStations, "ev_gdf.json"),
		Kantone:      stringOr(ds.Kantone, "gdf_kan.json"),
		Bezirke:      stringOr(ds.Bezirke, "gdf_bez.json"),
		Gemeinden:    stringOr(ds.Gemeinden, "gdf_gem.json"),
		KantoneShp:   stringOr(ds.KantoneShp, "Grenzen.shp/swissBOUNDARIES3D_1_5_TLM_KANTONSGEBIET.shp"),
		BezirkeShp:   stringOr(ds.BezirkeShp, "Grenzen.shp/swissBOUNDARIES3D_1_5_TLM_BEZIRKSGEBIET.shp"),
		GemeindenShp: stringOr(ds.GemeindenShp, "Grenzen.shp/swissBOUNDARIES3D_1_5_TLM_HOHEITSGEBIET.shp"),
	}

	cfg.OverpassURL = stringOr(fc.Upstream.OverpassURL, "https://overpass-api.de/api/interpreter")
	cfg.ZueriURL = stringOr(fc.Upstream.ZueriURL, "https://www.zuerich.com/en/api/v2/data")
	cfg.EVStaticURL = stringOr(fc.Upstream.EVStaticURL, "https://data.geo.admin.ch/ch.bfe.ladestellen-elektromobilitaet/data/oicp/ch.bfe.ladestellen-elektromobilitaet.json")
	cfg.EVStatusURL = stringOr(fc.Upstream.EVStatusURL, "https://data.geo.admin.ch/ch.bfe.ladestellen-elektromobilitaet/status/oicp/ch.bfe.ladestellen-elektromobilitaet.json")
	cfg.UpstreamTimeout = parseDurationOrZero(fc.Upstream.Timeout, 30*time.Second)
	cfg.OverpassTimeout = parseDuration(fc.Upstream.OverpassTimeout, 3*time.Minute)

	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "file"
	}
	cfg.CacheTTL = parseDuration(fc.Cache.TTL, 24*time.Hour)
	cfg.StaleCacheTTL = parseDurationOrZero(fc.Cache.StaleTTL, 7*24*time.Hour)
	cfg.EVStatusTTL = parseDuration(fc.Cache.EVStatusTTL, 5*time.Minute)
	cfg.CoalesceEnabled = true
	if fc.Cache.CoalesceEnabled != nil {
		cfg.CoalesceEnabled = *fc.Cache.CoalesceEnabled
	}
	cfg.CoalesceTimeout = parseDuration(fc.Cache.CoalesceTimeout, 5*time.Minute)
	cfg.RegionCacheSize = fc.Cache.RegionLayers
	if cfg.RegionCacheSize <= 0 {
		cfg.RegionCacheSize = 3
	}
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Cache.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}
	cfg.WarmKeys = fc.Cache.Warm.Keys
	cfg.WarmInterval = parseDurationOrZero(fc.Cache.Warm.Interval, 0)
	cfg.WarmConcurrency = fc.Cache.Warm.Concurrency
	if cfg.WarmConcurrency <= 0 {
		cfg.WarmConcurrency = 2
	}

	cfg.RetryAttempts = fc.Reliability.RetryMaxAttempts
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	cfg.RetryBaseDelay = parseDuration(fc.Reliability.RetryBaseDelay, 500*time.Millisecond)
	cfg.RetryMaxDelay = parseDuration(fc.Reliability.RetryMaxDelay, 10*time.Second)
	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 50
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 100
	}
	cb := fc.Reliability.CircuitBreaker
	cfg.CircuitBreakerEnabled = true
	if cb.Enabled != nil {
		cfg.CircuitBreakerEnabled = *cb.Enabled
	}
	cfg.CircuitBreakerFailureThreshold = cb.FailureThreshold
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = cb.SuccessThreshold
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 1
	}
	cfg.CircuitBreakerTimeout = parseDuration(cb.Timeout, 60*time.Second)

	cfg.SimplifyTolerance = 0.001
	if t := fc.Map.SimplifyTolerance; t != nil && *t >= 0 {
		cfg.SimplifyTolerance = *t
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.OverloadWindow = parseDuration(fc.Lifecycle.OverloadWindow, 60*time.Second)
	cfg.OverloadThresholdPct = fc.Lifecycle.OverloadThresholdPct
	if cfg.OverloadThresholdPct <= 0 {
		cfg.OverloadThresholdPct = 80
	}
	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 5*time.Minute)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 20
	}
	cfg.DegradedRetryInitial = parseDuration(fc.Lifecycle.DegradedRetryInitial, 1*time.Minute)
	cfg.DegradedRetryMax = parseDuration(fc.Lifecycle.DegradedRetryMax, 20*time.Minute)

	cfg.MapboxToken = strings.TrimSpace(os.Getenv("MAPBOX_TOKEN"))
	if cfg.MapboxToken == "" {
		token, err := readSecrets(dir)
		if err != nil {
			return nil, err
		}
		cfg.MapboxToken = token
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DatasetPath joins name onto DataDir unless name is already absolute.
func (c *Config) DatasetPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// readSecrets returns the Mapbox token from config/secrets.yaml; a missing file is not an error.
func readSecrets(dir string) (string, error) {
	secretsPath := filepath.Join(dir, "config", "secrets.yaml")
	data, err := os.ReadFile(secretsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	var sec secretsFile
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return "", fmt.Errorf("parse secrets file: %w", err)
	}
	return strings.TrimSpace(sec.MapboxToken), nil
}

func stringOr(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
// Used for parsing duration fields from YAML config with safe fallback to defaults.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation of configuration values.
// Ensures UpstreamTimeout is positive, RequestTimeout covers an Overpass query
// and CacheBackend is a valid value. Auto-adjusts RequestTimeout if needed.
func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.UpstreamTimeout {
		cfg.RequestTimeout = cfg.UpstreamTimeout + time.Second
	}
	switch cfg.CacheBackend {
	case "file", "in_memory", "memcached":
	default:
		return fmt.Errorf("cache.backend must be file, in_memory or memcached, got %q", cfg.CacheBackend)
	}
	if cfg.StaleCacheTTL < 0 {
		cfg.StaleCacheTTL = 0
	}
	return nil
}
