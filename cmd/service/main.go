package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/geo-data-maps/internal/cache"
	"github.com/kjstillabower/geo-data-maps/internal/circuitbreaker"
	"github.com/kjstillabower/geo-data-maps/internal/client"
	"github.com/kjstillabower/geo-data-maps/internal/config"
	"github.com/kjstillabower/geo-data-maps/internal/datasets"
	"github.com/kjstillabower/geo-data-maps/internal/degraded"
	httphandler "github.com/kjstillabower/geo-data-maps/internal/http"
	"github.com/kjstillabower/geo-data-maps/internal/lifecycle"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
	"github.com/kjstillabower/geo-data-maps/internal/pages"
	"github.com/kjstillabower/geo-data-maps/internal/service"
	"github.com/kjstillabower/geo-data-maps/internal/web"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	if err := ensureTempDir(cfg.TempDir, logger); err != nil {
		logger.Fatal("temp directory", zap.String("path", cfg.TempDir), zap.Error(err))
	}

	var breaker *circuitbreaker.Config
	if cfg.CircuitBreakerEnabled {
		breaker = &circuitbreaker.Config{
			FailureThreshold: cfg.CircuitBreakerFailureThreshold,
			SuccessThreshold: cfg.CircuitBreakerSuccessThreshold,
			Timeout:          cfg.CircuitBreakerTimeout,
			OnStateChange: func(component string, from, to circuitbreaker.State) {
				observability.RecordCircuitBreakerTransition(component, from.String(), to.String(), int(to))
				logger.Warn("circuit breaker transition",
					zap.String("component", component),
					zap.String("from", from.String()),
					zap.String("to", to.String()))
			},
		}
		logger.Info("circuit breaker enabled",
			zap.Int("failure_threshold", cfg.CircuitBreakerFailureThreshold),
			zap.Duration("timeout", cfg.CircuitBreakerTimeout))
	}
	clientCfg := client.Config{
		Timeout:        cfg.UpstreamTimeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
		RetryMaxDelay:  cfg.RetryMaxDelay,
		Breaker:        breaker,
	}
	upstream := client.NewHTTPClient(clientCfg)
	// Overpass queries run for minutes; they get their own timeout.
	overpassCfg := clientCfg
	overpassCfg.Timeout = cfg.OverpassTimeout
	overpass := client.NewHTTPClient(overpassCfg)

	cacheSvc, memcacheCloser, err := newCache(cfg, logger)
	if err != nil {
		logger.Fatal("cache", zap.String("backend", cfg.CacheBackend), zap.Error(err))
	}
	fetcher := service.NewCachedFetcher(cacheSvc, service.Options{
		TTL:             cfg.CacheTTL,
		StaleTTL:        cfg.StaleCacheTTL,
		CoalesceEnabled: cfg.CoalesceEnabled,
		CoalesceTimeout: cfg.CoalesceTimeout,
	})

	ds := cfg.Datasets
	store, err := datasets.New(datasets.Options{
		DataDir: cfg.DataDir,
		Files: datasets.Files{
			Antennas:     ds.Antennas,
			AntennasPrep: ds.AntennasPrep,
			Mobile:       ds.Mobile,
			Wind:         ds.Wind,
			Landscape:    ds.Landscape,
			EVStations:   ds.EVStations,
			Kantone:      ds.Kantone,
			Bezirke:      ds.Bezirke,
			Gemeinden:    ds.Gemeinden,
			KantoneShp:   ds.KantoneShp,
			BezirkeShp:   ds.BezirkeShp,
			GemeindenShp: ds.GemeindenShp,
		},
		OverpassURL:  cfg.OverpassURL,
		ZueriURL:     cfg.ZueriURL,
		EVStaticURL:  cfg.EVStaticURL,
		EVStatusURL:  cfg.EVStatusURL,
		EVStatusTTL:  cfg.EVStatusTTL,
		RegionLayers: cfg.RegionCacheSize,
	}, fetcher, upstream, overpass, logger)
	if err != nil {
		logger.Fatal("datasets", zap.Error(err))
	}

	registry, err := pages.NewDefault(store, pages.Options{
		MapboxToken: cfg.MapboxToken,
		Tolerance:   cfg.SimplifyTolerance,
	})
	if err != nil {
		logger.Fatal("page registry", zap.Error(err))
	}
	for _, m := range registry.Metas() {
		logger.Debug("page registered", zap.String("path", m.Path), zap.String("title", m.Title))
	}
	if cfg.MapboxToken == "" {
		logger.Info("no mapbox token; landscape page uses carto-positron tiles")
	}

	shell, err := web.NewShell()
	if err != nil {
		logger.Fatal("templates", zap.Error(err))
	}

	healthConfig := &httphandler.HealthConfig{
		OverloadWindow:       cfg.OverloadWindow,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
		RateLimitBurst:       cfg.RateLimitBurst,
		DegradedWindow:       cfg.DegradedWindow,
		DegradedErrorPct:     cfg.DegradedErrorPct,
	}
	if p, ok := cacheSvc.(cache.Pinger); ok {
		healthConfig.CachePing = p.Ping
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	observability.RegisterRateLimitGauges(cfg.OverloadWindow)

	handler := httphandler.NewHandler(registry, shell, healthConfig, logger)
	router := httphandler.NewRouter(handler, logger, httphandler.RouterConfig{
		Limiter:        limiter,
		RequestTimeout: cfg.RequestTimeout,
	})

	appCtx, cancelApp := context.WithCancel(context.Background())
	defer cancelApp()

	// Static datasets and configured keys load in the background; pages
	// answer meanwhile and load on demand.
	warmer := cache.NewCacheWarmer(store, logger, cfg.WarmConcurrency)
	warmKeys := append(append([]string{}, datasets.StartupKeys...), cfg.WarmKeys...)
	lifecycle.SetStarting(true)
	go func() {
		if err := warmer.Warm(appCtx, warmKeys); err != nil {
			logger.Warn("startup preload incomplete", zap.Error(err))
		}
		lifecycle.SetStarting(false)
		if cfg.WarmInterval > 0 && len(cfg.WarmKeys) > 0 {
			if err := warmer.WarmPeriodic(appCtx, cfg.WarmKeys, cfg.WarmInterval); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("periodic cache warming stopped", zap.Error(err))
			}
		}
	}()

	// Degraded figures trigger a re-warm of the same keys; the first
	// complete warm clears the error window.
	degraded.StartRecoveryListener(appCtx, func(ctx context.Context) error {
		logger.Info("degraded, attempting recovery")
		return warmer.Warm(ctx, warmKeys)
	}, cfg.DegradedRetryInitial, cfg.DegradedRetryMax, func() {
		logger.Error("recovery attempts exhausted, still degraded",
			zap.Duration("max_delay", cfg.DegradedRetryMax))
	})

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// Figures of the large region layers take long to build and send.
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr), zap.Int("pages", len(registry.Pages())))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.SetShuttingDown(true)
	cancelApp()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	if err := httphandler.WaitForInFlight(shutdownCtx, 100*time.Millisecond); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}

// ensureTempDir creates the file cache directory when absent and logs which
// case applied.
func ensureTempDir(dir string, logger *zap.Logger) error {
	if _, err := os.Stat(dir); err == nil {
		logger.Info("temp directory exists", zap.String("path", dir))
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	logger.Info("temp directory created", zap.String("path", dir))
	return nil
}

// newCache builds the configured cache backend. The memcached cache is also
// returned on its own so main can close it.
func newCache(cfg *config.Config, logger *zap.Logger) (cache.Cache, *cache.MemcachedCache, error) {
	retention := cfg.CacheTTL + cfg.StaleCacheTTL
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns, retention)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
		return mc, mc, nil
	case "in_memory":
		logger.Info("cache backend: in_memory")
		return cache.NewInMemoryCache(retention), nil, nil
	default:
		fc, err := cache.NewFileCache(cfg.TempDir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("cache backend: file", zap.String("dir", fc.Dir()))
		return fc, nil, nil
	}
}
