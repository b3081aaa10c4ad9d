package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kjstillabower/geo-data-maps/internal/observability"
)

// KeyWarmer is implemented by the dataset layer to load one warm key
// (e.g. "osm:CH:books" or "zueri:72") through the cache.
// Used by CacheWarmer to avoid a dependency on the dataset package.
type KeyWarmer interface {
	WarmKey(ctx context.Context, key string) error
}

// CacheWarmer warms the cache by prefetching a list of keys.
type CacheWarmer struct {
	warmer      KeyWarmer
	logger      *zap.Logger
	concurrency int
}

// NewCacheWarmer creates a CacheWarmer. concurrency bounds parallel upstream
// calls; values below 1 mean one at a time.
func NewCacheWarmer(warmer KeyWarmer, logger *zap.Logger, concurrency int) *CacheWarmer {
	if concurrency < 1 {
		concurrency = 1
	}
	return &CacheWarmer{warmer: warmer, logger: logger, concurrency: concurrency}
}

// Warm loads every key and returns the joined errors of the keys that failed.
// A failing key does not stop the others.
func (w *CacheWarmer) Warm(ctx context.Context, keys []string) error {
	start := time.Now()
	observability.CacheWarmingTotal.Inc()
	if w.logger != nil {
		w.logger.Info("warming cache", zap.Int("keys", len(keys)))
	}

	var (
		mu   sync.Mutex
		errs []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := w.warmer.WarmKey(gctx, key); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("warm %s: %w", key, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	duration := time.Since(start).Seconds()
	observability.CacheWarmingDurationSeconds.Observe(duration)
	if w.logger != nil {
		w.logger.Info("cache warming complete", zap.Int("keys", len(keys)), zap.Int("errors", len(errs)), zap.Float64("duration_seconds", duration))
	}
	if len(errs) > 0 {
		observability.CacheWarmingErrorsTotal.Inc()
		return fmt.Errorf("cache warming: %w", errors.Join(errs...))
	}
	return nil
}

// WarmPeriodic runs an initial Warm, then refreshes at the given interval until ctx is done.
func (w *CacheWarmer) WarmPeriodic(ctx context.Context, keys []string, interval time.Duration) error {
	if err := w.Warm(ctx, keys); err != nil && w.logger != nil {
		w.logger.Warn("initial cache warm failed", zap.Error(err))
	}
	if interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Warm(ctx, keys); err != nil && w.logger != nil {
				w.logger.Warn("periodic cache warm failed", zap.Error(err))
			}
		}
	}
}
