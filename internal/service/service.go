package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/geo-data-maps/internal/cache"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
)

// LoadFunc fetches and normalizes one dataset from its upstream. The returned
// bytes are what gets cached, so they must already be in the cached format.
type LoadFunc func(ctx context.Context) ([]byte, error)

// Result is a payload plus where it came from.
type Result struct {
	Data   []byte
	Cached bool
	Stale  bool
	Age    time.Duration
}

// staleLookupTimeout bounds the stale cache read after a failed load.
const staleLookupTimeout = 2 * time.Second

// Options configures a CachedFetcher.
type Options struct {
	// TTL is the default freshness window (24h for remote datasets).
	TTL time.Duration
	// StaleTTL is the maximum age served when the upstream fails (0 = disabled).
	StaleTTL        time.Duration
	CoalesceEnabled bool
	CoalesceTimeout time.Duration
}

// CachedFetcher implements cache-aside over raw dataset payloads: a cached
// entry younger than the TTL is reused, otherwise the loader runs and its
// result overwrites the entry. On loader failure a stale entry is served when
// one exists within StaleTTL.
type CachedFetcher struct {
	cache           cache.Cache
	ttl             time.Duration
	staleTTL        time.Duration
	stampedeTracker *stampedeTracker
	coalescer       *requestCoalescer
	now             func() time.Time
}

// NewCachedFetcher creates a CachedFetcher. A zero TTL defaults to 24h.
func NewCachedFetcher(c cache.Cache, opts Options) *CachedFetcher {
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	var coalescer *requestCoalescer
	if opts.CoalesceEnabled && opts.CoalesceTimeout > 0 {
		coalescer = newRequestCoalescer(opts.CoalesceTimeout)
	}
	return &CachedFetcher{
		cache:           c,
		ttl:             opts.TTL,
		staleTTL:        opts.StaleTTL,
		stampedeTracker: newStampedeTracker(),
		coalescer:       coalescer,
		now:             time.Now,
	}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// Fetch returns the payload for key. ttl overrides the default freshness
// window when positive (the live EV status feed uses minutes).
func (s *CachedFetcher) Fetch(ctx context.Context, key string, ttl time.Duration, load LoadFunc) (Result, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	start := time.Now()
	logger := loggerFromContext(ctx)
	source := observability.SourceLabel(key)

	getStart := time.Now()
	cached, ok, err := s.cache.Get(ctx, key, ttl)
	getDuration := time.Since(getStart).Seconds()
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("get", categorizeCacheError(err)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "error").Observe(getDuration)
		if logger != nil {
			logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		}
	} else if ok {
		observability.CacheOperationDurationSeconds.WithLabelValues("get", "success").Observe(getDuration)
		observability.CacheHitsTotal.WithLabelValues(source).Inc()
		if logger != nil {
			logger.Debug("cache hit", zap.String("key", key), zap.Duration("age", cached.Age(s.now())))
		}
		return Result{Data: cached.Data, Cached: true, Age: cached.Age(s.now())}, nil
	}
	observability.CacheMissesTotal.WithLabelValues(source).Inc()

	concurrentMisses := s.stampedeTracker.RecordMiss(key)
	defer s.stampedeTracker.Resolve(key)
	if concurrentMisses > 1 {
		observability.CacheStampedeDetectedTotal.WithLabelValues(source).Inc()
	}

	if logger != nil {
		logger.Debug("cache miss, fetching upstream", zap.String("key", key))
	}

	var data []byte
	var upstreamErr error
	if s.coalescer != nil {
		var shared bool
		data, shared, upstreamErr = s.coalescer.GetOrDo(ctx, key, func(loadCtx context.Context) ([]byte, error) {
			body, err := load(loadCtx)
			if err == nil {
				s.store(loadCtx, key, body, logger)
			}
			return body, err
		})
		if shared {
			observability.RequestCoalescingHitsTotal.WithLabelValues(source).Inc()
		}
	} else {
		data, upstreamErr = load(ctx)
		if upstreamErr == nil {
			s.store(ctx, key, data, logger)
		}
	}

	if upstreamErr != nil {
		if s.staleTTL > ttl {
			// The caller's deadline may be what failed the load.
			staleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), staleLookupTimeout)
			stale, ok, staleErr := s.cache.Get(staleCtx, key, s.staleTTL)
			cancel()
			if staleErr == nil && ok {
				staleAge := stale.Age(s.now())
				observability.StaleCacheServesTotal.WithLabelValues(source).Inc()
				observability.StaleCacheAgeSeconds.Observe(staleAge.Seconds())
				if logger != nil {
					logger.Info("serving stale cache", zap.String("key", key), zap.Duration("age", staleAge), zap.Error(upstreamErr))
				}
				return Result{Data: stale.Data, Cached: true, Stale: true, Age: staleAge}, nil
			}
		}
		return Result{}, fmt.Errorf("fetch %s: %w", key, upstreamErr)
	}

	if logger != nil {
		logger.Debug("dataset fetched", zap.String("key", key), zap.Int("bytes", len(data)), zap.Duration("duration", time.Since(start)))
	}
	return Result{Data: data}, nil
}

// store writes a fresh payload. A failed write is logged and counted but
// never fails the request.
func (s *CachedFetcher) store(ctx context.Context, key string, data []byte, logger *zap.Logger) {
	setStart := time.Now()
	if err := s.cache.Set(ctx, key, data); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("set", categorizeCacheError(err)).Inc()
		observability.CacheOperationDurationSeconds.WithLabelValues("set", "error").Observe(time.Since(setStart).Seconds())
		if logger != nil {
			logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
		return
	}
	observability.CacheOperationDurationSeconds.WithLabelValues("set", "success").Observe(time.Since(setStart).Seconds())
}

// categorizeCacheError returns a stable label for cache error metrics (timeout, connection, filesystem, unknown).
func categorizeCacheError(err error) string {
	if err == nil {
		return "unknown"
	}
	errStr := err.Error()
	if strings.Contains(errStr, "timeout") {
		return "timeout"
	}
	if strings.Contains(errStr, "connection") || strings.Contains(errStr, "network") {
		return "connection"
	}
	if strings.Contains(errStr, "permission denied") || strings.Contains(errStr, "no space left") {
		return "filesystem"
	}
	return "unknown"
}
