package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/kjstillabower/geo-data-maps/internal/circuitbreaker"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
)

// Fetcher retrieves raw upstream payloads. source names the upstream
// ("overpass", "zueri", "ev_static", "ev_status") for metrics and breakers.
type Fetcher interface {
	Get(ctx context.Context, source, rawURL string) ([]byte, error)
	PostForm(ctx context.Context, source, rawURL string, form url.Values) ([]byte, error)
}

var (
	ErrNotFound        = errors.New("upstream resource not found")
	ErrBadRequest      = errors.New("upstream rejected request")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
)

// maxBodyBytes caps a single upstream response. The OICP static feed for
// Switzerland is the largest payload at roughly 100 MB.
const maxBodyBytes = 512 << 20

// Config holds HTTP client parameters.
type Config struct {
	Timeout        time.Duration
	RetryAttempts  int
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration
	UserAgent      string
	// Breaker, when non-nil, is the template for one circuit breaker per source.
	Breaker *circuitbreaker.Config
}

// HTTPClient implements Fetcher over net/http with retry, exponential backoff
// with jitter and an optional per-source circuit breaker.
type HTTPClient struct {
	client         *http.Client
	timeout        time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	userAgent      string

	breakerCfg *circuitbreaker.Config
	mu         sync.Mutex
	breakers   map[string]*circuitbreaker.CircuitBreaker
}

// NewHTTPClient creates an HTTPClient. Zero values fall back to a 30s timeout,
// 3 attempts and 500ms..10s backoff.
func NewHTTPClient(cfg Config) *HTTPClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 500 * time.Millisecond
	}
	if cfg.RetryMaxDelay <= 0 {
		cfg.RetryMaxDelay = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "geo-data-maps"
	}
	return &HTTPClient{
		client:         &http.Client{},
		timeout:        cfg.Timeout,
		retryAttempts:  cfg.RetryAttempts,
		retryBaseDelay: cfg.RetryBaseDelay,
		retryMaxDelay:  cfg.RetryMaxDelay,
		userAgent:      cfg.UserAgent,
		breakerCfg:     cfg.Breaker,
		breakers:       make(map[string]*circuitbreaker.CircuitBreaker),
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, source, rawURL string) ([]byte, error) {
	return c.do(ctx, source, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	})
}

// PostForm performs a POST with a form-encoded body (Overpass interpreter).
func (c *HTTPClient) PostForm(ctx context.Context, source, rawURL string, form url.Values) ([]byte, error) {
	encoded := form.Encode()
	return c.do(ctx, source, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
}

// Breaker returns the circuit breaker for source, or nil when breakers are disabled.
func (c *HTTPClient) Breaker(source string) *circuitbreaker.CircuitBreaker {
	if c.breakerCfg == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.breakers[source]
	if !ok {
		cfg := *c.breakerCfg
		cfg.Component = source
		if cfg.IsFailure == nil {
			cfg.IsFailure = countsAsFailure
		}
		cb = circuitbreaker.New(cfg)
		c.breakers[source] = cb
	}
	return cb
}

// countsAsFailure keeps caller mistakes and caller cancellation from opening a breaker.
func countsAsFailure(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrBadRequest) && !errors.Is(err, context.Canceled)
}

func (c *HTTPClient) do(ctx context.Context, source string, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	cb := c.Breaker(source)
	if cb == nil {
		return c.withRetry(ctx, source, build)
	}
	var body []byte
	err := cb.Call(ctx, func() error {
		var err error
		body, err = c.withRetry(ctx, source, build)
		return err
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return body, err
}

func (c *HTTPClient) withRetry(ctx context.Context, source string, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < c.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.UpstreamRetriesTotal.WithLabelValues(source).Inc()
			delay := c.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		body, err := c.call(ctx, source, build)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if ctx.Err() != nil || !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *HTTPClient) call(ctx context.Context, source string, build func(context.Context) (*http.Request, error)) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(source, "error").Inc()
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if corrID := extractCorrelationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.UpstreamCallsTotal.WithLabelValues(source, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(source, "error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	if err := handleErrorResponse(resp); err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(source, status).Inc()
		observability.UpstreamDuration.WithLabelValues(source, status).Observe(time.Since(start).Seconds())
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	duration := time.Since(start).Seconds()
	if err != nil {
		observability.UpstreamCallsTotal.WithLabelValues(source, "error").Inc()
		observability.UpstreamDuration.WithLabelValues(source, "error").Observe(duration)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("read response body: %w", err)
	}
	observability.UpstreamCallsTotal.WithLabelValues(source, status).Inc()
	observability.UpstreamDuration.WithLabelValues(source, status).Observe(duration)
	return body, nil
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

func (c *HTTPClient) calculateBackoff(attempt int) time.Duration {
	delay := float64(c.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.retryMaxDelay) {
		delay = float64(c.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: HTTP %d", ErrNotFound, resp.StatusCode)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: HTTP %d", ErrBadRequest, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

func extractCorrelationID(ctx context.Context) string {
	if corrIDVal := ctx.Value("correlation_id"); corrIDVal != nil {
		if corrID, ok := corrIDVal.(string); ok {
			return corrID
		}
	}
	return ""
}

func statusLabel(statusCode int) string {
	if statusCode >= 200 && statusCode < 300 {
		return "success"
	}
	if statusCode == 429 {
		return "rate_limited"
	}
	if statusCode >= 400 && statusCode < 500 {
		return "client_error"
	}
	if statusCode >= 500 {
		return "server_error"
	}
	return "error"
}
