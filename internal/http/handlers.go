package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/geo-data-maps/internal/degraded"
	"github.com/kjstillabower/geo-data-maps/internal/lifecycle"
	"github.com/kjstillabower/geo-data-maps/internal/observability"
	"github.com/kjstillabower/geo-data-maps/internal/pages"
	"github.com/kjstillabower/geo-data-maps/internal/traffic"
	"github.com/kjstillabower/geo-data-maps/internal/web"
)

// HealthConfig holds lifecycle thresholds for the health handler.
type HealthConfig struct {
	OverloadWindow       time.Duration
	OverloadThresholdPct int
	RateLimitRPS         int
	RateLimitBurst       int // 0 when rate limiter disabled
	DegradedWindow       time.Duration
	DegradedErrorPct     int
	// CachePing, when set, is called to check cache reachability.
	CachePing func() error
}

// Handler serves the page shell and the page API.
type Handler struct {
	registry         *pages.Registry
	shell            *web.Shell
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(registry *pages.Registry, shell *web.Shell, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	return &Handler{
		registry:     registry,
		shell:        shell,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// GetShell handles GET / and GET <page path>: the HTML layout of the page.
func (h *Handler) GetShell(w http.ResponseWriter, r *http.Request) {
	nav := h.registry.Metas()
	page, ok := h.registry.ByPath(r.URL.Path)
	status := http.StatusOK
	var v web.View
	if ok {
		v = web.NewView(nav, page.Meta())
	} else {
		status = http.StatusNotFound
		v = web.NewView(nav, pages.Meta{Title: "Page not found"})
		v.NotFound = true
		v.HasMap = false
	}
	if err := h.shell.Render(w, status, v); err != nil {
		requestLogger(r, h.logger).Error("render shell", zap.String("path", r.URL.Path), zap.Error(err))
	}
}

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	metas := h.registry.Metas()
	out := make([]map[string]interface{}, len(metas))
	for i, m := range metas {
		out[i] = map[string]interface{}{"slug": m.Slug(), "meta": m}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"pages": out})
}

// lookup resolves the {slug} route variable, writing a 404 when unknown.
func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (pages.Page, string, bool) {
	slug := mux.Vars(r)["slug"]
	page, ok := h.registry.Lookup(slug)
	if !ok {
		writeError(w, r, http.StatusNotFound, "PAGE_NOT_FOUND", "unknown page: "+slug)
		return nil, slug, false
	}
	return page, slug, true
}

// GetControls handles GET /api/pages/{slug}/controls.
func (h *Handler) GetControls(w http.ResponseWriter, r *http.Request) {
	page, slug, ok := h.lookup(w, r)
	if !ok {
		return
	}
	controls, err := page.Controls(r.Context())
	if err != nil {
		degraded.RecordError()
		writeServiceError(w, r, slug, err)
		return
	}
	if controls == nil {
		controls = []pages.Control{}
	}
	_, hasTable := page.(pages.TablePage)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"controls": controls,
		"hasTable": hasTable,
	})
}

// GetFigure handles GET /api/pages/{slug}/figure. Query parameters are the
// control values; checklists repeat the parameter and an empty value clears them.
func (h *Handler) GetFigure(w http.ResponseWriter, r *http.Request) {
	page, slug, ok := h.lookup(w, r)
	if !ok {
		return
	}
	start := time.Now()
	controls, err := page.Controls(r.Context())
	if err != nil {
		h.recordFigure(slug, "error", start)
		writeServiceError(w, r, slug, err)
		return
	}
	values := pages.Resolve(controls, r.URL.Query())
	fig, err := page.Figure(r.Context(), values)
	switch {
	case errors.Is(err, pages.ErrNoFigure):
		writeError(w, r, http.StatusNotFound, "NO_FIGURE", "page has no map")
		return
	case err != nil:
		h.recordFigure(slug, "error", start)
		writeServiceError(w, r, slug, err)
		return
	}
	h.recordFigure(slug, "ok", start)
	requestLogger(r, h.logger).Debug("figure rendered",
		zap.String("page", slug),
		zap.Int("traces", len(fig.Traces)),
		zap.Int("points", fig.PointCount()),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, fig)
}

func (h *Handler) recordFigure(slug, result string, start time.Time) {
	observability.FigureRendersTotal.WithLabelValues(slug, result).Inc()
	observability.FigureRenderDuration.WithLabelValues(slug).Observe(time.Since(start).Seconds())
	if result == "ok" {
		degraded.RecordSuccess()
		return
	}
	degraded.RecordError()
	if hc := h.healthConfig; hc != nil && degraded.IsDegraded(hc.DegradedWindow, hc.DegradedErrorPct) {
		degraded.NotifyDegraded()
	}
}

// GetTable handles GET /api/pages/{slug}/table.
func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	page, slug, ok := h.lookup(w, r)
	if !ok {
		return
	}
	tp, ok := page.(pages.TablePage)
	if !ok {
		writeError(w, r, http.StatusNotFound, "NO_TABLE", "page has no table")
		return
	}
	table, err := tp.Table(r.Context())
	if err != nil {
		degraded.RecordError()
		writeServiceError(w, r, slug, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"upstreams": "healthy"}
	if result.status == "degraded" {
		checks["upstreams"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   "geo-data-maps",
		"version":   "dev",
		"pages":     len(h.registry.Pages()),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > overloaded > degraded > starting > healthy.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if h.healthConfig != nil {
		if h.healthConfig.RateLimitRPS > 0 && h.healthConfig.OverloadWindow > 0 {
			threshold := float64(h.healthConfig.RateLimitRPS) * h.healthConfig.OverloadWindow.Seconds() * float64(h.healthConfig.OverloadThresholdPct) / 100
			if float64(traffic.DenialCount(h.healthConfig.OverloadWindow)) > threshold {
				return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
			}
		}
		if degraded.IsDegraded(h.healthConfig.DegradedWindow, h.healthConfig.DegradedErrorPct) {
			return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
		}
	}
	// Pages answer during preload, so starting is still reported as 200.
	if lifecycle.IsStarting() {
		return healthResult{"starting", http.StatusOK, "preload"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes {"error":{"code","message","requestId"}}.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}

// writeServiceError answers a failed callback with 503 and logs the cause.
// The upstream error text never reaches the client.
func writeServiceError(w http.ResponseWriter, r *http.Request, slug string, err error) {
	status, code, msg := http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "Unable to load map data"
	if errors.Is(err, context.DeadlineExceeded) {
		status, code, msg = http.StatusGatewayTimeout, "TIMEOUT", "Map data took too long to load"
	}
	writeError(w, r, status, code, msg)
	requestLogger(r, nil).Warn("page callback failed", zap.String("page", slug), zap.Error(err))
}

func correlationID(r *http.Request) string {
	if v, ok := r.Context().Value("correlation_id").(string); ok {
		return v
	}
	return ""
}

// requestLogger returns the request-scoped logger, else fallback, else a no-op logger.
func requestLogger(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if logger, ok := r.Context().Value("logger").(*zap.Logger); ok && logger != nil {
		return logger
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}
