package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/geo-data-maps/internal/observability"
	"github.com/kjstillabower/geo-data-maps/internal/web"
)

// RouterConfig holds the middleware settings of NewRouter.
type RouterConfig struct {
	// Limiter rate-limits the page API; nil disables it.
	Limiter *rate.Limiter
	// RequestTimeout bounds page callbacks; 0 disables it.
	RequestTimeout time.Duration
}

// NewRouter mounts the page shells, the page API, assets, health and metrics.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)

	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())
	router.PathPrefix("/assets/").Handler(http.StripPrefix("/assets/", web.Assets()))

	api := router.PathPrefix("/api").Subrouter()
	api.Use(RateLimitMiddleware(cfg.Limiter))
	if cfg.RequestTimeout > 0 {
		api.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}
	api.HandleFunc("/pages", h.ListPages).Methods(http.MethodGet)
	api.HandleFunc("/pages/{slug}/controls", h.GetControls).Methods(http.MethodGet)
	api.HandleFunc("/pages/{slug}/figure", h.GetFigure).Methods(http.MethodGet)
	api.HandleFunc("/pages/{slug}/table", h.GetTable).Methods(http.MethodGet)

	for _, m := range h.registry.Metas() {
		router.HandleFunc(m.Path, h.GetShell).Methods(http.MethodGet)
	}
	router.NotFoundHandler = CorrelationIDMiddleware(logger)(http.HandlerFunc(h.GetShell))
	return router
}
