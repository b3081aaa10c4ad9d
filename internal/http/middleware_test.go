package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/geo-data-maps/internal/traffic"
)

func TestCorrelationIDMiddleware(t *testing.T) {
	var gotID string
	var gotLogger bool
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		gotID = correlationID(r)
		_, gotLogger = r.Context().Value("logger").(*zap.Logger)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if _, err := uuid.Parse(gotID); err != nil {
		t.Errorf("generated id %q is not a uuid", gotID)
	}
	if w.Header().Get("X-Correlation-ID") != gotID || !gotLogger {
		t.Errorf("header = %q, ctx id = %q, logger = %v", w.Header().Get("X-Correlation-ID"), gotID, gotLogger)
	}

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Correlation-ID", "client-provided-id")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if gotID != "client-provided-id" || w.Header().Get("X-Correlation-ID") != "client-provided-id" {
		t.Errorf("client id not propagated: %q", gotID)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	traffic.Reset()
	defer traffic.Reset()

	limiter := rate.NewLimiter(rate.Limit(0.001), 2)
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(zap.NewNop()))
	router.Use(RateLimitMiddleware(limiter))
	router.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {})

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
		codes[i] = w.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
	if got := traffic.DenialCount(time.Minute); got != 1 {
		t.Errorf("DenialCount = %d, want 1", got)
	}
}

func TestRateLimitMiddleware_NilLimiterPassesThrough(t *testing.T) {
	called := false
	h := RateLimitMiddleware(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("handler not called with nil limiter")
	}
}

func TestTimeoutMiddleware_SetsDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	h := TimeoutMiddleware(time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok = r.Context().Deadline()
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !ok || time.Until(deadline) > time.Minute {
		t.Errorf("deadline = %v ok = %v", deadline, ok)
	}
}

func TestMetricsMiddleware_TracksInFlight(t *testing.T) {
	var during int64
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)
	router.HandleFunc("/api/pages/{slug}/figure", func(w http.ResponseWriter, r *http.Request) {
		during = InFlightCount()
		if route := getRoute(r); route != "/api/pages/{slug}/figure" {
			t.Errorf("route label = %q", route)
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/pages/osm/figure", nil))
	if during < 1 {
		t.Errorf("in-flight during request = %d, want >= 1", during)
	}
	if InFlightCount() != 0 {
		t.Errorf("in-flight after request = %d, want 0", InFlightCount())
	}
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := WaitForInFlight(ctx, time.Millisecond); err != nil {
		t.Errorf("WaitForInFlight() error = %v", err)
	}
}

func TestGetRoute_Unmatched(t *testing.T) {
	if got := getRoute(httptest.NewRequest(http.MethodGet, "/random/path", nil)); got != "other" {
		t.Errorf("getRoute = %q, want other", got)
	}
}

func TestStatusCodeString(t *testing.T) {
	for code, want := range map[int]string{200: "2xx", 404: "4xx", 503: "5xx"} {
		if got := statusCodeString(code); got != want {
			t.Errorf("statusCodeString(%d) = %q, want %q", code, got, want)
		}
	}
}
