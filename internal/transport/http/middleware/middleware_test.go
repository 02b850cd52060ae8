package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
	"github.com/ErlanBelekov/boss-notifier/internal/requestid"
	"github.com/ErlanBelekov/boss-notifier/internal/transport/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Security(), middleware.Metrics())
	r.GET("/cron", func(c *gin.Context) {
		c.String(http.StatusOK, requestid.FromContext(c.Request.Context()))
	})
	return r
}

func TestRequestID_PreservesValidHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	req.Header.Set("X-Request-ID", "upstream-1")
	newEngine().ServeHTTP(w, req)

	if w.Header().Get("X-Request-ID") != "upstream-1" || w.Body.String() != "upstream-1" {
		t.Fatalf("header = %q body = %q", w.Header().Get("X-Request-ID"), w.Body.String())
	}
}

func TestRequestID_ReplacesMalformedHeader(t *testing.T) {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cron", nil)
	req.Header.Set("X-Request-ID", "bad id")
	newEngine().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got == "bad id" || got == "" {
		t.Fatalf("header = %q, want a fresh id", got)
	}
}

func TestSecurity_SetsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	newEngine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/cron", nil))

	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("missing %s", h)
		}
	}
}

func TestMetrics_CountsByRoute(t *testing.T) {
	r := newEngine()
	routed := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/cron", "200")
	unmatched := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "unmatched", "404")
	beforeRouted, beforeUnmatched := testutil.ToFloat64(routed), testutil.ToFloat64(unmatched)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/cron", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))

	if got := testutil.ToFloat64(routed) - beforeRouted; got != 1 {
		t.Errorf("routed delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(unmatched) - beforeUnmatched; got != 1 {
		t.Errorf("unmatched delta = %v, want 1", got)
	}
}
