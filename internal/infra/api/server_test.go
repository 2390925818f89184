//go:build !integration

package api

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-billing/internal/config"
	"workforce-billing/internal/infra/api/apiv1"
)

func testLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	cfg := &config.Config{
		HTTP:    config.HTTPConfig{RequestTimeout: time.Second},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	h := NewRouter(cfg, apiv1.NewServer(apiv1.Deps{}, testLogger()), testLogger())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMiddleware(t *testing.T) {
	t.Run("Recover turns panics into 500", func(t *testing.T) {
		h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }), Recover(testLogger()))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, rec.Body.String())
	})

	t.Run("TraceID keeps an incoming request id", func(t *testing.T) {
		h := Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}), TraceID(testLogger()))
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Request-Id", "req-1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "req-1", rec.Header().Get("X-Request-Id"))
	})

	t.Run("Timeout bounds the request context", func(t *testing.T) {
		var deadline bool
		h := Chain(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			_, deadline = r.Context().Deadline()
		}), Timeout(time.Second))
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		require.True(t, deadline)
	})
}
