package routes

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"yatube/app/middleware"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestIDIsEchoed(t *testing.T) {
	app := setupTestApp(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "abc-123")
	w := app.serve(t, nil, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", w.Header().Get(middleware.RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	app := setupTestApp(t, 0)
	app.get(t, nil, "/")
	app.get(t, nil, "/")

	assert.Equal(t, 2.0, testutil.ToFloat64(app.metrics.RequestsTotal.WithLabelValues("/", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CacheRequests.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CacheRequests.WithLabelValues("miss")))

	w := app.get(t, nil, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "yatube_http_requests_total")
	assert.Contains(t, w.Body.String(), "yatube_page_cache_requests_total")
}

func TestLoginRateLimit(t *testing.T) {
	app := setupTestApp(t, 2)
	app.register(t, "leo")

	attempt := func() int {
		return app.postForm(t, nil, "/auth/login/", url.Values{
			"username": {"leo"},
			"password": {"wrong-pass"},
		}).Code
	}

	assert.Equal(t, http.StatusOK, attempt())
	assert.Equal(t, http.StatusOK, attempt())
	assert.Equal(t, http.StatusTooManyRequests, attempt())

	// Viewing the form is never limited.
	assert.Equal(t, http.StatusOK, app.get(t, nil, "/auth/login/").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	app := setupTestApp(t, 0)

	w := app.serve(t, nil, httptest.NewRequest(http.MethodDelete, "/", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
