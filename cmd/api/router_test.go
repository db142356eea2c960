package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/smoothie-scribe/internal/app"
	"github.com/noah-isme/smoothie-scribe/internal/config"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
)

func testRouter(t *testing.T, tweak func(*config.Config)) (chi.Router, *app.Dependencies) {
	t.Helper()
	cfg := &config.Config{
		AppEnv:                 "test",
		EditorSessionTTL:       time.Minute,
		SeedEnabled:            true,
		RateLimitWindow:        time.Minute,
		RateLimitMax:           100,
		BodyLimitBytes:         1 << 16,
		CSRFEnabled:            true,
		SecurityHeadersEnabled: true,
		CurrencyCode:           "USD",
		RecipePageSize:         20,
		ReadyRedisTimeout:      100 * time.Millisecond,
		Obs:                    config.Observability{MetricsEnabled: true},
	}
	if tweak != nil {
		tweak(cfg)
	}
	reg := prometheus.NewRegistry()
	deps, err := app.Build(context.Background(), cfg, zerolog.Nop(), app.Options{Registry: reg})
	require.NoError(t, err)
	r, err := newRouter(deps, routerOptions{HTTPMetrics: obs.NewHTTPMetrics("scribe_test", nil, reg)})
	require.NoError(t, err)
	return r, deps
}

func TestHealthEndpoints(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"disabled"`)
}

func TestIndexPageServedWithSecurityHeaders(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Berry Basic")
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestPageFormsRequireCSRF(t *testing.T) {
	r, deps := testRouter(t, nil)

	form := url.Values{"name": {"Kale"}, "purchaseCost": {"4"}, "purchaseUnit": {"200"}}
	req := httptest.NewRequest(http.MethodPost, "/ingredients", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Len(t, deps.Inventory.List(context.Background()), 14)
}

func TestAPIRoutes(t *testing.T) {
	r, deps := testRouter(t, func(c *config.Config) { c.RecipePageSize = 1 })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/recipes", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	require.Contains(t, rec.Body.String(), "Berry Basic")
	require.NotContains(t, rec.Body.String(), "Keto Green God")

	body := `{"name":"Kale","purchaseCost":"4","purchaseUnit":"200","unit":"g"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingredients", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, deps.Inventory.List(context.Background()), 15)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/costs", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?topic=ingredient.added", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Kale")
}

func TestPprofRequiresBasicAuth(t *testing.T) {
	r, _ := testRouter(t, func(c *config.Config) {
		c.Obs.PprofEnabled = true
		c.Obs.PprofUser = "ops"
		c.Obs.PprofPass = "secret"
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/heap?debug=1", nil)
	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointFollowsConfig(t *testing.T) {
	r, _ := testRouter(t, func(c *config.Config) { c.Obs.MetricsEnabled = false })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)

	r, _ = testRouter(t, nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}
