package main

import (
	"crypto/subtle"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/smoothie-scribe/internal/app"
	"github.com/noah-isme/smoothie-scribe/internal/common"
	"github.com/noah-isme/smoothie-scribe/internal/config"
	"github.com/noah-isme/smoothie-scribe/internal/events"
	"github.com/noah-isme/smoothie-scribe/internal/health"
	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
	"github.com/noah-isme/smoothie-scribe/internal/ratelimit"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
	"github.com/noah-isme/smoothie-scribe/internal/security"
	"github.com/noah-isme/smoothie-scribe/internal/web"
)

// routerOptions carries the pieces main resolves at startup; everything else
// comes from deps.Config.
type routerOptions struct {
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
}

func newRouter(deps *app.Dependencies, opts routerOptions) (chi.Router, error) {
	cfg := deps.Config
	logger := deps.Logger

	csrf := security.CSRF{Secure: cfg.IsProduction(), Disabled: !cfg.CSRFEnabled}
	pages, err := web.NewHandler(web.HandlerConfig{
		Inventory: deps.Inventory,
		Recipes:   deps.Recipes,
		CSRFField: csrf.FieldName(),
		Logger:    &logger,
	})
	if err != nil {
		return nil, err
	}
	ingredients := inventory.NewHandler(inventory.HandlerConfig{Service: deps.Inventory})
	recipes := recipe.NewHandler(recipe.HandlerConfig{Service: deps.Recipes, DefaultLimit: cfg.RecipePageSize})

	idem := common.Idem{R: deps.Redis, TTL: cfg.IdempotencyTTL, Prefix: "scribe:idem:"}
	limits := ratelimit.Handler{
		Limiter: deps.Limiter,
		Config: ratelimit.Config{
			Key:        ratelimit.ByClientIP,
			Rule:       ratelimit.Rule{Window: cfg.RateLimitWindow, Max: cfg.RateLimitMax},
			WritesOnly: true,
		},
		OnError: func(err error) {
			logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}
	bodyLimit := security.BodyLimit{Max: cfg.BodyLimitBytes}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger, Quiet: []string{"/health/", "/metrics"}}.Middleware)
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.IsProduction()}.Middleware)

	if cfg.Obs.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Obs.PprofEnabled {
		r.Mount("/debug/pprof", protectPprof(http.StripPrefix("/debug/pprof", newPprofMux()), cfg.Obs.PprofUser, cfg.Obs.PprofPass))
	}

	healthHandler := health.Handler{
		Probes:  map[string]health.Probe{"redis": health.RedisProbe{Client: deps.Redis}},
		Timeout: cfg.ReadyRedisTimeout,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Group(func(p chi.Router) {
		p.Use(bodyLimit.Middleware)
		p.Use(csrf.Middleware)
		p.Use(limits.Middleware)
		pages.Register(p)
	})

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(cors.Handler(cors.Options{
			AllowedOrigins:   allowedOrigins(cfg),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type", "Idempotency-Key", "X-CSRF-Token"},
			ExposedHeaders:   []string{"X-Total-Count", "Idempotent-Replay", "X-RateLimit-Remaining", "Retry-After"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
		v.Use(bodyLimit.Middleware)
		v.Use(limits.Middleware)

		v.Get("/ingredients", ingredients.List)
		v.Get("/ingredients/{id}", ingredients.Get)
		v.Get("/costs", ingredients.Costs)
		v.Get("/recipes", recipes.List)
		v.Get("/recipes/{id}", recipes.Get)
		v.Get("/drafts/{id}", recipes.Draft)
		v.Get("/events", events.Handler{Bus: deps.Bus}.Recent)

		v.Group(func(g chi.Router) {
			g.Use(idem.Middleware)
			g.Post("/ingredients", ingredients.Create)
			g.Patch("/ingredients/{id}", ingredients.Update)
			g.Post("/drafts", recipes.OpenDraft)
			g.Patch("/drafts/{id}", recipes.Rename)
			g.Delete("/drafts/{id}", recipes.Cancel)
			g.Post("/drafts/{id}/lines", recipes.AddLine)
			g.Patch("/drafts/{id}/lines/{index}", recipes.SetAmount)
			g.Delete("/drafts/{id}/lines/{index}", recipes.RemoveLine)
			g.Post("/drafts/{id}/save", recipes.Save)
		})
	})

	return r, nil
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handle("/"+name, pprof.Handler(name))
	}
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	pass = strings.TrimSpace(pass)
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
