package app

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/noah-isme/smoothie-scribe/internal/config"
	"github.com/noah-isme/smoothie-scribe/internal/events"
	"github.com/noah-isme/smoothie-scribe/internal/inventory"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
	"github.com/noah-isme/smoothie-scribe/internal/ratelimit"
	"github.com/noah-isme/smoothie-scribe/internal/recipe"
	"github.com/noah-isme/smoothie-scribe/internal/resilience"
	"github.com/noah-isme/smoothie-scribe/internal/seed"
)

// Dependencies enumerates the services shared by the HTTP surfaces.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Limiter   ratelimit.Allower
	Bus       *events.Bus
	Metrics   *obs.DomainMetrics
	Inventory *inventory.Service
	Recipes   *recipe.Service
}

// Options tunes Build.
type Options struct {
	Registry  prometheus.Registerer
	Namespace string
	// Redis is optional; without it idempotency is off and rate limits stay in memory.
	Redis *redis.Client
}

// Build wires the stores, event bus and limiter, and loads the seed catalog
// when enabled.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*Dependencies, error) {
	namespace := opts.Namespace
	if namespace == "" {
		namespace = "scribe"
	}
	metrics := obs.NewDomainMetrics(namespace, opts.Registry)
	bus := events.NewBus(100,
		events.LogNotifier{Logger: logger.With().Str("component", "events").Logger()},
		events.MetricsNotifier{Observer: metrics},
	)

	inv := inventory.NewService(inventory.ServiceConfig{Events: bus, Metrics: metrics, Logger: &logger})
	recipes, err := recipe.NewService(recipe.ServiceConfig{
		Catalog:    inv,
		SessionTTL: cfg.EditorSessionTTL,
		Events:     bus,
		Metrics:    metrics,
		Logger:     &logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialise recipe service: %w", err)
	}

	if cfg.SeedEnabled {
		catalog, err := seed.Load(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		for _, problem := range catalog.Validate() {
			logger.Warn().Str("problem", problem).Msg("seed catalog")
		}
		if err := seed.Apply(ctx, catalog, inv, recipes); err != nil {
			return nil, err
		}
	}

	allower, err := newLimiter(cfg, logger, namespace, opts)
	if err != nil {
		return nil, err
	}

	return &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Redis:     opts.Redis,
		Limiter:   allower,
		Bus:       bus,
		Metrics:   metrics,
		Inventory: inv,
		Recipes:   recipes,
	}, nil
}

// newLimiter keeps rate limits in memory without Redis. With Redis it uses the
// configured algorithm behind a breaker that falls back to memory.
func newLimiter(cfg *config.Config, logger zerolog.Logger, namespace string, opts Options) (ratelimit.Allower, error) {
	memory := ratelimit.NewMemoryLimiter("scribe")
	if opts.Redis == nil {
		return memory, nil
	}
	var primary ratelimit.Allower
	switch cfg.RateLimitAlgorithm {
	case config.RateLimitFixed:
		store, err := NewLimiterStore(opts.Redis)
		if err != nil {
			return nil, fmt.Errorf("initialise limiter store: %w", err)
		}
		primary = &ratelimit.StoreLimiter{Store: store}
	default:
		primary = ratelimit.SlidingRedis{Client: opts.Redis, Prefix: "scribe:sliding:"}
	}
	breakerLogger := logger.With().Str("component", "ratelimit").Logger()
	return ratelimit.Guarded{
		Primary:  primary,
		Fallback: memory,
		Breaker: resilience.NewBreaker(resilience.BreakerConfig{
			Name:         "redis_ratelimit",
			MinRequests:  5,
			FailureRatio: 0.5,
			OpenFor:      30 * time.Second,
			Metrics:      resilience.NewBreakerMetrics(namespace, opts.Registry),
			Logger:       &breakerLogger,
		}),
	}, nil
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "scribe:ratelimit"})
}

// Meter returns the default OpenTelemetry meter for instrumentation hooks.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// RegisterDraftGauge exposes the open editor session count through the
// OpenTelemetry meter as an observable gauge.
func RegisterDraftGauge(m metric.Meter, recipes *recipe.Service) error {
	_, err := m.Int64ObservableGauge("scribe.recipe.open_drafts",
		metric.WithDescription("Open recipe editor sessions."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(recipes.OpenDrafts()))
			return nil
		}),
	)
	return err
}
