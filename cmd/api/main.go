package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/smoothie-scribe/internal/app"
	"github.com/noah-isme/smoothie-scribe/internal/config"
	"github.com/noah-isme/smoothie-scribe/internal/health"
	"github.com/noah-isme/smoothie-scribe/internal/obs"
)

const serviceName = "smoothie-scribe"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
	logger.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	tracing := startTracing(cfg, logger)
	if tracing != nil {
		defer func() {
			if err := tracing(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	startup, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	rdb, err := connectRedis(startup, cfg, logger)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	var registry prometheus.Registerer
	if cfg.Obs.MetricsEnabled {
		registry = prometheus.DefaultRegisterer
	}
	deps, err := app.Build(startup, cfg, logger, app.Options{
		Registry:  registry,
		Namespace: cfg.Obs.MetricsNamespace,
		Redis:     rdb,
	})
	if err != nil {
		return fmt.Errorf("initialise application: %w", err)
	}
	if err := app.RegisterDraftGauge(app.Meter(serviceName), deps.Recipes); err != nil {
		logger.Error().Err(err).Msg("register draft gauge")
	}

	opts := routerOptions{Tracing: tracing != nil}
	if cfg.Obs.MetricsEnabled {
		opts.HTTPMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, cfg.Obs.LatencyBucketsMs, registry)
	}
	r, err := newRouter(deps, opts)
	if err != nil {
		return fmt.Errorf("initialise router: %w", err)
	}
	var handler http.Handler = r
	if opts.Tracing {
		handler = otelhttp.NewHandler(r, serviceName)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Bool("redis", rdb != nil).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	health.SetReady(false)
	drain, cancelDrain := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelDrain()
	if err := srv.Shutdown(drain); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// startTracing returns nil when tracing is off or the exporter fails to start.
func startTracing(cfg *config.Config, logger zerolog.Logger) obs.Shutdown {
	if !cfg.Obs.TracingEnabled {
		return nil
	}
	shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName:   serviceName,
		Environment:   cfg.AppEnv,
		Exporter:      cfg.Obs.TracingExporter,
		Endpoint:      cfg.Obs.OTLPEndpoint,
		SamplingRatio: cfg.Obs.SamplingRatio,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
		return nil
	}
	return shutdown
}

// connectRedis returns a nil client when REDIS_URL is unset.
func connectRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*redis.Client, error) {
	if !cfg.RedisEnabled() {
		logger.Info().Msg("redis not configured; idempotency disabled and rate limits kept in memory")
		return nil, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}
