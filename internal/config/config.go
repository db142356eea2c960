package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv                 string
	Port                   string
	RedisURL               string
	CORSAllowedOrigins     []string
	EditorSessionTTL       time.Duration
	SeedEnabled            bool
	SeedFile               string
	RateLimitWindow        time.Duration
	RateLimitMax           int
	RateLimitAlgorithm     string
	IdempotencyTTL         time.Duration
	BodyLimitBytes         int64
	CSRFEnabled            bool
	SecurityHeadersEnabled bool
	CurrencyCode           string
	RecipePageSize         int
	ReadyRedisTimeout      time.Duration
	ShutdownTimeout        time.Duration
	Obs                    Observability
}

// Observability holds logging, metrics, tracing and profiling settings.
type Observability struct {
	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	LatencyBucketsMs []float64
	TracingEnabled   bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Rate limit algorithms used when Redis is configured.
const (
	RateLimitSliding = "sliding"
	RateLimitFixed   = "fixed"
)

// Load reads configuration from environment variables and an optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()
	k, err := fromEnv()
	if err != nil {
		return nil, err
	}
	return build(source{k})
}

// LoadForTests is Load with overrides layered over the process environment.
// An empty override value unsets the key. The environment is not modified.
func LoadForTests(overrides map[string]string) (*Config, error) {
	k, err := fromEnv()
	if err != nil {
		return nil, err
	}
	for key, value := range overrides {
		if value == "" {
			k.Delete(key)
			continue
		}
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("override %s: %w", key, err)
		}
	}
	return build(source{k})
}

func fromEnv() (*koanf.Koanf, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return k, nil
}

func build(src source) (*Config, error) {
	cfg := &Config{
		AppEnv:                 src.str("APP_ENV", "development"),
		Port:                   src.str("PORT", "8080"),
		RedisURL:               src.str("REDIS_URL", ""),
		CORSAllowedOrigins:     src.list("CORS_ALLOWED_ORIGINS"),
		EditorSessionTTL:       src.duration("EDITOR_SESSION_TTL", 30*time.Minute),
		SeedEnabled:            src.boolean("SEED_ENABLED", true),
		SeedFile:               src.str("SEED_FILE", ""),
		RateLimitWindow:        src.duration("RATE_LIMIT_WINDOW", time.Minute),
		RateLimitMax:           src.integer("RATE_LIMIT_MAX", 120),
		RateLimitAlgorithm:     strings.ToLower(src.str("RATE_LIMIT_ALGORITHM", RateLimitSliding)),
		IdempotencyTTL:         src.duration("IDEMPOTENCY_TTL", 24*time.Hour),
		BodyLimitBytes:         int64(src.integer("BODY_LIMIT_BYTES", 1<<20)),
		CSRFEnabled:            src.boolean("CSRF_ENABLED", true),
		SecurityHeadersEnabled: src.boolean("SECURITY_HEADERS_ENABLED", true),
		CurrencyCode:           strings.ToUpper(src.str("CURRENCY_CODE", "USD")),
		RecipePageSize:         src.integer("RECIPE_LIST_DEFAULT_LIMIT", 20),
		ReadyRedisTimeout:      src.millis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
		ShutdownTimeout:        src.millis("SHUTDOWN_TIMEOUT_MS", 10000),
	}
	cfg.Obs = Observability{
		LogFormat:        strings.ToLower(src.str("OBS_LOG_FORMAT", "json")),
		LogLevel:         strings.ToLower(src.str("OBS_LOG_LEVEL", "info")),
		MetricsEnabled:   src.boolean("OBS_ENABLE_PROMETHEUS", true),
		MetricsNamespace: src.str("OBS_METRICS_NAMESPACE", "scribe"),
		LatencyBucketsMs: src.positiveFloats("OBS_METRICS_BUCKETS_MS"),
		TracingEnabled:   src.boolean("OBS_ENABLE_TRACING", true),
		TracingExporter:  strings.ToLower(src.str("OBS_TRACING_EXPORTER", "none")),
		OTLPEndpoint:     src.str("OBS_OTLP_ENDPOINT", ""),
		SamplingRatio:    src.float("OBS_TRACING_SAMPLING_RATIO", 1),
		PprofEnabled:     src.boolean("OBS_ENABLE_PPROF", !cfg.IsProduction()),
		PprofUser:        src.str("SECURE_PPROF_BASIC_AUTH_USER", ""),
		PprofPass:        src.str("SECURE_PPROF_BASIC_AUTH_PASS", ""),
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.EditorSessionTTL <= 0 {
		errs = append(errs, errors.New("EDITOR_SESSION_TTL must be positive"))
	}
	if c.RateLimitWindow <= 0 || c.RateLimitMax < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_WINDOW must be positive and RATE_LIMIT_MAX non-negative"))
	}
	if c.RateLimitAlgorithm != RateLimitSliding && c.RateLimitAlgorithm != RateLimitFixed {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_ALGORITHM %q must be %q or %q", c.RateLimitAlgorithm, RateLimitSliding, RateLimitFixed))
	}
	if c.BodyLimitBytes <= 0 {
		errs = append(errs, errors.New("BODY_LIMIT_BYTES must be positive"))
	}
	if c.RecipePageSize <= 0 {
		errs = append(errs, errors.New("RECIPE_LIST_DEFAULT_LIMIT must be positive"))
	}
	if c.Obs.PprofEnabled && c.IsProduction() && c.Obs.PprofUser == "" {
		errs = append(errs, errors.New("OBS_ENABLE_PPROF in production requires SECURE_PPROF_BASIC_AUTH_USER"))
	}
	if c.CurrencyCode != "USD" {
		errs = append(errs, fmt.Errorf("CURRENCY_CODE %q is not supported", c.CurrencyCode))
	}
	return errors.Join(errs...)
}

// RedisEnabled reports whether a Redis connection was configured.
func (c *Config) RedisEnabled() bool {
	return c != nil && c.RedisURL != ""
}

// IsProduction reports whether the service runs in a production environment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// source reads typed values out of koanf. Unset, blank or unparsable values
// fall back to the default.
type source struct{ k *koanf.Koanf }

func (s source) raw(key string) string { return strings.TrimSpace(s.k.String(key)) }

func (s source) str(key, def string) string {
	if v := s.raw(key); v != "" {
		return v
	}
	return def
}

func (s source) list(key string) []string {
	var out []string
	for _, part := range strings.Split(s.raw(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (s source) duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(s.raw(key)); err == nil {
		return d
	}
	return def
}

func (s source) boolean(key string, def bool) bool {
	switch strings.ToLower(s.raw(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func (s source) integer(key string, def int) int {
	if n, err := strconv.Atoi(s.raw(key)); err == nil {
		return n
	}
	return def
}

func (s source) millis(key string, defMs int) time.Duration {
	return time.Duration(s.integer(key, defMs)) * time.Millisecond
}

func (s source) float(key string, def float64) float64 {
	if f, err := strconv.ParseFloat(s.raw(key), 64); err == nil {
		return f
	}
	return def
}

// positiveFloats reads a comma-separated list, skipping entries that are not
// positive numbers.
func (s source) positiveFloats(key string) []float64 {
	var out []float64
	for _, part := range s.list(key) {
		if f, err := strconv.ParseFloat(part, 64); err == nil && f > 0 {
			out = append(out, f)
		}
	}
	return out
}
