package resilience

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// ErrOpenCircuit is returned when the circuit breaker refuses a call.
var ErrOpenCircuit = errors.New("resilience: circuit breaker open")

// State represents the current breaker state.
type State int

const (
	// Closed accepts all calls and tracks failures.
	Closed State = iota
	// Open rejects calls until the cool-off period expires.
	Open
	// HalfOpen lets one probe through to test recovery.
	HalfOpen
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

// BreakerConfig tunes a Breaker.
type BreakerConfig struct {
	// Name labels metrics and log lines, e.g. "redis_ratelimit".
	Name         string
	MinRequests  int
	FailureRatio float64
	OpenFor      time.Duration
	Metrics      *BreakerMetrics
	Logger       *zerolog.Logger
	Now          func() time.Time
}

// Breaker is a failure-ratio circuit breaker guarding an optional backend.
type Breaker struct {
	cfg    BreakerConfig
	logger zerolog.Logger

	mu       sync.Mutex
	state    State
	failures int
	calls    int
	openedAt time.Time
}

// NewBreaker constructs a breaker that opens once at least MinRequests calls
// were observed and the failure ratio reaches FailureRatio.
func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg.Name = strings.TrimSpace(cfg.Name)
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	cfg.MinRequests = max(cfg.MinRequests, 1)
	if cfg.FailureRatio <= 0 {
		cfg.FailureRatio = 0.5
	}
	cfg.FailureRatio = min(cfg.FailureRatio, 1)
	if cfg.OpenFor <= 0 {
		cfg.OpenFor = 30 * time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &Breaker{cfg: cfg, logger: zerolog.Nop()}
	if cfg.Logger != nil {
		b.logger = *cfg.Logger
	}
	cfg.Metrics.setState(cfg.Name, Closed)
	return b
}

// State reports the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Allow reports whether a call may go through. An open breaker admits a
// single probe once the cool-off period has passed.
func (b *Breaker) Allow(ctx context.Context) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.cfg.Now().Sub(b.openedAt) >= b.cfg.OpenFor {
			b.changeStateLocked(ctx, HalfOpen)
			return true
		}
		return false
	case HalfOpen:
		return false
	default:
		return true
	}
}

// Report records a call outcome. Cancellation by the caller is not counted
// as a failure of the backend.
func (b *Breaker) Report(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		return
	case HalfOpen:
		if err == nil {
			b.changeStateLocked(ctx, Closed)
		} else {
			b.changeStateLocked(ctx, Open)
		}
		return
	}

	b.calls++
	if err != nil {
		b.failures++
	}
	if b.calls < b.cfg.MinRequests {
		return
	}
	switch {
	case float64(b.failures)/float64(b.calls) >= b.cfg.FailureRatio:
		b.changeStateLocked(ctx, Open)
	case b.calls > 2*b.cfg.MinRequests:
		// decay so old outcomes weigh less than recent ones
		b.calls = (b.calls + 1) / 2
		b.failures /= 2
	}
}

func (b *Breaker) changeStateLocked(ctx context.Context, next State) {
	prev := b.state
	if prev == next {
		return
	}
	b.state = next
	b.failures, b.calls = 0, 0
	if next == Open {
		b.openedAt = b.cfg.Now()
	}
	b.cfg.Metrics.setState(b.cfg.Name, next)
	b.cfg.Metrics.transition(b.cfg.Name, prev, next)

	evt := b.logger.Warn()
	if next == Closed {
		evt = b.logger.Info()
	}
	evt = evt.Str("target", b.cfg.Name).Str("from_state", prev.String()).Str("to_state", next.String())
	if span := trace.SpanContextFromContext(ctx); span.IsValid() {
		evt = evt.Str("trace_id", span.TraceID().String())
	}
	evt.Msg("breaker_transition")
}
