package ratelimit

import (
	"context"

	"github.com/noah-isme/smoothie-scribe/internal/resilience"
)

// Guarded sends calls to Primary while its breaker is closed and to Fallback
// when Primary fails or the breaker is open.
type Guarded struct {
	Primary  Allower
	Fallback Allower
	Breaker  *resilience.Breaker
}

// Allow implements Allower.
func (g Guarded) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if g.Primary == nil || (g.Breaker != nil && !g.Breaker.Allow(ctx)) {
		return g.fallback(ctx, key, rule, resilience.ErrOpenCircuit)
	}
	d, err := g.Primary.Allow(ctx, key, rule)
	if g.Breaker != nil {
		g.Breaker.Report(ctx, err)
	}
	if err != nil {
		return g.fallback(ctx, key, rule, err)
	}
	return d, nil
}

func (g Guarded) fallback(ctx context.Context, key string, rule Rule, cause error) (Decision, error) {
	if g.Fallback == nil {
		return Decision{Limit: rule.Max}, cause
	}
	return g.Fallback.Allow(ctx, key, rule)
}
