// Package ratelimit throttles write traffic per client. Limits can be kept in
// process or shared through Redis.
package ratelimit

import (
	"context"
	"time"
)

// Rule allows at most Max events per Window.
type Rule struct {
	Window time.Duration
	Max    int
}

func (r Rule) unlimited() bool { return r.Max <= 0 || r.Window <= 0 }

// Decision is the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

func pass(rule Rule) Decision {
	return Decision{Allowed: true, Limit: rule.Max, Remaining: rule.Max, Reset: time.Now().Add(rule.Window)}
}

// Allower records one event under key and reports whether it fits the rule.
type Allower interface {
	Allow(ctx context.Context, key string, rule Rule) (Decision, error)
}
