package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// StoreLimiter adapts a ulule limiter store (memory or Redis) to Allower.
// Limiters are cached per window and max pair.
type StoreLimiter struct {
	Store limiter.Store

	mu       sync.Mutex
	limiters map[limiter.Rate]*limiter.Limiter
}

// NewMemoryLimiter returns a process-local limiter.
func NewMemoryLimiter(prefix string) *StoreLimiter {
	return &StoreLimiter{Store: memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: time.Minute,
	})}
}

// Allow implements Allower.
func (s *StoreLimiter) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if s == nil || s.Store == nil || rule.unlimited() {
		return pass(rule), nil
	}
	res, err := s.limiter(limiter.Rate{Period: rule.Window, Limit: int64(rule.Max)}).Get(ctx, key)
	if err != nil {
		return Decision{Limit: rule.Max, Reset: time.Now().Add(rule.Window)}, fmt.Errorf("limiter store: %w", err)
	}
	return Decision{
		Allowed:   !res.Reached,
		Limit:     int(res.Limit),
		Remaining: int(res.Remaining),
		Reset:     time.Unix(res.Reset, 0),
	}, nil
}

func (s *StoreLimiter) limiter(rate limiter.Rate) *limiter.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.limiters == nil {
		s.limiters = make(map[limiter.Rate]*limiter.Limiter)
	}
	l, ok := s.limiters[rate]
	if !ok {
		l = limiter.New(s.Store, rate)
		s.limiters[rate] = l
	}
	return l
}
