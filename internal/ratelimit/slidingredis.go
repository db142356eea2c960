package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingLog trims the log to the window and appends the event only while
// there is room, so rejected calls do not extend a client's penalty.
var slidingLog = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])
local admitted = 0
if count < max then
  redis.call('ZADD', KEYS[1], now, ARGV[4])
  redis.call('PEXPIRE', KEYS[1], window)
  count = count + 1
  admitted = 1
end
local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local first = now
if oldest[2] then first = tonumber(oldest[2]) end
return {admitted, count, first}
`)

// SlidingRedis keeps a sliding log of events per key in a Redis sorted set.
type SlidingRedis struct {
	Client *redis.Client
	Prefix string
}

// Allow implements Allower.
func (l SlidingRedis) Allow(ctx context.Context, key string, rule Rule) (Decision, error) {
	if l.Client == nil || rule.unlimited() {
		return pass(rule), nil
	}
	now := time.Now().UnixMilli()
	window := rule.Window.Milliseconds()
	if window == 0 {
		window = 1
	}
	out, err := slidingLog.Run(ctx, l.Client, []string{l.Prefix + key}, now, window, rule.Max, uuid.NewString()).Int64Slice()
	if err != nil {
		return Decision{Limit: rule.Max, Reset: time.Now().Add(rule.Window)}, fmt.Errorf("sliding window: %w", err)
	}
	if len(out) != 3 {
		return Decision{Limit: rule.Max, Reset: time.Now().Add(rule.Window)}, fmt.Errorf("sliding window: unexpected reply %v", out)
	}
	return Decision{
		Allowed:   out[0] == 1,
		Limit:     rule.Max,
		Remaining: max(rule.Max-int(out[1]), 0),
		Reset:     time.UnixMilli(out[2] + window),
	}, nil
}
