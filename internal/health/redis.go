package health

import (
	"context"

	redis "github.com/redis/go-redis/v9"
)

// RedisProbe pings an optional Redis client.
type RedisProbe struct {
	Client *redis.Client
}

// Check implements Probe. A nil client reports ErrDisabled.
func (p RedisProbe) Check(ctx context.Context) error {
	if p.Client == nil {
		return ErrDisabled
	}
	return p.Client.Ping(ctx).Err()
}
