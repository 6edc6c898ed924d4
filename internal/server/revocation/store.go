// Package revocation is the Redis-backed list of signed-out access tokens.
package revocation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedTokenKeyPrefix = "trl:jti:"

// RedisList stores revoked token ids until the tokens would have expired.
type RedisList struct {
	client  *redis.Client
	observe func(time.Duration)
}

// NewRedisList builds the list. observe, when non-nil, receives the latency
// of every IsRevoked call.
func NewRedisList(client *redis.Client, observe func(time.Duration)) *RedisList {
	return &RedisList{client: client, observe: observe}
}

// Revoke marks jti as revoked for ttl. Non-positive ttls are skipped since
// such tokens are already rejected as expired.
func (l *RedisList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revokedTokenKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// IsRevoked reports whether jti is on the list.
func (l *RedisList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if l.observe != nil {
		start := time.Now()
		defer func() { l.observe(time.Since(start)) }()
	}
	if jti == "" {
		return false, nil
	}

	_, err := l.client.Get(ctx, revokedTokenKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return true, nil
}
