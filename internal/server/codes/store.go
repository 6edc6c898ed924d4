// Package codes keeps pending one-time codes in Redis. Only bcrypt hashes
// are stored; each record expires with its key.
package codes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	codeKeyPrefix   = "otp:code:"
	resendKeyPrefix = "otp:sent:"
	maxWatchRetries = 4
)

var (
	ErrNotFound         = errors.New("code not found")
	ErrMismatch         = errors.New("code mismatch")
	ErrAttemptsExceeded = errors.New("code attempts exceeded")
)

type record struct {
	Hash      string `json:"hash"`
	Attempts  int    `json:"attempts"`
	ExpiresAt int64  `json:"expires_at"`
}

// RedisStore is the Redis-backed code store.
type RedisStore struct {
	client *redis.Client
	now    func() time.Time
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Save replaces any pending code for email with hash, valid for ttl.
func (s *RedisStore) Save(ctx context.Context, email, hash string, ttl time.Duration) error {
	b, err := json.Marshal(record{Hash: hash, ExpiresAt: s.now().Add(ttl).Unix()})
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, codeKeyPrefix+email, b, ttl).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

// Consume checks a submitted code against the pending record of email.
// matches is given the stored hash. A match deletes the record. A miss
// bumps the attempt counter and keeps the original expiry; reaching
// maxAttempts deletes the record and returns ErrAttemptsExceeded.
func (s *RedisStore) Consume(ctx context.Context, email string, matches func(hash string) bool, maxAttempts int) error {
	key := codeKeyPrefix + email

	for i := 0; i < maxWatchRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}

			var rec record
			if err := json.Unmarshal(data, &rec); err != nil {
				return err
			}

			if matches(rec.Hash) {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}

			rec.Attempts++
			ttl := time.Unix(rec.ExpiresAt, 0).Sub(s.now())
			if rec.Attempts >= maxAttempts || ttl <= 0 {
				_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				if err != nil {
					return err
				}
				if ttl <= 0 {
					return ErrNotFound
				}
				return ErrAttemptsExceeded
			}

			updated, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, updated, ttl)
				return nil
			})
			if err != nil {
				return err
			}
			return ErrMismatch
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		switch {
		case err == nil:
			return nil
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrMismatch), errors.Is(err, ErrAttemptsExceeded):
			return err
		default:
			return fmt.Errorf("redis error: %w", err)
		}
	}
	return fmt.Errorf("redis error: %w", redis.TxFailedErr)
}

// Reserve claims the resend window for email. When a previous send is still
// inside its window, ok is false and retryAfter is the time left.
func (s *RedisStore) Reserve(ctx context.Context, email string, window time.Duration) (ok bool, retryAfter time.Duration, err error) {
	if window <= 0 {
		return true, 0, nil
	}
	key := resendKeyPrefix + email

	set, err := s.client.SetNX(ctx, key, s.now().Unix(), window).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}
	if set {
		return true, 0, nil
	}

	left, err := s.client.PTTL(ctx, key).Result()
	if err != nil {
		return false, 0, fmt.Errorf("redis error: %w", err)
	}
	if left < 0 {
		left = window
	}
	return false, left, nil
}

// Release drops the resend reservation, used when the send itself failed.
func (s *RedisStore) Release(ctx context.Context, email string) error {
	if err := s.client.Del(ctx, resendKeyPrefix+email).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
