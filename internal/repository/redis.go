package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"meetmed/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	rateLimitPrefix = "rate_limit:"
	revokedPrefix   = "revoked:"
)

var errNilClient = errors.New("redis client is nil")

// RedisSessionStore keeps login throttling counters and token
// revocation marks in Redis so they are shared between instances.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func (r *RedisSessionStore) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if r.client == nil {
		return false, errNilClient
	}
	k := rateLimitPrefix + key
	count, err := r.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit: %w", err)
	}

	if count == 1 {
		if err := r.client.Expire(ctx, k, window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(limit), nil
}

func (r *RedisSessionStore) ResetRateLimit(ctx context.Context, key string) error {
	if r.client == nil {
		return errNilClient
	}
	if err := r.client.Del(ctx, rateLimitPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to reset rate limit: %w", err)
	}
	return nil
}

// RevokeTokens marks every token of subject issued before at as revoked.
// The mark lives for ttl, which should match the token lifetime.
func (r *RedisSessionStore) RevokeTokens(ctx context.Context, subject string, at time.Time, ttl time.Duration) error {
	if r.client == nil {
		return errNilClient
	}
	value := strconv.FormatInt(at.Unix(), 10)
	if err := r.client.Set(ctx, revokedPrefix+subject, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store revocation: %w", err)
	}
	return nil
}

// RevokedAt returns the revocation instant for subject, or the zero time.
func (r *RedisSessionStore) RevokedAt(ctx context.Context, subject string) (time.Time, error) {
	if r.client == nil {
		return time.Time{}, errNilClient
	}
	val, err := r.client.Get(ctx, revokedPrefix+subject).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read revocation: %w", err)
	}
	sec, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("corrupt revocation mark %q: %w", val, err)
	}
	return time.Unix(sec, 0), nil
}

func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
