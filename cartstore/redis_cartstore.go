// cartstore/redis_cartstore.go

package cartstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	// Snapshots live in a Redis Hash under the cart key, in this field.
	cartField = "cart"

	defaultInitAttempts = 30
	maxBackoff          = 30 * time.Second
)

// RedisCartStore is a cart store backed by Redis.
type RedisCartStore struct {
	client       *redis.Client
	log          *logrus.Entry
	initAttempts int
	baseBackoff  time.Duration
}

// NewRedisCartStore accepts a Redis connection string (e.g., "hostname:port" or
// "redis://...") and returns a store instance.
func NewRedisCartStore(redisAddr string, log *logrus.Entry) *RedisCartStore {
	opts, err := redis.ParseURL(redisAddr)
	if err != nil {
		// If not in "redis://..." format, use it as a simple Addr.
		opts = &redis.Options{
			Addr:         redisAddr,
			MinIdleConns: 1,
			MaxRetries:   3,
			DialTimeout:  30 * time.Second,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			PoolSize:     10,
			PoolTimeout:  4 * time.Second,
			IdleTimeout:  180 * time.Second,
		}
	}

	client := redis.NewClient(opts)
	client.AddHook(redisotel.NewTracingHook())

	return &RedisCartStore{
		client:       client,
		log:          log.WithField("store", "redis"),
		initAttempts: defaultInitAttempts,
		baseBackoff:  time.Second,
	}
}

// Initialize checks the Redis connection, retrying with exponential backoff.
func (r *RedisCartStore) Initialize(ctx context.Context) error {
	r.log.Info("initializing connection")

	for i := 0; i < r.initAttempts; i++ {
		if r.Ping(ctx) {
			r.log.WithField("attempt", i+1).Info("redis ping successful")
			return nil
		}

		backoff := r.baseBackoff * time.Duration(1<<uint(i))
		if backoff > maxBackoff || backoff <= 0 {
			backoff = maxBackoff
		}
		r.log.WithField("backoff", backoff.String()).Warn("waiting before next attempt")

		// Check if the context was canceled during backoff.
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	return fmt.Errorf("failed to connect to Redis after %d attempts", r.initAttempts)
}

func (r *RedisCartStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.HGet(ctx, key, cartField).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis HGet %s", key)
	}
	return val, nil
}

func (r *RedisCartStore) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.HSet(ctx, key, cartField, value).Err(); err != nil {
		return errors.Wrapf(err, "redis HSet %s", key)
	}
	return nil
}

// Ping checks if Redis is alive.
func (r *RedisCartStore) Ping(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := r.client.Ping(pingCtx).Err(); err != nil {
		r.log.WithError(err).Warn("redis ping failed")
		return false
	}
	return true
}

func (r *RedisCartStore) Close() error {
	return r.client.Close()
}
