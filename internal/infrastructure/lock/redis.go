package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired holder cannot release a lock taken over by someone else.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisConfig holds connection and lease settings for RedisLocker
type RedisConfig struct {
	Addr     string // host:port
	Password string
	DB       int

	Key           string
	TTL           time.Duration
	RetryInterval time.Duration
}

// RedisLocker is a Locker backed by a Redis key with a lease
type RedisLocker struct {
	client        *redis.Client
	key           string
	ttl           time.Duration
	retryInterval time.Duration
	logger        *slog.Logger
}

// NewRedisLocker connects to Redis and verifies the connection
func NewRedisLocker(cfg *RedisConfig, logger *slog.Logger) (*RedisLocker, error) {
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	// Ping to verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info("redis connection established",
		slog.String("addr", cfg.Addr),
		slog.Int("db", cfg.DB),
		slog.String("lock_key", cfg.Key))

	return newRedisLocker(client, cfg, logger), nil
}

func newRedisLocker(client *redis.Client, cfg *RedisConfig, logger *slog.Logger) *RedisLocker {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	retry := cfg.RetryInterval
	if retry <= 0 {
		retry = 100 * time.Millisecond
	}

	return &RedisLocker{
		client:        client,
		key:           cfg.Key,
		ttl:           ttl,
		retryInterval: retry,
		logger:        logger,
	}
}

// Lock implements Locker. The lease expires after the configured TTL even if
// the holder never unlocks.
func (r *RedisLocker) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()

	ticker := time.NewTicker(r.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, r.key, token, r.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, errors.Join(ErrNotAcquired, ctxErr)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", r.key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	r.logger.Debug("lock acquired", slog.String("key", r.key))

	var once sync.Once
	return func() {
		once.Do(func() { r.release(token) })
	}, nil
}

// release runs detached from the request context so a canceled request still
// frees the lock.
func (r *RedisLocker) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := releaseScript.Run(ctx, r.client, []string{r.key}, token).Err(); err != nil {
		r.logger.Warn("failed to release lock, it will expire",
			slog.String("key", r.key),
			slog.Duration("ttl", r.ttl),
			slog.Any("error", err))
		return
	}

	r.logger.Debug("lock released", slog.String("key", r.key))
}

// Close closes the Redis connection
func (r *RedisLocker) Close() error {
	r.logger.Info("closing redis connection")
	return r.client.Close()
}
