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

// releaseScript deletes a lease only when it still carries the caller's token,
// so an expired lease re-acquired by another process is never freed by us.
var releaseScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// RedisLockerOptions tunes lease behaviour.
type RedisLockerOptions struct {
	// Prefix namespaces lease keys.
	Prefix string
	// TTL bounds how long a lease survives a crashed holder.
	TTL time.Duration
	// RetryInterval is the pause between SET NX attempts.
	RetryInterval time.Duration
	Logger        *slog.Logger
}

// RedisLocker is a Locker backed by Redis leases, for deployments where more
// than one process assigns campsites against the same store.
type RedisLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	retry  time.Duration
	token  func() string
	logger *slog.Logger
}

// NewRedisLocker constructs a RedisLocker using client.
func NewRedisLocker(client *redis.Client, opts RedisLockerOptions) *RedisLocker {
	if opts.Prefix == "" {
		opts.Prefix = "campground:lock:"
	}
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Second
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 25 * time.Millisecond
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		client: client,
		prefix: opts.Prefix,
		ttl:    opts.TTL,
		retry:  opts.RetryInterval,
		token:  uuid.NewString,
		logger: logger,
	}
}

// Acquire obtains a lease for every key in ascending order.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (Release, error) {
	if l == nil || l.client == nil {
		return nil, errors.New("lock: redis client not configured")
	}

	token := l.token()
	ordered := Normalize(keys)
	held := make([]string, 0, len(ordered))
	for _, key := range ordered {
		if err := l.acquire(ctx, l.prefix+key, token); err != nil {
			l.releaseAll(held, token)
			return nil, err
		}
		held = append(held, l.prefix+key)
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.releaseAll(held, token) })
	}, nil
}

func (l *RedisLocker) acquire(ctx context.Context, key, token string) error {
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("lock: acquire %s: %w", key, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) releaseAll(keys []string, token string) {
	if len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := len(keys) - 1; i >= 0; i-- {
		if err := releaseScript.Run(ctx, l.client, []string{keys[i]}, token).Err(); err != nil {
			l.logger.Error("failed to release lease", "key", keys[i], "error", err)
		}
	}
}
