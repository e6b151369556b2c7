package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// delete the key only if we still own it
const releaseScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`

type redisLocker struct {
	client   *redis.Client
	prefix   string
	log      *slog.Logger
	newToken func() string
}

func NewRedisLocker(client *redis.Client, prefix string, log *slog.Logger) Locker {
	return &redisLocker{
		client:   client,
		prefix:   prefix,
		log:      log,
		newToken: uuid.NewString,
	}
}

func (l *redisLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	k := l.prefix + key
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, k, token, ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("redis setnx %s: %w", k, err)
	}
	if !ok {
		return nil, false, nil
	}

	return func() {
		// the request context may already be done
		if err := l.client.Eval(context.Background(), releaseScript, []string{k}, token).Err(); err != nil {
			l.log.Warn("release redis claim", "key", k, "error", err)
		}
	}, true, nil
}
