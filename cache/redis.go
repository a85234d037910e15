package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache stores entries in redis so several processes share them.
// Keys carry no redis TTL: stale entries stay readable for stale fallback.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
}

// NewRedisCache wraps an existing client. prefix namespaces every key.
func NewRedisCache(rdb redis.UniversalClient, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "fpldash:"
	}
	return &RedisCache{rdb: rdb, prefix: prefix}
}

// Read implements Reader interface
func (rc *RedisCache) Read(ctx context.Context, key string, now time.Time) (*Entry, bool) {
	b, err := rc.rdb.Get(ctx, rc.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, false
	}
	return freshness(&entry, now)
}

// Write implements Writer interface
func (rc *RedisCache) Write(ctx context.Context, key string, entry *Entry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return rc.rdb.Set(ctx, rc.prefix+key, b, 0).Err()
}

// Ping checks connectivity
func (rc *RedisCache) Ping(ctx context.Context) error {
	if err := rc.rdb.Ping(ctx).Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("redis ping timed out")
		}
		return err
	}
	return nil
}
