package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/redis/go-redis/v9"

	"github.com/briangreenhill/fpldash/cache"
)

// OpenCache builds the configured cache backend. The returned close
// function releases the backend and is never nil.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, func() error, error) {
	noop := func() error { return nil }

	switch c.CacheBackend {
	case BackendMemory:
		mc, err := cache.NewMemoryCache(c.CacheSize)
		if err != nil {
			return nil, noop, err
		}
		return mc, noop, nil

	case BackendLevelDB:
		lc, err := cache.NewLevelDBCache(c.LevelDBPath)
		if err != nil {
			return nil, noop, err
		}
		return lc, lc.Close, nil

	case BackendRedis:
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		rc := cache.NewRedisCache(rdb, "")
		if err := rc.Ping(ctx); err != nil {
			_ = rdb.Close()
			return nil, noop, fmt.Errorf("redis %s: %w", c.RedisAddr, err)
		}
		return rc, rdb.Close, nil

	default:
		if c.CacheDir != "" {
			fc, err := cache.NewFileCacheAt(filepath.Clean(c.CacheDir))
			return fc, noop, err
		}
		fc, err := cache.NewFileCache("fpl")
		return fc, noop, err
	}
}
