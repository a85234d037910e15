package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemorySize bounds a MemoryCache created with size <= 0.
const DefaultMemorySize = 512

// MemoryCache is a bounded in-process cache. Least recently used keys are
// dropped once the size is reached, regardless of expiry.
type MemoryCache struct {
	lru *lru.Cache[string, Entry]
}

// NewMemoryCache creates a memory cache holding at most size entries
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	c, err := lru.New[string, Entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{lru: c}, nil
}

// Read implements Reader interface
func (mc *MemoryCache) Read(_ context.Context, key string, now time.Time) (*Entry, bool) {
	entry, ok := mc.lru.Get(key)
	if !ok {
		return nil, false
	}
	return freshness(&entry, now)
}

// Write implements Writer interface
func (mc *MemoryCache) Write(_ context.Context, key string, entry *Entry) error {
	// copy so later mutation of entry.Data by the caller is not observed
	data := make([]byte, len(entry.Data))
	copy(data, entry.Data)
	mc.lru.Add(key, Entry{Data: data, Expiry: entry.Expiry, StoredAt: entry.StoredAt})
	return nil
}

// Len returns the number of stored entries, stale ones included
func (mc *MemoryCache) Len() int {
	return mc.lru.Len()
}
