// Package cache provides keyed storage for fetched JSON payloads with
// TTL-based staleness. Stale entries are kept until overwritten.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var (
	// ErrCacheNotFound is returned when a cache entry is not found
	ErrCacheNotFound = errors.New("cache entry not found")
)

// Entry is the stored record. Expiry and StoredAt are epoch milliseconds.
type Entry struct {
	Data     json.RawMessage `json:"data"`
	Expiry   int64           `json:"expiry"`
	StoredAt int64           `json:"stored_at,omitempty"`
}

// NewEntry builds an entry stored at now that expires after ttl.
func NewEntry(data json.RawMessage, now time.Time, ttl time.Duration) *Entry {
	return &Entry{
		Data:     data,
		StoredAt: now.UnixMilli(),
		Expiry:   now.Add(ttl).UnixMilli(),
	}
}

// Expired reports whether now is past the entry's expiry.
func (e *Entry) Expired(now time.Time) bool {
	return now.UnixMilli() > e.Expiry
}

// TTL returns the lifetime the entry was written with.
func (e *Entry) TTL() time.Duration {
	return time.Duration(e.Expiry-e.StoredAt) * time.Millisecond
}

// Reader defines the interface for reading cache entries
type Reader interface {
	// Read returns the entry stored under key, and true only if it has not
	// expired at now. A stale entry is still returned with false.
	Read(ctx context.Context, key string, now time.Time) (*Entry, bool)
}

// Writer defines the interface for writing cache entries
type Writer interface {
	// Write stores entry under key, replacing any previous value
	Write(ctx context.Context, key string, entry *Entry) error
}

// Cache combines both cache operations
type Cache interface {
	Reader
	Writer
}

// KeyGenerator generates cache keys from request parameters
type KeyGenerator interface {
	KeyFor(path string, params map[string]string) string
}

// freshness is shared by every backend's Read.
func freshness(entry *Entry, now time.Time) (*Entry, bool) {
	if entry == nil {
		return nil, false
	}
	return entry, !entry.Expired(now)
}
