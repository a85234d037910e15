package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

const leveldbPrefix = "e:"

// LevelDBCache persists entries in a local leveldb database. Suitable for
// sharing a cache between the API and a worker on the same host, one at a time.
type LevelDBCache struct {
	db *leveldb.DB
}

// NewLevelDBCache opens (or creates) the database at path
func NewLevelDBCache(path string) (*LevelDBCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBCache{db: db}, nil
}

// NewMemLevelDBCache opens a leveldb cache on in-memory storage
func NewMemLevelDBCache() (*LevelDBCache, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &LevelDBCache{db: db}, nil
}

// Read implements Reader interface
func (lc *LevelDBCache) Read(_ context.Context, key string, now time.Time) (*Entry, bool) {
	entry, err := lc.get(key)
	if err != nil {
		return nil, false
	}
	return freshness(entry, now)
}

func (lc *LevelDBCache) get(key string) (*Entry, error) {
	b, err := lc.db.Get([]byte(leveldbPrefix+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrCacheNotFound
	}
	if err != nil {
		return nil, err
	}
	var entry Entry
	if err := json.Unmarshal(b, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Write implements Writer interface
func (lc *LevelDBCache) Write(_ context.Context, key string, entry *Entry) error {
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return lc.db.Put([]byte(leveldbPrefix+key), b, nil)
}

// Close releases the database
func (lc *LevelDBCache) Close() error {
	return lc.db.Close()
}
