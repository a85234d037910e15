package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/user"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileCache implements the Cache interface using filesystem storage
type FileCache struct {
	dir string
}

// NewFileCache creates a new file-based cache in the specified subdirectory
// of ~/.fpldash_cache. If subdir is empty, the base directory is used.
func NewFileCache(subdir string) (*FileCache, error) {
	usr, err := user.Current()
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Join(usr.HomeDir, ".fpldash_cache")
	if subdir != "" {
		baseDir = filepath.Join(baseDir, subdir)
	}
	return NewFileCacheAt(baseDir)
}

// NewFileCacheAt creates a file-based cache rooted at dir
func NewFileCacheAt(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Read implements Reader interface
func (fc *FileCache) Read(_ context.Context, key string, now time.Time) (*Entry, bool) {
	data, err := os.ReadFile(fc.path(key))
	if err != nil {
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false
	}
	return freshness(&entry, now)
}

// Write implements Writer interface
func (fc *FileCache) Write(_ context.Context, key string, entry *Entry) error {
	path := fc.path(key)

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}

	// Write to temporary file first, then rename (atomic operation)
	tmpPath := path + fmt.Sprintf(".tmp.%d", rand.Int())
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpPath, path)
}

// KeyFor implements KeyGenerator interface
func (fc *FileCache) KeyFor(path string, params map[string]string) string {
	var parts []string
	for k, v := range params {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)

	cleanPath := strings.Trim(strings.ReplaceAll(path, "/", "_"), "_")

	if len(parts) > 0 {
		return cleanPath + "__" + strings.Join(parts, "__")
	}
	return cleanPath
}

// path generates the full filesystem path for a cache key
func (fc *FileCache) path(key string) string {
	return filepath.Join(fc.dir, sanitizeKey(key)+".json")
}

// sanitizeKey ensures the key is safe for use as a filename
func sanitizeKey(key string) string {
	// For very long keys, use hash to avoid filesystem limits
	if len(key) > 200 {
		hash := md5.Sum([]byte(key))
		return fmt.Sprintf("hash_%x", hash)
	}

	unsafe := []string{"/", "\\", ":", "?", "&", "=", "#", "<", ">", "|", "*", "\"", " "}
	result := key
	for _, char := range unsafe {
		result = strings.ReplaceAll(result, char, "_")
	}
	return result
}
