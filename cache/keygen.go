package cache

import (
	"crypto/md5"
	"fmt"
	"net/url"
	"strings"
)

// KeyGenerators provides different key generation strategies
type KeyGenerators struct{}

// URLToKey converts a URL to a cache key built from host, path and query
func (kg *KeyGenerators) URLToKey(requestURL string) string {
	u, err := url.Parse(requestURL)
	if err != nil || u.Host == "" {
		return sanitizeKey(requestURL)
	}

	parts := []string{u.Host}
	if p := strings.Trim(u.Path, "/"); p != "" {
		parts = append(parts, p)
	}
	if u.RawQuery != "" {
		// Hash query params if too long
		if len(u.RawQuery) > 100 {
			hash := md5.Sum([]byte(u.RawQuery))
			parts = append(parts, fmt.Sprintf("q_%x", hash))
		} else {
			parts = append(parts, u.RawQuery)
		}
	}

	return sanitizeKey(strings.Join(parts, "_"))
}

// PathParamsToKey converts path and params to a cache key
func (kg *KeyGenerators) PathParamsToKey(path string, params map[string]string) string {
	fc := &FileCache{}
	return fc.KeyFor(path, params)
}

// Namespaced prefixes key with ns so unrelated callers cannot collide.
func (kg *KeyGenerators) Namespaced(ns, key string) string {
	if ns == "" {
		return key
	}
	return ns + ":" + key
}

// DefaultKeyGenerator provides a shared key generator instance
var DefaultKeyGenerator = &KeyGenerators{}
