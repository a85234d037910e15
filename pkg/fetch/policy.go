package fetch

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/briangreenhill/fpldash/cache"
)

// Transform maps an upstream target URL to the URL actually requested.
// Returning false means the route is disabled.
type Transform func(target string) (string, bool)

// Direct requests the target as is.
func Direct() Transform {
	return func(target string) (string, bool) { return target, true }
}

// None disables a route.
func None() Transform {
	return func(string) (string, bool) { return "", false }
}

// PrefixRaw prepends prefix to the unencoded target URL.
func PrefixRaw(prefix string) Transform {
	if prefix == "" {
		return None()
	}
	return func(target string) (string, bool) { return prefix + target, true }
}

// PrefixEncoded prepends prefix to the percent-encoded target URL.
func PrefixEncoded(prefix string) Transform {
	if prefix == "" {
		return None()
	}
	return func(target string) (string, bool) { return prefix + url.QueryEscape(target), true }
}

// Proxy picks PrefixEncoded or PrefixRaw.
func Proxy(prefix string, encode bool) Transform {
	if encode {
		return PrefixEncoded(prefix)
	}
	return PrefixRaw(prefix)
}

// SameOrigin reroutes targets under upstream to the same path under base,
// e.g. a local function that forwards to the upstream API.
func SameOrigin(base, upstream string) Transform {
	base = strings.TrimRight(base, "/") + "/"
	upstream = strings.TrimRight(upstream, "/") + "/"
	return func(target string) (string, bool) {
		rest, ok := strings.CutPrefix(target, upstream)
		if !ok {
			return "", false
		}
		return base + rest, true
	}
}

// CacheMode selects how a cached entry interacts with the network.
type CacheMode int

const (
	// CacheFirst returns a fresh entry without touching the network.
	CacheFirst CacheMode = iota
	// NetworkFirstStale behaves like CacheFirst while the entry is fresh;
	// once stale it fetches, and returns the stale payload if every
	// transport fails.
	NetworkFirstStale
)

func (m CacheMode) String() string {
	switch m {
	case NetworkFirstStale:
		return "network-first"
	default:
		return "cache-first"
	}
}

// ParseCacheMode accepts "cache-first" and "network-first".
func ParseCacheMode(s string) (CacheMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cache-first":
		return CacheFirst, true
	case "network-first", "network-first-stale":
		return NetworkFirstStale, true
	default:
		return CacheFirst, false
	}
}

// KeyFunc builds the cache key for a resource.
type KeyFunc func(resource string) string

// StaticKey always yields key.
func StaticKey(key string) KeyFunc {
	return func(string) string { return key }
}

// NamespacedKey derives a filesystem-safe key from the resource under ns.
func NamespacedKey(ns string) KeyFunc {
	return func(resource string) string {
		return cache.DefaultKeyGenerator.Namespaced(ns, cache.DefaultKeyGenerator.URLToKey(resource))
	}
}

// CacheSpec enables caching for a Policy.
type CacheSpec struct {
	Key  KeyFunc
	TTL  time.Duration
	Mode CacheMode
}

func (s *CacheSpec) key(resource string) string {
	if s.Key == nil {
		return cache.DefaultKeyGenerator.URLToKey(resource)
	}
	return s.Key(resource)
}

// RequestOptions are passed through to the transport.
type RequestOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
}

// Policy describes how to reach a resource.
type Policy struct {
	// Primary defaults to Direct when nil.
	Primary Transform
	// Fallback is tried once when Primary fails. Nil disables it.
	Fallback Transform
	// Cache is optional.
	Cache   *CacheSpec
	Request RequestOptions
	// Expect lists top-level keys the JSON object must contain.
	Expect []string
	// Validate runs after Expect on every payload, both before it is cached
	// and when it is read back. An error marks the payload malformed.
	Validate func(data json.RawMessage) error
}

// WithCache returns a copy of p using spec.
func (p Policy) WithCache(spec *CacheSpec) Policy {
	p.Cache = spec
	return p
}

// WithExpect returns a copy of p requiring keys.
func (p Policy) WithExpect(keys ...string) Policy {
	p.Expect = keys
	return p
}

// WithValidate returns a copy of p that checks payloads with fn.
func (p Policy) WithValidate(fn func(json.RawMessage) error) Policy {
	p.Validate = fn
	return p
}

// WithHeader returns a copy of p with an extra request header.
func (p Policy) WithHeader(k, v string) Policy {
	h := make(map[string]string, len(p.Request.Headers)+1)
	for kk, vv := range p.Request.Headers {
		h[kk] = vv
	}
	h[k] = v
	p.Request.Headers = h
	return p
}
