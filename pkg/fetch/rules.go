package fetch

import (
	"sort"
	"strings"
	"time"
)

// Rule overrides the cache behaviour for resources starting with Prefix.
type Rule struct {
	Prefix   string
	Priority int
	TTL      time.Duration
	Mode     CacheMode
	HasMode  bool
	NoCache  bool
}

// Rules are checked in ascending priority order; the first match wins.
type Rules []Rule

// Sorted returns a copy ordered by priority.
func (rs Rules) Sorted() Rules {
	out := make(Rules, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority < out[j].Priority })
	return out
}

// Match returns the first rule whose prefix matches resource.
func (rs Rules) Match(resource string) (Rule, bool) {
	resource = strings.TrimLeft(resource, "/")
	for _, r := range rs {
		if strings.HasPrefix(resource, strings.TrimLeft(r.Prefix, "/")) {
			return r, true
		}
	}
	return Rule{}, false
}

// Apply adjusts a default cache spec with the matching rule, if any.
// A nil result disables caching.
func (rs Rules) Apply(resource string, def CacheSpec) *CacheSpec {
	spec := def
	r, ok := rs.Match(resource)
	if !ok {
		return &spec
	}
	if r.NoCache {
		return nil
	}
	if r.TTL > 0 {
		spec.TTL = r.TTL
	}
	if r.HasMode {
		spec.Mode = r.Mode
	}
	return &spec
}
