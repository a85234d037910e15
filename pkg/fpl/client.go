// Package fpl reads the Fantasy Premier League public API through the
// resilient fetch client and derives the dashboard metrics.
package fpl

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/briangreenhill/fpldash/pkg/fetch"
)

const DefaultBaseURL = "https://fantasy.premierleague.com/api/"

// CacheNamespace prefixes every FPL cache key.
const CacheNamespace = "fpl"

// resource prefixes served by the upstream API, with their default caching.
var defaults = []struct {
	prefix string
	spec   fetch.CacheSpec
}{
	{"bootstrap-static/", fetch.CacheSpec{TTL: 24 * time.Hour}},
	{"fixtures/", fetch.CacheSpec{TTL: time.Hour}},
	{"event-status/", fetch.CacheSpec{TTL: time.Minute, Mode: fetch.NetworkFirstStale}},
	{"event/", fetch.CacheSpec{TTL: 30 * time.Second, Mode: fetch.NetworkFirstStale}},
	{"leagues-classic/", fetch.CacheSpec{TTL: 5 * time.Minute}},
	{"entry/", fetch.CacheSpec{TTL: 5 * time.Minute}},
	{"element-summary/", fetch.CacheSpec{TTL: time.Hour}},
}

// Allowed reports whether resource is one of the known upstream endpoints.
// The decoded path must already be clean, so escaped dot segments cannot
// climb out of the API root.
func Allowed(resource string) bool {
	resource = strings.TrimLeft(resource, "/")
	if resource == "" || strings.Contains(resource, "://") || strings.Contains(resource, `\`) {
		return false
	}
	u, err := url.Parse(resource)
	if err != nil || u.Scheme != "" || u.Host != "" || u.Opaque != "" {
		return false
	}
	clean := path.Clean(u.Path)
	if strings.HasSuffix(u.Path, "/") {
		clean += "/"
	}
	if clean != u.Path || strings.HasPrefix(clean, "..") {
		return false
	}
	_, ok := defaultSpec(u.Path)
	return ok
}

func defaultSpec(resource string) (fetch.CacheSpec, bool) {
	for _, d := range defaults {
		if strings.HasPrefix(resource, d.prefix) {
			return d.spec, true
		}
	}
	return fetch.CacheSpec{}, false
}

// shape is what a resource's payload must look like before it is cached.
type shape struct {
	expect []string
	decode func() any
}

func shapeOf(resource string) shape {
	p := resource
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	segs := strings.Split(strings.Trim(p, "/"), "/")
	switch {
	case segs[0] == "bootstrap-static":
		return shape{[]string{"events", "teams", "elements"}, func() any { return new(Bootstrap) }}
	case segs[0] == "fixtures":
		return shape{nil, func() any { return new([]Fixture) }}
	case segs[0] == "event" && len(segs) == 3 && segs[2] == "live":
		return shape{[]string{"elements"}, func() any { return new(LiveEvent) }}
	case segs[0] == "leagues-classic":
		return shape{[]string{"league", "standings"}, func() any { return new(LeagueStandings) }}
	case segs[0] == "entry" && len(segs) == 5 && segs[4] == "picks":
		return shape{[]string{"picks"}, func() any { return new(Picks) }}
	case segs[0] == "entry" && len(segs) == 2:
		return shape{[]string{"id"}, func() any { return new(Entry) }}
	}
	return shape{}
}

// Routes are the transports used for every FPL request.
type Routes struct {
	Primary  fetch.Transform
	Fallback fetch.Transform
}

// Client is a typed FPL API client.
type Client struct {
	fetch  *fetch.Client
	routes Routes
	rules  fetch.Rules
}

// NewClient wraps f, whose base URL should point at the FPL API.
func NewClient(f *fetch.Client, routes Routes, rules fetch.Rules) *Client {
	return &Client{fetch: f, routes: routes, rules: rules.Sorted()}
}

// PolicyFor returns the policy used for resource. Without explicit expect
// keys, the resource's known shape applies, so every caller sharing a cache
// key validates payloads the same way.
func (c *Client) PolicyFor(resource string, expect ...string) fetch.Policy {
	resource = strings.TrimLeft(resource, "/")
	def, ok := defaultSpec(resource)
	if !ok {
		def = fetch.CacheSpec{TTL: 5 * time.Minute}
	}
	def.Key = fetch.NamespacedKey(CacheNamespace)

	sh := shapeOf(resource)
	if len(expect) == 0 {
		expect = sh.expect
	}
	p := fetch.Policy{
		Primary:  c.routes.Primary,
		Fallback: c.routes.Fallback,
		Cache:    c.rules.Apply(resource, def),
		Expect:   expect,
	}
	if sh.decode != nil {
		p.Validate = func(data json.RawMessage) error {
			return json.Unmarshal(data, sh.decode())
		}
	}
	return p
}

// Raw resolves any allowed resource and returns the payload untouched once
// it passes the resource's shape check.
func (c *Client) Raw(ctx context.Context, resource string) (fetch.Result, error) {
	if !Allowed(resource) {
		return fetch.Result{}, fmt.Errorf("fpl: resource %q not allowed", resource)
	}
	return c.fetch.ResolveDetailed(ctx, resource, c.PolicyFor(resource))
}

func (c *Client) get(ctx context.Context, resource string, out any, expect ...string) error {
	data, err := c.fetch.Resolve(ctx, resource, c.PolicyFor(resource, expect...))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fetch.Malformed(resource, err)
	}
	return nil
}

func (c *Client) Bootstrap(ctx context.Context) (*Bootstrap, error) {
	var b Bootstrap
	if err := c.get(ctx, "bootstrap-static/", &b, "events", "teams", "elements"); err != nil {
		return nil, err
	}
	return &b, nil
}

// Fixtures returns the fixtures of gameweek gw, or all fixtures when gw <= 0.
func (c *Client) Fixtures(ctx context.Context, gw int) ([]Fixture, error) {
	resource := "fixtures/"
	if gw > 0 {
		resource = fmt.Sprintf("fixtures/?event=%d", gw)
	}
	var fx []Fixture
	if err := c.get(ctx, resource, &fx); err != nil {
		return nil, err
	}
	return fx, nil
}

func (c *Client) Live(ctx context.Context, gw int) (*LiveEvent, error) {
	var l LiveEvent
	if err := c.get(ctx, fmt.Sprintf("event/%d/live/", gw), &l, "elements"); err != nil {
		return nil, err
	}
	return &l, nil
}

// ClassicLeague returns one page (1-based) of a classic league table.
func (c *Client) ClassicLeague(ctx context.Context, id, page int) (*LeagueStandings, error) {
	if page <= 0 {
		page = 1
	}
	var ls LeagueStandings
	resource := fmt.Sprintf("leagues-classic/%d/standings/?page_standings=%d", id, page)
	if err := c.get(ctx, resource, &ls, "league", "standings"); err != nil {
		return nil, err
	}
	return &ls, nil
}

func (c *Client) Entry(ctx context.Context, id int) (*Entry, error) {
	var e Entry
	if err := c.get(ctx, fmt.Sprintf("entry/%d/", id), &e, "id"); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) EntryPicks(ctx context.Context, id, gw int) (*Picks, error) {
	var p Picks
	if err := c.get(ctx, fmt.Sprintf("entry/%d/event/%d/picks/", id, gw), &p, "picks"); err != nil {
		return nil, err
	}
	return &p, nil
}

// ManyPicks fetches picks for several entries concurrently. Failed entries
// are reported in the error map and omitted from the result.
func (c *Client) ManyPicks(ctx context.Context, entries []int, gw int) (map[int]*Picks, map[int]error) {
	reqs := make([]fetch.Request, len(entries))
	for i, id := range entries {
		resource := fmt.Sprintf("entry/%d/event/%d/picks/", id, gw)
		reqs[i] = fetch.Request{Resource: resource, Policy: c.PolicyFor(resource, "picks")}
	}

	picks := make(map[int]*Picks, len(entries))
	errs := make(map[int]error)
	for i, s := range c.fetch.ResolveAll(ctx, reqs) {
		id := entries[i]
		if s.Err != nil {
			errs[id] = s.Err
			continue
		}
		var p Picks
		if err := json.Unmarshal(s.Data, &p); err != nil {
			errs[id] = fetch.Malformed(s.Resource, err)
			continue
		}
		picks[id] = &p
	}
	return picks, errs
}
