// Package footballdata reads league tables from football-data.org.
package footballdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/briangreenhill/fpldash/pkg/fetch"
)

const DefaultBaseURL = "https://api.football-data.org/v4/"

// ErrNoTotalTable is wrapped in a MalformedResponse when the standings
// carry no TOTAL table.
var ErrNoTotalTable = errors.New("no TOTAL table in standings")

type Row struct {
	Position       int    `json:"position"`
	Team           Team   `json:"team"`
	PlayedGames    int    `json:"playedGames"`
	Won            int    `json:"won"`
	Draw           int    `json:"draw"`
	Lost           int    `json:"lost"`
	Points         int    `json:"points"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	GoalDifference int    `json:"goalDifference"`
	Form           string `json:"form,omitempty"`
}

type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	TLA  string `json:"tla"`
}

type Table struct {
	Type  string `json:"type"`
	Table []Row  `json:"table"`
}

type standingsResp struct {
	Competition struct {
		Code string `json:"code"`
		Name string `json:"name"`
	} `json:"competition"`
	Season struct {
		StartDate string `json:"startDate"`
	} `json:"season"`
	Standings []Table `json:"standings"`
}

// Client fetches standings through a resilient fetch client.
type Client struct {
	fetch  *fetch.Client
	apiKey string
	base   fetch.Policy
	ttl    time.Duration
}

type Option func(*Client)

// WithFallback routes failed requests through a proxy.
func WithFallback(t fetch.Transform) Option {
	return func(c *Client) { c.base.Fallback = t }
}

// WithTTL overrides the default one hour cache lifetime.
func WithTTL(ttl time.Duration) Option {
	return func(c *Client) { c.ttl = ttl }
}

// New wraps f, whose base URL should point at the v4 API.
func New(f *fetch.Client, apiKey string, opts ...Option) *Client {
	c := &Client{
		fetch:  f,
		apiKey: apiKey,
		base:   fetch.Policy{Primary: fetch.Direct(), Fallback: fetch.None()},
		ttl:    time.Hour,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) policy() fetch.Policy {
	p := c.base.
		WithCache(&fetch.CacheSpec{Key: fetch.NamespacedKey("fd"), TTL: c.ttl}).
		WithExpect("standings").
		WithValidate(func(data json.RawMessage) error {
			_, err := totalTable(data)
			return err
		})
	if c.apiKey != "" {
		p = p.WithHeader("X-Auth-Token", c.apiKey)
	}
	return p
}

// Standings returns the TOTAL table of competition (e.g. "PL"). season is
// the starting year; zero means the current season.
func (c *Client) Standings(ctx context.Context, competition string, season int) (*Table, error) {
	resource := fmt.Sprintf("competitions/%s/standings", url.PathEscape(strings.ToUpper(competition)))
	if season > 0 {
		resource += fmt.Sprintf("?season=%d", season)
	}

	data, err := c.fetch.Resolve(ctx, resource, c.policy())
	if err != nil {
		return nil, err
	}
	t, err := totalTable(data)
	if err != nil {
		return nil, fetch.Malformed(resource, err)
	}
	return t, nil
}

func totalTable(data []byte) (*Table, error) {
	var sr standingsResp
	if err := json.Unmarshal(data, &sr); err != nil {
		return nil, err
	}
	for i := range sr.Standings {
		if strings.EqualFold(sr.Standings[i].Type, "TOTAL") {
			return &sr.Standings[i], nil
		}
	}
	return nil, ErrNoTotalTable
}
