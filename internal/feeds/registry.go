// Package feeds renders FPL data as plain-text feeds.
package feeds

import (
	"context"
	"errors"
	"sort"
)

// ErrUnsupported is returned by Get on feeds that take no id.
var ErrUnsupported = errors.New("feed does not take an id")

// ErrBadID means the id could not be parsed.
var ErrBadID = errors.New("invalid id")

// Feed defines the interface every feed implements
type Feed interface {
	// Name returns the name of the feed (e.g., "deadline", "league")
	Name() string

	// Latest renders the feed for the current gameweek or default target
	Latest(ctx context.Context) (string, error)

	// Get renders the feed for a specific id (gameweek, league, season)
	Get(ctx context.Context, id string) (string, error)
}

// Registry manages available feeds
type Registry struct {
	feeds map[string]Feed
}

// NewRegistry creates a new feed registry
func NewRegistry() *Registry {
	return &Registry{
		feeds: make(map[string]Feed),
	}
}

// Register adds a feed to the registry
func (r *Registry) Register(f Feed) {
	r.feeds[f.Name()] = f
}

// Get retrieves a feed by name
func (r *Registry) Get(name string) (Feed, bool) {
	f, ok := r.feeds[name]
	return f, ok
}

// List returns all registered feed names, sorted
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.feeds))
	for name := range r.feeds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
