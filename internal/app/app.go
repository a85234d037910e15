// Package app wires configuration into the clients every binary uses.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/briangreenhill/fpldash/cache"
	"github.com/briangreenhill/fpldash/internal/config"
	"github.com/briangreenhill/fpldash/internal/feeds"
	"github.com/briangreenhill/fpldash/pkg/fetch"
	"github.com/briangreenhill/fpldash/pkg/footballdata"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

type App struct {
	Cache        cache.Cache
	Fetch        *fetch.Client
	FPL          *fpl.Client
	FootballData *footballdata.Client // nil without an API key
	Feeds        *feeds.Registry

	closeCache func() error
}

// New opens the cache and builds the clients. Call Close when done.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	store, closeCache, err := cfg.OpenCache(ctx)
	if err != nil {
		return nil, fmt.Errorf("open %s cache: %w", cfg.CacheBackend, err)
	}

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	a := &App{Cache: store, closeCache: closeCache}

	a.Fetch = fetch.New(
		fetch.WithHTTPClient(httpClient),
		fetch.WithBaseURL(cfg.FPLBaseURL),
		fetch.WithCache(store),
		fetch.WithLogger(log.With().Str("component", "fetch").Logger()),
		fetch.WithConcurrency(cfg.Concurrency),
	)
	a.FPL = fpl.NewClient(a.Fetch, fpl.Routes{
		Primary:  cfg.PrimaryRoute(),
		Fallback: cfg.FallbackRoute(),
	}, rules)

	if cfg.HasFootballData() {
		fdFetch := fetch.New(
			fetch.WithHTTPClient(httpClient),
			fetch.WithBaseURL(cfg.FootballDataBaseURL),
			fetch.WithCache(store),
			fetch.WithLogger(log.With().Str("component", "footballdata").Logger()),
		)
		a.FootballData = footballdata.New(fdFetch, cfg.FootballDataAPIKey,
			footballdata.WithFallback(cfg.FallbackRoute()))
	}

	a.Feeds = feeds.Setup(feeds.Deps{
		FPL:          a.FPL,
		FootballData: a.FootballData,
		LeagueID:     cfg.LeagueID,
		Log:          log.With().Str("component", "feeds").Logger(),
	})
	return a, nil
}

// Close releases the cache backend.
func (a *App) Close() error {
	return a.closeCache()
}
