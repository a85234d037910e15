package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briangreenhill/fpldash/internal/config"
)

func TestNewWiresFeedsAndCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"events": [], "teams": [], "elements": []}`))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesPath, []byte("rules:\n  - match: bootstrap-static/\n    ttl: 1h\n"), 0o600))

	cfg, err := config.LoadFrom(map[string]string{
		"FPL_BASE_URL":  srv.URL + "/api/",
		"CACHE_BACKEND": "memory",
		"RULES_FILE":    rulesPath,
	})
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	defer func() { assert.NoError(t, a.Close()) }()

	assert.Nil(t, a.FootballData)
	assert.NotContains(t, a.Feeds.List(), "table")

	out, err := mustFeed(t, a, "deadline")
	require.NoError(t, err)
	assert.Contains(t, out, "season is over")
}

func TestNewWithFootballData(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CACHE_BACKEND":         "memory",
		"FOOTBALL_DATA_API_KEY": "k",
	})
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, a.FootballData)
	assert.Contains(t, a.Feeds.List(), "table")
}

func TestNewBadRules(t *testing.T) {
	cfg, err := config.LoadFrom(map[string]string{
		"CACHE_BACKEND": "memory",
		"RULES_FILE":    filepath.Join(t.TempDir(), "missing.yaml"),
	})
	require.NoError(t, err)

	_, err = New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func mustFeed(t *testing.T, a *App, name string) (string, error) {
	t.Helper()
	f, ok := a.Feeds.Get(name)
	require.True(t, ok)
	return f.Latest(context.Background())
}
