// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/briangreenhill/fpldash/pkg/fetch"
)

// Cache backends
const (
	BackendFile    = "file"
	BackendMemory  = "memory"
	BackendLevelDB = "leveldb"
	BackendRedis   = "redis"
)

// Config holds all application configuration
type Config struct {
	FPLBaseURL string `env:"FPL_BASE_URL" envDefault:"https://fantasy.premierleague.com/api/"`

	PrimaryProxy        string `env:"PRIMARY_PROXY"`
	PrimaryProxyEncode  bool   `env:"PRIMARY_PROXY_ENCODE"`
	FallbackProxy       string `env:"FALLBACK_PROXY"`
	FallbackProxyEncode bool   `env:"FALLBACK_PROXY_ENCODE" envDefault:"true"`

	CacheBackend string `env:"CACHE_BACKEND" envDefault:"file"`
	CacheDir     string `env:"CACHE_DIR"`
	CacheSize    int    `env:"CACHE_SIZE" envDefault:"512"`
	RedisAddr    string `env:"REDIS_ADDR"`
	LevelDBPath  string `env:"LEVELDB_PATH"`
	RulesFile    string `env:"RULES_FILE"`

	FootballDataAPIKey  string `env:"FOOTBALL_DATA_API_KEY"`
	FootballDataBaseURL string `env:"FOOTBALL_DATA_BASE_URL" envDefault:"https://api.football-data.org/v4/"`

	Port         string        `env:"PORT" envDefault:"8080"`
	HTTPTimeout  time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s"`
	Concurrency  int           `env:"FETCH_CONCURRENCY" envDefault:"8"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"1m"`
	LeagueID     int           `env:"FPL_LEAGUE_ID"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY"`
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads configuration from the given variables only.
func LoadFrom(environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values env parsing cannot.
func (c *Config) Validate() error {
	if err := absoluteURL("FPL_BASE_URL", c.FPLBaseURL); err != nil {
		return err
	}
	for name, v := range map[string]string{
		"PRIMARY_PROXY":  c.PrimaryProxy,
		"FALLBACK_PROXY": c.FallbackProxy,
	} {
		if v == "" {
			continue
		}
		if err := absoluteURL(name, v); err != nil {
			return err
		}
	}

	switch c.CacheBackend {
	case BackendFile, BackendMemory:
	case BackendLevelDB:
		if c.LevelDBPath == "" {
			return fmt.Errorf("LEVELDB_PATH is required for the leveldb cache backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache backend")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}

	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.PollInterval < 0 {
		return fmt.Errorf("POLL_INTERVAL must not be negative, got %s", c.PollInterval)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must be positive, got %d", c.Concurrency)
	}
	return nil
}

func absoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	return nil
}

// HasFootballData returns true if a football-data.org key is set
func (c *Config) HasFootballData() bool {
	return c.FootballDataAPIKey != ""
}

// HasQueue returns true if a redis server is available for asynq
func (c *Config) HasQueue() bool {
	return c.RedisAddr != ""
}

// PrimaryRoute is Direct unless a primary proxy is configured.
func (c *Config) PrimaryRoute() fetch.Transform {
	if c.PrimaryProxy == "" {
		return fetch.Direct()
	}
	return fetch.Proxy(c.PrimaryProxy, c.PrimaryProxyEncode)
}

// FallbackRoute is disabled when no fallback proxy is configured.
func (c *Config) FallbackRoute() fetch.Transform {
	return fetch.Proxy(c.FallbackProxy, c.FallbackProxyEncode)
}

// SharesCache reports whether another process can read what this one
// caches. Memory is private and leveldb holds an exclusive lock on its
// directory.
func (c *Config) SharesCache() bool {
	return c.CacheBackend == BackendFile || c.CacheBackend == BackendRedis
}

// ValidateWorker checks the settings the warm worker needs on top of
// Validate.
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.HasQueue() {
		return fmt.Errorf("REDIS_ADDR is required for the worker")
	}
	if !c.SharesCache() {
		return fmt.Errorf("CACHE_BACKEND %q cannot be shared with the api; use %s or %s", c.CacheBackend, BackendRedis, BackendFile)
	}
	return nil
}
