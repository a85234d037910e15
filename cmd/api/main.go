// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/briangreenhill/fpldash/internal/app"
	"github.com/briangreenhill/fpldash/internal/config"
	"github.com/briangreenhill/fpldash/internal/http/routes"
	"github.com/briangreenhill/fpldash/internal/jobs"
	"github.com/briangreenhill/fpldash/internal/logging"
	"github.com/briangreenhill/fpldash/internal/poller"
	"github.com/briangreenhill/fpldash/pkg/fpl"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	// Logger
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("api stopped")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn().Err(err).Msg("close cache")
		}
	}()

	// Queue is optional; /api/warm answers 503 without it.
	var queue jobs.Enqueuer
	if cfg.HasQueue() {
		if !cfg.SharesCache() {
			logger.Warn().Str("cache", cfg.CacheBackend).Msg("warm tasks fill the worker's cache, which this api cannot read")
		}
		qc := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = qc.Close() }()
		queue = qc
	}

	// Keep the current gameweek's live data warm.
	var p *poller.Poller
	if cfg.PollInterval > 0 {
		p = poller.New("live", cfg.PollInterval, warmLive(a.FPL), logger)
		p.Start(true)
	}

	s := routes.New(routes.ServerOptions{
		FPL:    a.FPL,
		Feeds:  a.Feeds,
		Queue:  queue,
		Logger: logger,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Str("cache", cfg.CacheBackend).Msg("starting api")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if p != nil {
		if err := p.Stop(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("poller did not stop in time")
		}
	}
	return srv.Shutdown(shutdownCtx)
}

// warmLive refreshes bootstrap and the current gameweek's live scores.
func warmLive(c *fpl.Client) poller.Func {
	return func(ctx context.Context) error {
		b, err := c.Bootstrap(ctx)
		if err != nil {
			return err
		}
		ev, ok := fpl.CurrentEvent(b.Events)
		if !ok {
			return nil
		}
		_, err = c.Live(ctx, ev.ID)
		return err
	}
}
