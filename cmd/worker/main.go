package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"

	"github.com/briangreenhill/fpldash/internal/app"
	"github.com/briangreenhill/fpldash/internal/config"
	"github.com/briangreenhill/fpldash/internal/jobs"
	"github.com/briangreenhill/fpldash/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateWorker()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogPretty)

	a, err := app.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("unable to build clients")
	}
	defer func() { _ = a.Close() }()

	srv := asynq.NewServer(asynq.RedisClientOpt{Addr: cfg.RedisAddr}, asynq.Config{
		Concurrency:    cfg.Concurrency,
		StrictPriority: false,
		Queues: map[string]int{
			jobs.QueueWarm: 10, // higher priority
			"default":      5,  // default priority
		},
		Logger: logging.AsynqLogger{L: logger.With().Str("component", "asynq").Logger()},
	})
	mux := asynq.NewServeMux()
	mux.Handle(jobs.TaskWarm, &jobs.WarmHandler{
		Resolver: a.Fetch,
		Policies: a.FPL,
		Log:      logger,
	})

	logger.Info().Str("redis", cfg.RedisAddr).Msg("worker running")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker stopped")
	}
}
