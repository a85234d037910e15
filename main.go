package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/briangreenhill/fpldash/internal/app"
	"github.com/briangreenhill/fpldash/internal/config"
	"github.com/briangreenhill/fpldash/internal/feeds"
	"github.com/briangreenhill/fpldash/internal/logging"
)

const version = "fpldash v0.1.0"

func main() {
	if err := runCLI(context.Background(), os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		switch args[0] {
		case "help", "--help", "-h":
			usage(out)
			return nil
		case "version", "--version", "-v":
			fmt.Fprintln(out, version)
			return nil
		}
	}

	cfg, err := config.Load()
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// The CLI prints feeds on stdout, so logs go to stderr.
	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogPretty)
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if len(args) == 0 || args[0] == "list" {
		fmt.Fprintln(out, strings.Join(a.Feeds.List(), "\n"))
		return nil
	}
	return runFeed(ctx, a.Feeds, args, out)
}

// runFeed renders one feed, for a specific id when one is given.
func runFeed(ctx context.Context, registry *feeds.Registry, args []string, out io.Writer) error {
	name := args[0]
	f, ok := registry.Get(name)
	if !ok {
		return fmt.Errorf("unknown feed %q. Available feeds: %v", name, registry.List())
	}

	var (
		output string
		err    error
	)
	if len(args) > 1 {
		output, err = f.Get(ctx, args[1])
		if errors.Is(err, feeds.ErrBadID) || errors.Is(err, feeds.ErrUnsupported) {
			return fmt.Errorf("%s %s: %w", name, args[1], err)
		}
	} else {
		output, err = f.Latest(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", name, err)
	}

	fmt.Fprint(out, output)
	return nil
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "Usage: fpldash [command | feed [id]]")
	fmt.Fprintln(out, "Commands:")
	fmt.Fprintln(out, "  help, -h            Show this help message")
	fmt.Fprintln(out, "  version, -v         Print the version")
	fmt.Fprintln(out, "  list                List the configured feeds (default)")
	fmt.Fprintln(out, "  <feed> [id]         Render a feed, e.g. `fpldash deadline 3`")
	fmt.Fprintln(out, "Environment:")
	fmt.Fprintln(out, "  FPL_BASE_URL          FPL API root (default https://fantasy.premierleague.com/api/)")
	fmt.Fprintln(out, "  PRIMARY_PROXY         Proxy prefix tried before the direct route (optional)")
	fmt.Fprintln(out, "  FALLBACK_PROXY        Proxy prefix used when the primary route fails (optional)")
	fmt.Fprintln(out, "  CACHE_BACKEND         file, memory, leveldb or redis (default file)")
	fmt.Fprintln(out, "  FPL_LEAGUE_ID         Classic league for the league feed (optional)")
	fmt.Fprintln(out, "  FOOTBALL_DATA_API_KEY Enables the table feed (optional)")
}
