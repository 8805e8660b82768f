// Command tracker is the command-line front end of the progress tracker.
// Each invocation is one session: load, at most one mutation, exit.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/p-n-ai/pai-tracker/internal/events"
	"github.com/p-n-ai/pai-tracker/internal/jobs"
	"github.com/p-n-ai/pai-tracker/internal/platform/config"
	"github.com/p-n-ai/pai-tracker/internal/platform/logging"
	"github.com/p-n-ai/pai-tracker/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(os.Stderr, cfg.Log))

	root := newRootCmd(&deps{
		cfg:       cfg,
		now:       time.Now,
		openStore: storage.Open,
		jobsRepo: func(cfg *config.Config) jobs.Repository {
			return jobs.NewClient(cfg.Jobs.URL)
		},
		events: events.NopLogger{},
	})
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
