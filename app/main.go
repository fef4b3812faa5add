package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/afero"

	"github.com/grenlandlive/sportsync/app/adapter"
	"github.com/grenlandlive/sportsync/app/cfg"
	"github.com/grenlandlive/sportsync/app/config"
	"github.com/grenlandlive/sportsync/app/docstore"
	"github.com/grenlandlive/sportsync/app/pipeline"
	"github.com/grenlandlive/sportsync/app/timeutil"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogging(appCfg.Debug)
	slog.Info("Starting sportsync", "version", appCfg.Version)

	sources, err := config.Load(appCfg.SourcesPath)
	if err != nil {
		slog.Error("Failed to load sources configuration", "path", appCfg.SourcesPath, "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded sources configuration",
		"path", appCfg.SourcesPath, "targets", len(sources.Targets), "projections", len(sources.Legacy))

	loc, err := timeutil.LoadLocation(sources.Timezone)
	if err != nil {
		slog.Error("Invalid timezone", "timezone", sources.Timezone, "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := docstore.New(afero.NewOsFs())
	registry := adapter.NewRegistry(adapter.NewClient(appCfg.UserAgent), loc)
	orchestrator := pipeline.New(sources, registry, store, loc)

	report := orchestrator.Run(ctx)

	if err := store.WriteFile(appCfg.ReportPath, report); err != nil {
		slog.Error("Failed to write status report", "path", appCfg.ReportPath, "error", err)
	}

	if report.AllFailed() {
		slog.Error("Run produced no usable output")
		os.Exit(2)
	}
	slog.Info("Run complete", "targets", len(report.Targets))
}

func setupLogging(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
