package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/campuspoints/platform/internal/importer"
	"github.com/campuspoints/platform/internal/infra"
	"github.com/google/uuid"
)

// One-shot import of accounts from the legacy campus card export.
// Safe to re-run: students map to deterministic UUIDs and existing
// rows are skipped.
func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("legacy import failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	var (
		file  = flag.String("file", "", "path to the legacy export CSV")
		actor = flag.String("actor", "", "manager user id recorded on opening entries")
	)
	flag.Parse()

	if *file == "" || *actor == "" {
		return fmt.Errorf("usage: legacy-import -file export.csv -actor <manager-uuid>")
	}
	actorID, err := uuid.Parse(*actor)
	if err != nil {
		return fmt.Errorf("parse actor id: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	f, err := os.Open(*file)
	if err != nil {
		return fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	students, err := importer.ParseRecords(f)
	if err != nil {
		return fmt.Errorf("parse export: %w", err)
	}
	logger.Info("parsed legacy export", "file", *file, "records", len(students))

	report := importer.NewImporter(pool, actorID, logger).Run(ctx, students)
	if report.Failed > 0 {
		return fmt.Errorf("%d records failed", report.Failed)
	}
	return nil
}
