package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/wawi_bi/internal/config"
	"github.com/GTDGit/wawi_bi/internal/database"
	"github.com/GTDGit/wawi_bi/internal/repository"
	"github.com/GTDGit/wawi_bi/internal/service"
)

// main runs a single WaWi to BI sync for external schedulers (cron, k8s
// CronJob). The report is printed to stdout as JSON; logs go to stderr.
// Exit status is 0 on success and 1 otherwise.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	setupLogger(cfg.Env)

	wawiDB, err := database.Connect(&cfg.Source, cfg.Pool)
	if err != nil {
		log.Error().Err(err).Msg("wawi database connection failed")
		return 1
	}
	defer wawiDB.Close()

	biDB, err := database.Connect(&cfg.Target, cfg.Pool)
	if err != nil {
		log.Error().Err(err).Msg("bi database connection failed")
		return 1
	}
	defer biDB.Close()

	if err := database.Migrate(biDB.DB, cfg.MigrationsPath); err != nil {
		log.Error().Err(err).Msg("migration failed")
		return 1
	}

	deps := service.SyncDeps{
		Source:    repository.NewWawiRepository(wawiDB, cfg.Sync.CompletedStatus),
		Platforms: repository.NewPlatformRepository(biDB),
		Products:  repository.NewProductRepository(biDB),
		RefPrices: repository.NewRefPriceRepository(biDB),
		Shipping:  repository.NewShippingRepository(biDB),
		Sales:     repository.NewSalesRepository(biDB),
		SourceDB:  wawiDB,
		TargetDB:  biDB,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return syncOnce(ctx, deps, cfg.Sync.Timeout, os.Stdout)
}

// syncOnce runs one sync over deps, writes the report to out as indented
// JSON and returns the process exit status. A zero timeout means no limit.
func syncOnce(ctx context.Context, deps service.SyncDeps, timeout time.Duration, out io.Writer) int {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	report, runErr := service.NewSyncService(deps).Run(ctx)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		log.Error().Err(err).Msg("failed to encode sync report")
		return 1
	}
	if runErr != nil {
		return 1
	}
	return 0
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}
