package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bullish/internal/config"
	"bullish/internal/game"
	"bullish/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadWorkerFromEnv()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	st, cleanup, err := openStore(ctx, cfg.Core)
	if err != nil {
		logger.Error("store init failed", "err", err)
		os.Exit(1)
	}
	defer cleanup()

	loc, err := time.LoadLocation(cfg.Core.Timezone)
	if err != nil {
		logger.Error("bad timezone, using UTC", "tz", cfg.Core.Timezone, "err", err)
		loc = time.UTC
	}
	catalog, err := game.LoadCatalog(cfg.Core.CatalogPath)
	if err != nil {
		logger.Error("catalog load failed, using defaults", "err", err)
	}
	svc := game.NewService(st, logger, loc, catalog)

	if cfg.RunOnce {
		if err := svc.RunDrift(ctx); err != nil {
			logger.Error("drift failed", "err", err)
			os.Exit(1)
		}
		logger.Info("worker run-once completed")
		return
	}

	ticker := time.NewTicker(cfg.DriftEvery)
	defer ticker.Stop()

	logger.Info("worker started", "drift_every", cfg.DriftEvery.String())
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutdown")
			return
		case <-ticker.C:
			if err := svc.RunDrift(ctx); err != nil {
				logger.Error("drift failed", "err", err)
				continue
			}
			logger.Info("drift complete")
		}
	}
}

func openStore(ctx context.Context, cfg config.CoreConfig) (store.Store, func(), error) {
	if cfg.StoreBackend == "postgres" {
		pg, err := store.ConnectPG(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	return store.NewFileStore(cfg.DataDir), func() {}, nil
}
