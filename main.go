package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"gmaps-scraper/browser"
	"gmaps-scraper/config"
	"gmaps-scraper/scraper/gmaps"
	"gmaps-scraper/services"
	"gmaps-scraper/storage"
	"gmaps-scraper/utils"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		logger := utils.NewLogger(utils.LevelInfo)
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			logger.Error("Invalid configuration: %s", cerr.Reason)
		} else {
			logger.Error("Failed to load configuration: %v", err)
		}
		return 1
	}
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	runID := uuid.New().String()
	logger.Info("=== Google Maps Scraper starting (run %s) ===", runID)
	logger.Info("Config: %d terms | headless: %t | output: %s | scroll ceiling: %d",
		len(cfg.Plan), cfg.Headless, cfg.OutputDir, cfg.MaxScrollIterations)

	sinks := []storage.Sink{
		storage.NewExporter(cfg.OutputDir, logger, storage.NewCSVWriter(), storage.NewXLSXWriter()),
	}
	if cfg.PostgresDSN != "" {
		pgWriter, err := storage.NewPostgresWriter(cfg.PostgresDSN, runID)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL, continuing with file output only: %v", err)
		} else {
			defer pgWriter.Close()
			sinks = append(sinks, pgWriter)
			logger.Info("Mirroring records to PostgreSQL (table: places)")
		}
	}
	sinks = append(sinks, services.NewInsightService(logger))

	page, err := browser.NewChromePage(browser.Options{
		Headless:          cfg.Headless,
		ChromeBin:         cfg.ChromeBin,
		NavigationTimeout: cfg.NavigationTimeout,
		ActionTimeout:     cfg.ActionTimeout,
	}, logger)
	if err != nil {
		logger.Error("Failed to launch browser: %v", err)
		return 1
	}
	defer page.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scraper := gmaps.New(cfg, logger, page, storage.NewFanout(logger, sinks...))
	summaries, err := scraper.Run(ctx, cfg.Plan)

	fmt.Println()
	for _, s := range summaries {
		status := "ok"
		if s.Err != nil {
			status = s.Err.Error()
		}
		fmt.Printf("  %-40s %3d/%-3d %-10s extracted %-4d failed %-4d %s\n",
			s.Term, s.Discovered, s.Target, s.Outcome, s.Extracted, s.Failed, status)
	}
	fmt.Println()

	if err != nil {
		logger.Error("Run aborted: %v", err)
		return 1
	}
	logger.Info("Done. Files written to %s", cfg.OutputDir)
	return 0
}
