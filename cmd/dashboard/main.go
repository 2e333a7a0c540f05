package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trade-dashboard-go/internal/config"
	"trade-dashboard-go/internal/dashboard"
	"trade-dashboard-go/internal/logger"
	"trade-dashboard-go/internal/tradeapi"

	"go.uber.org/zap"
)

func main() {
	// Load application configuration
	cfg, err := config.LoadConfig("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewLogger(cfg.Logger.Level, cfg.Logger.Format, cfg.Logger.OutputFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Setup context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	restClient := tradeapi.NewRestClient(&cfg.API, log)
	d := dashboard.New(restClient, cfg.Dashboard.PageSize, log)
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		log.Warn("Initial load failed", zap.String("base_url", cfg.API.BaseURL), zap.Error(err))
	}

	r := &repl{d: d, out: os.Stdout}
	if err := r.run(ctx, os.Stdin); err != nil {
		log.Error("Reading commands failed", zap.Error(err))
	}
	log.Info("Dashboard has been shut down.")
}
