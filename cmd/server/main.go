package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"trade-dashboard-go/internal/config"
	"trade-dashboard-go/internal/database"
	"trade-dashboard-go/internal/logger"
	"trade-dashboard-go/internal/server"

	"go.uber.org/zap"
)

func main() {
	// Load configuration
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

	// Connect to the database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	repo := database.NewTradeRepository(db)

	if cfg.Database.SeedFile != "" {
		if err := seed(context.Background(), repo, cfg.Database.SeedFile, log); err != nil {
			log.Fatal("Failed to seed database", zap.Error(err))
		}
	}

	apiServer := server.NewAPIServer(cfg.Server.Port, server.NewAPIHandler(log, repo), log)
	errc := apiServer.Start()

	sigchan := make(chan os.Signal, 1)
	signal.Notify(sigchan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigchan:
		log.Info("Shutdown signal received, gracefully shutting down...")
	case err := <-errc:
		log.Fatal("Web server failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := apiServer.Stop(ctx); err != nil {
		log.Error("Failed to stop API server", zap.Error(err))
	}
	log.Info("Server has been shut down.")
}

// seed loads the seed file, replacing every stored trade.
func seed(ctx context.Context, repo *database.TradeRepository, path string, log *zap.Logger) error {
	trades, err := database.LoadSeedFile(path)
	if err != nil {
		return err
	}
	if err := repo.ReplaceAll(ctx, trades); err != nil {
		return err
	}
	log.Info("Loaded seed file into database", zap.String("file", path), zap.Int("trades", len(trades)))
	return nil
}
