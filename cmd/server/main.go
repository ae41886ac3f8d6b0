// File: cmd/server/main.go
package main

import (
	"context"
	"flag"
	"log" // Standard log for critical startup/shutdown messages before/after zap is active
	"os"
	"os/signal"
	"syscall"

	"therapylink_backend/internal/app"
	"therapylink_backend/internal/config"
	"therapylink_backend/internal/platform/database"
	"therapylink_backend/internal/platform/logger"

	"go.uber.org/zap"
)

func main() {
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	therapistCount := seedCmd.Int("therapists", 3, "Number of demo therapists to create")

	if len(os.Args) > 1 && os.Args[1] == "seed" {
		_ = seedCmd.Parse(os.Args[2:])

		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("FATAL: Failed to load configuration for seed: %v", err)
		}
		appLogger, err := logger.New(cfg)
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize logger for seed: %v", err)
		}
		db, err := database.NewGORM(cfg, appLogger)
		if err != nil {
			appLogger.Fatal("FATAL: Failed to initialize database for seed", zap.Error(err))
		}
		defer database.CloseGORMDB(db, appLogger)

		if err := app.Migrate(db, appLogger); err != nil {
			appLogger.Fatal("FATAL: Migration failed before seed", zap.Error(err))
		}
		if err := runSeed(context.Background(), db, *therapistCount, os.Stdout); err != nil {
			appLogger.Fatal("FATAL: Seed failed", zap.Error(err))
		}
		return
	}

	// Default: Start server
	startServer()
}

func startServer() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	server, cleanup, err := initializeServer(cfg)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize server: %v", err)
	}
	defer cleanup()

	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("FATAL: Server failed to start or crashed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Printf("INFO: Received signal '%s'. Shutting down server...", sig)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ServerTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: Server forced to shutdown due to error: %v", err)
	} else {
		log.Println("INFO: Server shutdown complete.")
	}
	log.Println("INFO: Application exiting.")
}
