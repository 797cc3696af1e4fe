package main

import (
	"context"
	"os"
	"time"

	"github.com/diagnosis/mentor-bookings/pkg/config"
	"github.com/diagnosis/mentor-bookings/pkg/database"
	"github.com/diagnosis/mentor-bookings/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.SetDefault(logger.New(os.Stdout, cfg.Server.LogLevel))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Error("Migration failed", "error", err)
		os.Exit(1)
	}
	logger.Info("Migrations complete")
}
