package main

import (
	"fmt"
	"os"

	"github.com/gin-gonic/gin"

	"dompet/internal/config"
	"dompet/internal/database"
	"dompet/internal/logger"
	"dompet/internal/server"
)

// @title           Dompet API
// @version         1.0
// @description     Dompet is a personal finance ledger that keeps every account balance consistent with its transaction history.

// @host      localhost:8080
// @BasePath  /api/v1

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(appConfig.Database)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(appConfig.MigrationsDir); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	if appConfig.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := server.New(dbManager.DB(), server.Options{RequireCategory: appConfig.RequireCategory})

	log.Infof("Starting Dompet server on port %s (%s database)", appConfig.Port, appConfig.Database.Driver)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
