package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"dompet/internal/database"
)

// Config holds application configuration
type Config struct {
	// Server
	Port string
	Env  string

	// Database
	Database      database.Config
	MigrationsDir string

	// Ledger policy. When set, income and expense transactions must carry a
	// category; transfers never require one.
	RequireCategory bool
}

var appConfig *Config

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if not already loaded
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	config := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: database.Config{
			Driver:   getEnv("DB_DRIVER", database.DriverPostgres),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "dompet"),
			Password: getEnv("DB_PASSWORD", "dompet"),
			DBName:   getEnv("DB_NAME", "dompet"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			Path:     getEnv("DB_PATH", "data/dompet.db"),
			LogMode:  getBool("DB_LOG", false),
		},
		MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),

		RequireCategory: getBool("LEDGER_REQUIRE_CATEGORY", false),
	}

	appConfig = config
	return config, nil
}

// Get returns the application configuration
func Get() *Config {
	if appConfig == nil {
		var err error
		appConfig, err = Load()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
	}
	return appConfig
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("Warning: invalid %s value '%s', falling back to %t\n", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
