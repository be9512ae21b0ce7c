package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dompet/internal/logger"
	"dompet/internal/models"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds database configuration
type Config struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	Path     string `mapstructure:"path"`
	LogMode  bool   `mapstructure:"log"`
}

// DSN returns the PostgreSQL connection string
func (c Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// MigrateURL returns the URL golang-migrate uses to reach PostgreSQL.
func (c Config) MigrateURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Models lists every table the ledger owns, parents first.
func Models() []any {
	return []any{
		&models.Account{},
		&models.Category{},
		&models.Transaction{},
	}
}

// Manager handles database operations
type Manager struct {
	db  *gorm.DB
	cfg Config
}

// NewManager opens the configured database.
func NewManager(cfg Config) (*Manager, error) {
	var (
		db  *gorm.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		cfg.Driver = DriverPostgres
		db, err = OpenPostgres(cfg.DSN(), cfg.LogMode)
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err = OpenSQLite(cfg.Path, cfg.LogMode)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return &Manager{db: db, cfg: cfg}, nil
}

// OpenPostgres connects to PostgreSQL with pooled connections.
func OpenPostgres(dsn string, logMode bool) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), gormConfig(logMode))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// OpenSQLite opens an SQLite database with foreign keys enforced. The pool
// is limited to one connection so atomic scopes run one at a time.
func OpenSQLite(path string, logMode bool) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(sqliteDSN(path)), gormConfig(logMode))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

func sqliteDSN(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_foreign_keys=on&_busy_timeout=5000"
}

func gormConfig(logMode bool) *gorm.Config {
	level := gormlogger.Silent
	if logMode {
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	}
}

// RunMigrations brings the schema up to date. PostgreSQL applies the SQL
// files in migrationsDir; SQLite derives its schema from the models.
func (m *Manager) RunMigrations(migrationsDir string) error {
	logger.Get().Info("Running database migrations...")

	if m.cfg.Driver == DriverSQLite {
		if err := m.db.AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		logger.Get().Info("Database schema synchronised from models")
		return nil
	}

	mig, err := migrate.New("file://"+migrationsDir, m.cfg.MigrateURL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := mig.Close()
		if srcErr != nil {
			logger.Get().Warnf("migrate source close error: %v", srcErr)
		}
		if dbErr != nil {
			logger.Get().Warnf("migrate database close error: %v", dbErr)
		}
	}()

	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration failed: %w", err)
	}

	logger.Get().Info("Database migrations completed successfully")
	return nil
}

// DB returns the underlying GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Close releases the connection pool.
func (m *Manager) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
