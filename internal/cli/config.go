package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"dompet/internal/database"
)

// Config is the ledgerctl configuration. Values come from flags, then the
// same DB_* environment variables the API reads, then an optional YAML file.
type Config struct {
	Database        database.Config `mapstructure:"database"`
	MigrationsDir   string          `mapstructure:"migrations_dir"`
	RequireCategory bool            `mapstructure:"require_category"`
}

var envKeys = map[string]string{
	"database.driver":   "DB_DRIVER",
	"database.host":     "DB_HOST",
	"database.port":     "DB_PORT",
	"database.user":     "DB_USER",
	"database.password": "DB_PASSWORD",
	"database.name":     "DB_NAME",
	"database.sslmode":  "DB_SSLMODE",
	"database.path":     "DB_PATH",
	"database.log":      "DB_LOG",
	"migrations_dir":    "MIGRATIONS_DIR",
	"require_category":  "LEDGER_REQUIRE_CATEGORY",
}

var flagKeys = map[string]string{
	"db-driver": "database.driver",
	"db-path":   "database.path",
	"db-host":   "database.host",
	"db-name":   "database.name",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", database.DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "dompet")
	v.SetDefault("database.password", "dompet")
	v.SetDefault("database.name", "dompet")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "data/dompet.db")
	v.SetDefault("database.log", false)
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("require_category", false)
}

func loadConfig(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("ledgerctl")
		v.SetConfigType("yaml")
	}

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if cfgFile != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	return cfg, nil
}
