// Package cli implements ledgerctl, the operator tool for inspecting and
// repairing a Dompet ledger outside the HTTP API.
package cli

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gorm.io/gorm"

	"dompet/internal/database"
	"dompet/internal/ledger"
	"dompet/internal/services"
	"dompet/internal/store"
)

// Opener opens the configured database and returns a function that
// releases it.
type Opener func(cfg *Config) (*gorm.DB, func() error, error)

// OpenDatabase connects with the database package and brings the schema up
// to date before any command runs.
func OpenDatabase(cfg *Config) (*gorm.DB, func() error, error) {
	manager, err := database.NewManager(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := manager.RunMigrations(cfg.MigrationsDir); err != nil {
		_ = manager.Close()
		return nil, nil, err
	}
	return manager.DB(), manager.Close, nil
}

type app struct {
	accounts  services.AccountServicer
	queries   services.QueryServicer
	reconcile services.ReconcileServicer
}

func newApp(db *gorm.DB) *app {
	st := store.New(db)
	l := ledger.New()
	return &app{
		accounts:  services.NewAccountService(st, l),
		queries:   services.NewQueryService(st),
		reconcile: services.NewReconcileService(st, l),
	}
}

// NewRootCmd builds the ledgerctl command tree. Subcommands open the
// database through open on first use.
func NewRootCmd(open Opener) *cobra.Command {
	var (
		cfgFile string
		a       *app
		cleanup func() error
	)

	rootCmd := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "ledgerctl inspects and repairs a Dompet ledger",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(viper.New(), cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			db, closeFn, err := open(cfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			a = newApp(db)
			cleanup = closeFn
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if cleanup == nil {
				return nil
			}
			return cleanup()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "set the config file path")
	flags.String("db-driver", "", "database driver (postgres or sqlite)")
	flags.String("db-path", "", "SQLite database file")
	flags.String("db-host", "", "PostgreSQL host")
	flags.String("db-name", "", "PostgreSQL database name")

	appFn := func() *app { return a }
	rootCmd.AddCommand(newAccountsCmd(appFn))
	rootCmd.AddCommand(newBalanceCmd(appFn))
	rootCmd.AddCommand(newReconcileCmd(appFn))
	rootCmd.AddCommand(newExportCmd(appFn))

	return rootCmd
}

// formatAmount renders minor units with two decimal places.
func formatAmount(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}

func init() {
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " ERROR ",
		Style: pterm.NewStyle(pterm.BgLightRed, pterm.FgBlack),
	}
}
