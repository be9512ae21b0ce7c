package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pterm/pterm"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"dompet/internal/export"
	"dompet/internal/ledger"
	"dompet/internal/logger"
	"dompet/internal/models"
	"dompet/internal/services"
	"dompet/internal/store"
	"dompet/internal/testutil"
)

func init() {
	logger.Init("test")
	pterm.DisableOutput()
}

func run(t *testing.T, db *gorm.DB, args ...string) error {
	t.Helper()
	closed := false
	open := func(*Config) (*gorm.DB, func() error, error) {
		return db, func() error { closed = true; return nil }, nil
	}
	cmd := NewRootCmd(open)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	if err == nil && !closed {
		t.Errorf("expected database to be released after %v", args)
	}
	return err
}

func seed(t *testing.T, db *gorm.DB) *models.Account {
	t.Helper()
	ctx := context.Background()
	st := store.New(db)
	l := ledger.New()

	acc, err := services.NewAccountService(st, l).CreateAccount(ctx, "Wallet", models.AccountTypeCash, 10000)
	testutil.AssertNoError(t, err)
	_, err = services.NewTransactionService(st, l).CreateTransaction(ctx, services.TransactionInput{
		Type:            models.TransactionTypeExpense,
		Amount:          2500,
		SourceAccountID: acc.ID,
	})
	testutil.AssertNoError(t, err)
	return acc
}

func currentAmount(t *testing.T, db *gorm.DB, id string) int64 {
	t.Helper()
	var acc models.Account
	testutil.AssertNoError(t, db.First(&acc, "id = ?", id).Error)
	return acc.CurrentAmount
}

func TestReconcileCommand(t *testing.T) {
	t.Run("consistent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		seed(t, db)

		if err := run(t, db, "reconcile"); err != nil {
			t.Fatalf("expected consistent ledger, got %v", err)
		}
	})

	t.Run("drift_without_repair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		acc := seed(t, db)
		testutil.AssertNoError(t, db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("current_amount", 42).Error)

		err := run(t, db, "reconcile")

		if !errors.Is(err, ErrDrift) {
			t.Fatalf("expected ErrDrift, got %v", err)
		}
		if got := currentAmount(t, db, acc.ID); got != 42 {
			t.Errorf("expected balance left at 42, got %d", got)
		}
	})

	t.Run("drift_with_repair", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		acc := seed(t, db)
		testutil.AssertNoError(t, db.Model(&models.Account{}).Where("id = ?", acc.ID).Update("current_amount", 42).Error)

		if err := run(t, db, "reconcile", "--repair"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := currentAmount(t, db, acc.ID); got != 7500 {
			t.Errorf("expected repaired balance 7500, got %d", got)
		}
	})
}

func TestAccountsAndBalanceCommands(t *testing.T) {
	db := testutil.SetupTestDB(t)

	if err := run(t, db, "accounts"); err != nil {
		t.Fatalf("accounts on empty ledger: %v", err)
	}

	seed(t, db)

	if err := run(t, db, "accounts"); err != nil {
		t.Errorf("accounts: %v", err)
	}
	if err := run(t, db, "balance"); err != nil {
		t.Errorf("balance: %v", err)
	}
	if err := run(t, db, "balance", "extra"); err == nil {
		t.Error("expected positional arguments to be rejected")
	}
}

func TestExportCommand(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seed(t, db)
	out := filepath.Join(t.TempDir(), "out.xlsx")

	if err := run(t, db, "export", "--out", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	testutil.AssertNoError(t, err)
	if len(rows) != 2 {
		t.Errorf("expected header and 1 row, got %d rows", len(rows))
	}

	t.Run("bad_month", func(t *testing.T) {
		err := run(t, db, "export", "--out", out, "--month", "March")
		if err == nil {
			t.Fatal("expected invalid month to fail")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		fs.String("db-driver", "", "")
		fs.String("db-path", "", "")
		fs.String("db-host", "", "")
		fs.String("db-name", "", "")
		return fs
	}

	t.Run("defaults", func(t *testing.T) {
		cfg, err := loadConfig(viper.New(), "", newFlags())
		testutil.AssertNoError(t, err)

		if cfg.Database.Driver != "sqlite" || cfg.Database.Path != "data/dompet.db" || cfg.MigrationsDir != "migrations" {
			t.Errorf("unexpected defaults: %+v", cfg)
		}
	})

	t.Run("env_overrides_file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ledgerctl.yaml")
		content := "database:\n  driver: postgres\n  host: db.internal\nrequire_category: true\n"
		testutil.AssertNoError(t, os.WriteFile(path, []byte(content), 0o600))
		t.Setenv("DB_HOST", "env-host")

		cfg, err := loadConfig(viper.New(), path, newFlags())
		testutil.AssertNoError(t, err)

		if cfg.Database.Driver != "postgres" {
			t.Errorf("expected driver from file, got %q", cfg.Database.Driver)
		}
		if cfg.Database.Host != "env-host" {
			t.Errorf("expected host from env, got %q", cfg.Database.Host)
		}
		if !cfg.RequireCategory {
			t.Error("expected require_category from file")
		}
	})

	t.Run("flag_overrides_env", func(t *testing.T) {
		t.Setenv("DB_PATH", "/env/ledger.db")
		fs := newFlags()
		testutil.AssertNoError(t, fs.Set("db-path", "/flag/ledger.db"))

		cfg, err := loadConfig(viper.New(), "", fs)
		testutil.AssertNoError(t, err)

		if cfg.Database.Path != "/flag/ledger.db" {
			t.Errorf("expected path from flag, got %q", cfg.Database.Path)
		}
	})

	t.Run("missing_explicit_file", func(t *testing.T) {
		_, err := loadConfig(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"), newFlags())
		if err == nil {
			t.Fatal("expected error for missing config file")
		}
	})
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{0: "0.00", 1050: "10.50", -7: "-0.07", 123456789: "1234567.89"}
	for in, want := range cases {
		if got := formatAmount(in); got != want {
			t.Errorf("formatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
