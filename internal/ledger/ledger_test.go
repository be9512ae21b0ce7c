package ledger

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"dompet/internal/models"
	"dompet/internal/store"
	"dompet/internal/testutil"
)

var fixedNow = time.Date(2024, time.May, 1, 9, 30, 0, 0, time.UTC)

func setup(t *testing.T) (*gorm.DB, *store.Store, *Ledger) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return db, store.New(db), New(WithClock(func() time.Time { return fixedNow }))
}

// within runs fn in an atomic scope and fails the test on error.
func within(t *testing.T, st *store.Store, fn func(tx *store.Store) error) {
	t.Helper()
	testutil.AssertNoError(t, st.Atomic(context.Background(), fn))
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	db, st, l := setup(t)
	acc1 := testutil.CreateTestAccount(t, db, 10000)
	acc2 := testutil.CreateTestAccount(t, db, 20000)

	trx := &models.Transaction{Type: models.TransactionTypeTransfer, Amount: 3000, SourceAccountID: acc1.ID, TargetAccountID: &acc2.ID}

	within(t, st, func(tx *store.Store) error {
		accounts, err := l.Apply(ctx, tx, trx)
		if err != nil {
			return err
		}
		if len(accounts) != 2 {
			t.Errorf("expected 2 updated accounts, got %d", len(accounts))
			return nil
		}
		if accounts[0].CurrentAmount != 7000 || accounts[1].CurrentAmount != 23000 {
			t.Errorf("unexpected returned balances %d/%d", accounts[0].CurrentAmount, accounts[1].CurrentAmount)
		}
		return nil
	})

	testutil.AssertBalance(t, db, acc1.ID, 7000)
	testutil.AssertBalance(t, db, acc2.ID, 23000)

	reloaded := testutil.ReloadAccount(t, db, acc1.ID)
	if reloaded.UpdatedAt == nil || !reloaded.UpdatedAt.Equal(fixedNow) {
		t.Errorf("expected updated_at %v, got %v", fixedNow, reloaded.UpdatedAt)
	}
	if reloaded.InitialAmount != 10000 {
		t.Errorf("initial amount must not change, got %d", reloaded.InitialAmount)
	}
}

func TestApply_MissingAccount(t *testing.T) {
	ctx := context.Background()
	db, st, l := setup(t)
	acc1 := testutil.CreateTestAccount(t, db, 100)
	missing := "0190a8f0-0000-7000-8000-000000000000"

	trx := &models.Transaction{Type: models.TransactionTypeTransfer, Amount: 50, SourceAccountID: acc1.ID, TargetAccountID: &missing}
	err := st.Atomic(ctx, func(tx *store.Store) error {
		_, err := l.Apply(ctx, tx, trx)
		return err
	})
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	testutil.AssertBalance(t, db, acc1.ID, 100)
}

func TestRevertIsInverseOfApply(t *testing.T) {
	ctx := context.Background()
	db, st, l := setup(t)
	acc1 := testutil.CreateTestAccount(t, db, 1234)
	acc2 := testutil.CreateTestAccountOfType(t, db, models.AccountTypeCredit, -500)

	cases := []*models.Transaction{
		{Type: models.TransactionTypeIncome, Amount: 999, SourceAccountID: acc1.ID},
		{Type: models.TransactionTypeExpense, Amount: 5000, SourceAccountID: acc2.ID},
		{Type: models.TransactionTypeTransfer, Amount: 77, SourceAccountID: acc2.ID, TargetAccountID: &acc1.ID},
		{Type: models.TransactionTypeTransfer, Amount: 0, SourceAccountID: acc1.ID, TargetAccountID: &acc2.ID},
	}

	for _, trx := range cases {
		within(t, st, func(tx *store.Store) error {
			if _, err := l.Apply(ctx, tx, trx); err != nil {
				return err
			}
			_, err := l.Revert(ctx, tx, trx)
			return err
		})
		testutil.AssertBalance(t, db, acc1.ID, 1234)
		testutil.AssertBalance(t, db, acc2.ID, -500)
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()

	t.Run("old_source_becomes_new_target", func(t *testing.T) {
		db, st, l := setup(t)
		acc1 := testutil.CreateTestAccount(t, db, 1000)
		acc2 := testutil.CreateTestAccount(t, db, 1000)

		old := &models.Transaction{Type: models.TransactionTypeTransfer, Amount: 200, SourceAccountID: acc1.ID, TargetAccountID: &acc2.ID}
		updated := &models.Transaction{Type: models.TransactionTypeTransfer, Amount: 50, SourceAccountID: acc2.ID, TargetAccountID: &acc1.ID}

		within(t, st, func(tx *store.Store) error {
			_, err := l.Apply(ctx, tx, old)
			return err
		})
		within(t, st, func(tx *store.Store) error {
			accounts, err := l.Replace(ctx, tx, old, updated)
			if err != nil {
				return err
			}
			if len(accounts) != 2 {
				t.Errorf("expected one row per touched account, got %d", len(accounts))
			}
			for _, a := range accounts {
				want := map[string]int64{acc1.ID: 1050, acc2.ID: 950}[a.ID]
				if a.CurrentAmount != want {
					t.Errorf("account %s: expected returned balance %d, got %d", a.ID, want, a.CurrentAmount)
				}
			}
			return nil
		})

		testutil.AssertBalance(t, db, acc1.ID, 1050)
		testutil.AssertBalance(t, db, acc2.ID, 950)
	})

	t.Run("income_to_expense_same_account", func(t *testing.T) {
		db, st, l := setup(t)
		acc1 := testutil.CreateTestAccount(t, db, 0)

		old := &models.Transaction{Type: models.TransactionTypeIncome, Amount: 100, SourceAccountID: acc1.ID}
		updated := &models.Transaction{Type: models.TransactionTypeExpense, Amount: 100, SourceAccountID: acc1.ID}

		within(t, st, func(tx *store.Store) error {
			if _, err := l.Apply(ctx, tx, old); err != nil {
				return err
			}
			_, err := l.Replace(ctx, tx, old, updated)
			return err
		})
		testutil.AssertBalance(t, db, acc1.ID, -100)
	})
}

func TestRebase(t *testing.T) {
	ctx := context.Background()
	db, st, l := setup(t)
	acc1 := testutil.CreateTestAccount(t, db, 1000)

	within(t, st, func(tx *store.Store) error {
		_, err := l.Apply(ctx, tx, &models.Transaction{Type: models.TransactionTypeExpense, Amount: 400, SourceAccountID: acc1.ID})
		return err
	})

	within(t, st, func(tx *store.Store) error {
		account, err := l.Rebase(ctx, tx, acc1.ID, 250)
		if err != nil {
			return err
		}
		if account.InitialAmount != 250 || account.CurrentAmount != -150 {
			t.Errorf("expected 250/-150, got %d/%d", account.InitialAmount, account.CurrentAmount)
		}
		return nil
	})

	reloaded := testutil.ReloadAccount(t, db, acc1.ID)
	if reloaded.InitialAmount != 250 || reloaded.CurrentAmount != -150 {
		t.Errorf("expected stored 250/-150, got %d/%d", reloaded.InitialAmount, reloaded.CurrentAmount)
	}

	err := st.Atomic(ctx, func(tx *store.Store) error {
		_, err := l.Rebase(ctx, tx, "0190a8f0-0000-7000-8000-000000000000", 1)
		return err
	})
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestReconcileReport(t *testing.T) {
	report := Report{Balances: []Balance{
		{AccountID: "a", Recorded: 100, Expected: 100},
		{AccountID: "b", Recorded: 90, Expected: 100},
	}}
	if report.Consistent() {
		t.Error("expected report with drift to be inconsistent")
	}
	drifted := report.Drifted()
	if len(drifted) != 1 || drifted[0].AccountID != "b" || drifted[0].Drift() != -10 {
		t.Errorf("unexpected drift %+v", drifted)
	}
	if !(Report{}).Consistent() {
		t.Error("expected empty report to be consistent")
	}
}
