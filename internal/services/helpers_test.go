package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"dompet/internal/ledger"
	"dompet/internal/models"
	"dompet/internal/store"
	"dompet/internal/testutil"
)

// harness wires every service over one isolated database.
type harness struct {
	db           *gorm.DB
	store        *store.Store
	ledger       *ledger.Ledger
	accounts     AccountServicer
	categories   CategoryServicer
	transactions TransactionServicer
	queries      QueryServicer
	reconcile    ReconcileServicer
}

func newHarness(t *testing.T, opts ...TransactionOption) *harness {
	t.Helper()

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	st := store.New(db)
	l := ledger.New()
	return &harness{
		db:           db,
		store:        st,
		ledger:       l,
		accounts:     NewAccountService(st, l),
		categories:   NewCategoryService(st, NewHierarchyManager()),
		transactions: NewTransactionService(st, l, opts...),
		queries:      NewQueryService(st),
		reconcile:    NewReconcileService(st, l),
	}
}

// assertConsistent fails unless every stored balance equals its opening
// amount plus the deltas of all existing transactions.
func (h *harness) assertConsistent(t *testing.T) {
	t.Helper()

	report, err := h.reconcile.Check(context.Background())
	testutil.AssertNoError(t, err)
	for _, b := range report.Drifted() {
		t.Errorf("account %s drifted: recorded %d, expected %d", b.AccountID, b.Recorded, b.Expected)
	}
}

func income(source string, amount int64) TransactionInput {
	return TransactionInput{
		Type:            models.TransactionTypeIncome,
		Description:     "income",
		Amount:          amount,
		TransactionAt:   time.Now(),
		SourceAccountID: source,
	}
}

func expense(source string, amount int64) TransactionInput {
	return TransactionInput{
		Type:            models.TransactionTypeExpense,
		Description:     "expense",
		Amount:          amount,
		TransactionAt:   time.Now(),
		SourceAccountID: source,
	}
}

func transfer(source, target string, amount int64) TransactionInput {
	return TransactionInput{
		Type:            models.TransactionTypeTransfer,
		Description:     "transfer",
		Amount:          amount,
		TransactionAt:   time.Now(),
		SourceAccountID: source,
		TargetAccountID: &target,
	}
}

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}
