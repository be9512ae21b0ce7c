package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/store"
	"dompet/internal/testutil"
)

func TestCreateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("income_increases_balance", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		trx, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 5000))
		testutil.AssertNoError(t, err)

		if trx.ID == "" {
			t.Fatal("expected transaction ID")
		}
		if trx.UpdatedAt != nil {
			t.Error("expected updated_at to be unset on create")
		}
		testutil.AssertBalance(t, h.db, acc1.ID, 15000)
	})

	t.Run("expense_decreases_balance", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		_, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 3000))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 7000)
	})

	t.Run("expense_may_go_negative", func(t *testing.T) {
		h := newHarness(t)
		card := testutil.CreateTestAccountOfType(t, h.db, models.AccountTypeCredit, 0)

		_, err := h.transactions.CreateTransaction(ctx, expense(card.ID, 2500))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, card.ID, -2500)
	})

	t.Run("transfer_moves_between_accounts", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)
		acc2 := testutil.CreateTestAccount(t, h.db, 20000)

		_, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 3000))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 7000)
		testutil.AssertBalance(t, h.db, acc2.ID, 23000)
	})

	t.Run("zero_amount_allowed", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)

		_, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 0))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 100)
	})

	t.Run("negative_amount", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)

		_, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, -1))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		testutil.AssertErrorKind(t, err, apperrors.KindValidation)
	})

	t.Run("missing_source", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.transactions.CreateTransaction(ctx, income("  ", 100))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("invalid_type", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)

		input := income(acc1.ID, 100)
		input.Type = "refund"
		_, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertAppError(t, err, "INVALID_TRANSACTION_TYPE")
	})

	t.Run("transfer_without_target", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)

		input := transfer(acc1.ID, "", 100)
		_, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("income_with_target", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)
		acc2 := testutil.CreateTestAccount(t, h.db, 100)

		input := income(acc1.ID, 100)
		input.TargetAccountID = &acc2.ID
		_, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("missing_account_is_reference_error", func(t *testing.T) {
		h := newHarness(t)

		_, err := h.transactions.CreateTransaction(ctx, income("0190a8f0-0000-7000-8000-000000000001", 100))
		testutil.AssertAppError(t, err, "REFERENCE_NOT_FOUND")
		testutil.AssertErrorKind(t, err, apperrors.KindReference)
	})

	t.Run("missing_target_is_reference_error", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		_, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, "0190a8f0-0000-7000-8000-000000000002", 100))
		testutil.AssertAppError(t, err, "REFERENCE_NOT_FOUND")
		testutil.AssertBalance(t, h.db, acc1.ID, 10000)

		var count int64
		h.db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no transaction rows after rollback, got %d", count)
		}
	})

	t.Run("missing_category_is_reference_error", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		input := expense(acc1.ID, 100)
		missing := "0190a8f0-0000-7000-8000-000000000003"
		input.CategoryID = &missing
		_, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertAppError(t, err, "REFERENCE_NOT_FOUND")
		testutil.AssertBalance(t, h.db, acc1.ID, 10000)
	})

	t.Run("with_category", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)
		food := testutil.CreateTestCategory(t, h.db, models.CategoryTypeExpense)

		input := expense(acc1.ID, 100)
		input.CategoryID = &food.ID
		trx, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertNoError(t, err)
		if trx.CategoryID == nil || *trx.CategoryID != food.ID {
			t.Errorf("expected category %s, got %v", food.ID, trx.CategoryID)
		}
	})

	t.Run("category_optional_by_default", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 100)

		_, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 10))
		testutil.AssertNoError(t, err)
	})

	t.Run("category_required_when_configured", func(t *testing.T) {
		h := newHarness(t, WithRequiredCategory(true))
		acc1 := testutil.CreateTestAccount(t, h.db, 100)
		acc2 := testutil.CreateTestAccount(t, h.db, 100)

		_, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 10))
		testutil.AssertAppError(t, err, "INVALID_INPUT")

		// Transfers never need a category.
		_, err = h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 10))
		testutil.AssertNoError(t, err)
	})
}

func TestTransactionScenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("A_income", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		_, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 5000))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 15000)
	})

	t.Run("B_transfer_and_delete", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)
		acc2 := testutil.CreateTestAccount(t, h.db, 20000)

		trx, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 3000))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 7000)
		testutil.AssertBalance(t, h.db, acc2.ID, 23000)

		testutil.AssertNoError(t, h.transactions.DeleteTransaction(ctx, trx.ID))
		testutil.AssertBalance(t, h.db, acc1.ID, 10000)
		testutil.AssertBalance(t, h.db, acc2.ID, 20000)
	})

	t.Run("C_expense_amount_edit", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		trx, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 1000))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 9000)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, expense(acc1.ID, 1500))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 8500)
	})

	t.Run("E_same_account_transfer", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 10000)

		_, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc1.ID, 500))
		testutil.AssertAppError(t, err, "SAME_ACCOUNT_TRANSFER")
		testutil.AssertErrorKind(t, err, apperrors.KindValidation)
		testutil.AssertBalance(t, h.db, acc1.ID, 10000)

		var count int64
		h.db.Model(&models.Transaction{}).Count(&count)
		if count != 0 {
			t.Errorf("expected no transaction rows, got %d", count)
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("change_accounts", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)
		acc2 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 300))
		testutil.AssertNoError(t, err)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, expense(acc2.ID, 300))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 1000)
		testutil.AssertBalance(t, h.db, acc2.ID, 700)
	})

	t.Run("expense_to_transfer", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)
		acc2 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 200))
		testutil.AssertNoError(t, err)

		updated, err := h.transactions.UpdateTransaction(ctx, trx.ID, transfer(acc1.ID, acc2.ID, 400))
		testutil.AssertNoError(t, err)
		if updated.Type != models.TransactionTypeTransfer {
			t.Errorf("expected transfer, got %s", updated.Type)
		}
		testutil.AssertBalance(t, h.db, acc1.ID, 600)
		testutil.AssertBalance(t, h.db, acc2.ID, 1400)
	})

	t.Run("transfer_to_income_clears_target", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)
		acc2 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 100))
		testutil.AssertNoError(t, err)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, income(acc2.ID, 50))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 1000)
		testutil.AssertBalance(t, h.db, acc2.ID, 1050)

		stored, err := h.transactions.GetTransactionByID(ctx, trx.ID)
		testutil.AssertNoError(t, err)
		if stored.TargetAccountID != nil {
			t.Errorf("expected target to be cleared, got %v", *stored.TargetAccountID)
		}
	})

	t.Run("swap_transfer_direction", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)
		acc2 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 250))
		testutil.AssertNoError(t, err)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, transfer(acc2.ID, acc1.ID, 100))
		testutil.AssertNoError(t, err)
		testutil.AssertBalance(t, h.db, acc1.ID, 1100)
		testutil.AssertBalance(t, h.db, acc2.ID, 900)
	})

	t.Run("sets_updated_at_and_keeps_created_at", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 10))
		testutil.AssertNoError(t, err)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, income(acc1.ID, 20))
		testutil.AssertNoError(t, err)

		stored, err := h.transactions.GetTransactionByID(ctx, trx.ID)
		testutil.AssertNoError(t, err)
		if stored.UpdatedAt == nil {
			t.Error("expected updated_at to be set after update")
		}
		if !stored.CreatedAt.Equal(trx.CreatedAt) {
			t.Errorf("expected created_at %v, got %v", trx.CreatedAt, stored.CreatedAt)
		}
		if testutil.ReloadAccount(t, h.db, acc1.ID).UpdatedAt == nil {
			t.Error("expected account updated_at to be set")
		}
	})

	t.Run("not_found", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		_, err := h.transactions.UpdateTransaction(ctx, "0190a8f0-0000-7000-8000-000000000009", income(acc1.ID, 10))
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
		testutil.AssertBalance(t, h.db, acc1.ID, 1000)
	})

	t.Run("validation_runs_before_lookup", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 10))
		testutil.AssertNoError(t, err)

		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, transfer(acc1.ID, acc1.ID, 10))
		testutil.AssertAppError(t, err, "SAME_ACCOUNT_TRANSFER")
		testutil.AssertBalance(t, h.db, acc1.ID, 1010)
	})

	t.Run("failure_rolls_back_revert", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 300))
		testutil.AssertNoError(t, err)

		// The revert of the old effect succeeds before the apply fails.
		_, err = h.transactions.UpdateTransaction(ctx, trx.ID, expense("0190a8f0-0000-7000-8000-00000000000a", 300))
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
		testutil.AssertBalance(t, h.db, acc1.ID, 700)

		stored, err := h.transactions.GetTransactionByID(ctx, trx.ID)
		testutil.AssertNoError(t, err)
		if stored.SourceAccountID != acc1.ID || stored.Amount != 300 {
			t.Errorf("expected unchanged row, got source %s amount %d", stored.SourceAccountID, stored.Amount)
		}
		h.assertConsistent(t)
	})
}

func TestDeleteTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("reverts_balance", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 500))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, h.transactions.DeleteTransaction(ctx, trx.ID))
		testutil.AssertBalance(t, h.db, acc1.ID, 1000)

		_, err = h.transactions.GetTransactionByID(ctx, trx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
	})

	t.Run("second_delete_is_not_found", func(t *testing.T) {
		h := newHarness(t)
		acc1 := testutil.CreateTestAccount(t, h.db, 1000)

		trx, err := h.transactions.CreateTransaction(ctx, expense(acc1.ID, 400))
		testutil.AssertNoError(t, err)

		testutil.AssertNoError(t, h.transactions.DeleteTransaction(ctx, trx.ID))
		err = h.transactions.DeleteTransaction(ctx, trx.ID)
		testutil.AssertAppError(t, err, "TRANSACTION_NOT_FOUND")
		testutil.AssertErrorKind(t, err, apperrors.KindNotFound)
		testutil.AssertBalance(t, h.db, acc1.ID, 1000)
	})
}

func TestBalanceInvariant(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	cash := testutil.CreateTestAccount(t, h.db, 50000)
	bank := testutil.CreateTestAccountOfType(t, h.db, models.AccountTypeBank, 120000)
	card := testutil.CreateTestAccountOfType(t, h.db, models.AccountTypeCredit, 0)

	var ids []string
	create := func(input TransactionInput) {
		t.Helper()
		trx, err := h.transactions.CreateTransaction(ctx, input)
		testutil.AssertNoError(t, err)
		ids = append(ids, trx.ID)
		h.assertConsistent(t)
	}

	create(income(bank.ID, 250000))
	create(expense(cash.ID, 1200))
	create(transfer(bank.ID, cash.ID, 20000))
	create(expense(card.ID, 45000))
	create(transfer(bank.ID, card.ID, 45000))
	create(income(cash.ID, 0))

	_, err := h.transactions.UpdateTransaction(ctx, ids[1], transfer(cash.ID, card.ID, 999))
	testutil.AssertNoError(t, err)
	h.assertConsistent(t)

	_, err = h.transactions.UpdateTransaction(ctx, ids[2], income(card.ID, 300))
	testutil.AssertNoError(t, err)
	h.assertConsistent(t)

	testutil.AssertNoError(t, h.transactions.DeleteTransaction(ctx, ids[4]))
	h.assertConsistent(t)

	testutil.AssertNoError(t, h.transactions.DeleteTransaction(ctx, ids[0]))
	h.assertConsistent(t)

	// Remaining: expense-card 45000, transfer cash->card 999, income card 300, income cash 0.
	testutil.AssertBalance(t, h.db, cash.ID, 50000-999)
	testutil.AssertBalance(t, h.db, bank.ID, 120000)
	testutil.AssertBalance(t, h.db, card.ID, -45000+999+300)
}

func TestConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	acc1 := testutil.CreateTestAccount(t, h.db, 0)
	acc2 := testutil.CreateTestAccount(t, h.db, 0)

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	for range workers {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.transactions.CreateTransaction(ctx, income(acc1.ID, 100))
			errs <- err
		}()
		go func() {
			defer wg.Done()
			_, err := h.transactions.CreateTransaction(ctx, transfer(acc1.ID, acc2.ID, 10))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		testutil.AssertNoError(t, err)
	}
	testutil.AssertBalance(t, h.db, acc1.ID, workers*100-workers*10)
	testutil.AssertBalance(t, h.db, acc2.ID, workers*10)
	h.assertConsistent(t)
}

func TestAtomicScopeRollsBack(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	acc1 := testutil.CreateTestAccount(t, h.db, 1000)

	boom := errors.New("boom")
	err := h.store.Atomic(ctx, func(tx *store.Store) error {
		trx := &models.Transaction{
			Type:            models.TransactionTypeIncome,
			Amount:          500,
			SourceAccountID: acc1.ID,
		}
		if err := tx.Transactions().Insert(ctx, trx); err != nil {
			return err
		}
		if _, err := h.ledger.Apply(ctx, tx, trx); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected scope error to propagate, got %v", err)
	}
	testutil.AssertBalance(t, h.db, acc1.ID, 1000)
	h.assertConsistent(t)
}
