package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"dompet/internal/models"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestAccount creates a cash account whose current balance equals its
// opening balance (in minor units).
func CreateTestAccount(t *testing.T, db *gorm.DB, initial int64) *models.Account {
	t.Helper()
	return CreateTestAccountOfType(t, db, models.AccountTypeCash, initial)
}

// CreateTestAccountOfType creates an account of the given type.
func CreateTestAccountOfType(t *testing.T, db *gorm.DB, accountType models.AccountType, initial int64) *models.Account {
	t.Helper()

	account := &models.Account{
		Name:          fmt.Sprintf("Test Account %d", nextID()),
		Type:          accountType,
		InitialAmount: initial,
		CurrentAmount: initial,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates a top-level category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestSubcategory(t, db, categoryType, nil)
}

// CreateTestSubcategory creates a category under parentID without running
// hierarchy validation, so tests can build any shape they need.
func CreateTestSubcategory(t *testing.T, db *gorm.DB, categoryType models.CategoryType, parentID *string) *models.Category {
	t.Helper()

	category := &models.Category{
		Name:     fmt.Sprintf("Test Category %d", nextID()),
		Type:     categoryType,
		ParentID: parentID,
	}
	if err := db.Omit("Parent").Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestTransaction inserts a transaction row without touching balances.
// Use it to build stores whose balances are deliberately out of step.
func CreateTestTransaction(t *testing.T, db *gorm.DB, trxType models.TransactionType, sourceID string, targetID *string, amount int64) *models.Transaction {
	t.Helper()

	trx := &models.Transaction{
		Type:            trxType,
		Description:     fmt.Sprintf("Test Transaction %d", nextID()),
		Amount:          amount,
		TransactionAt:   time.Now(),
		SourceAccountID: sourceID,
		TargetAccountID: targetID,
	}
	if err := db.Omit("SourceAccount", "TargetAccount", "Category").Create(trx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return trx
}

// ReloadAccount reads an account's current row.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.Where("id = ?", id).Take(&account).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// AssertBalance fails the test unless the account's stored balance is want.
func AssertBalance(t *testing.T, db *gorm.DB, id string, want int64) {
	t.Helper()

	if got := ReloadAccount(t, db, id).CurrentAmount; got != want {
		t.Errorf("account %s: expected balance %d, got %d", id, want, got)
	}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
