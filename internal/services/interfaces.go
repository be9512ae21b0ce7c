package services

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"dompet/internal/ledger"
	"dompet/internal/models"
	"dompet/internal/pagination"
)

// AccountUpdate holds the account fields a caller may change. Nil fields are
// left untouched. The current balance is never directly editable.
type AccountUpdate struct {
	Name          *string
	Type          *models.AccountType
	InitialAmount *int64
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, name string, accountType models.AccountType, initialAmount int64) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	UpdateAccount(ctx context.Context, id string, update AccountUpdate) (*models.Account, error)
	DeleteAccount(ctx context.Context, id string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error)
	GetCategoryByID(ctx context.Context, id string) (*models.Category, error)
	ListCategories(ctx context.Context, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	UpdateCategory(ctx context.Context, id string, name string, categoryType models.CategoryType, parentID *string) (*models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// TransactionInput carries the caller-supplied fields of a transaction. On
// update it replaces every field of the stored row.
type TransactionInput struct {
	Type            models.TransactionType
	Description     string
	Amount          int64
	TransactionAt   time.Time
	Note            *string
	SourceAccountID string
	TargetAccountID *string
	CategoryID      *string
}

// TransactionServicer defines the contract for the transaction coordinator.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, input TransactionInput) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// TransactionFilter holds optional filter parameters for listing transactions.
// From is inclusive and To is exclusive. AccountID matches either side of a
// transfer.
type TransactionFilter struct {
	From       *time.Time
	To         *time.Time
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
	MinAmount  *int64
	MaxAmount  *int64
}

// MonthlySummary totals one calendar month. Transfers move money between
// accounts and are counted but excluded from the income and expense totals.
type MonthlySummary struct {
	Month            string `json:"month"`
	Income           int64  `json:"income"`
	Expense          int64  `json:"expense"`
	Net              int64  `json:"net"`
	TransactionCount int64  `json:"transaction_count"`
}

// CategoryTotal is one row of a spending breakdown. A nil CategoryID groups
// uncategorised transactions.
type CategoryTotal struct {
	CategoryID       *string         `json:"category_id"`
	Name             string          `json:"name"`
	Total            int64           `json:"total"`
	TransactionCount int64           `json:"transaction_count"`
	Percentage       decimal.Decimal `json:"percentage"`
}

// QueryServicer defines the read-only reporting contract.
type QueryServicer interface {
	ListTransactions(ctx context.Context, filter TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	StreamTransactions(ctx context.Context, filter TransactionFilter) iter.Seq2[models.Transaction, error]
	TotalBalance(ctx context.Context) (int64, error)
	MonthlySummary(ctx context.Context, year int, month time.Month) (*MonthlySummary, error)
	SpendingByCategory(ctx context.Context, filter TransactionFilter) ([]CategoryTotal, error)
}

// ReconcileServicer defines the contract for balance verification.
type ReconcileServicer interface {
	Check(ctx context.Context) (*ledger.Report, error)
	Repair(ctx context.Context) (*ledger.Report, error)
}
