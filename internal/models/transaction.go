package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is a tagged union over Type. Income and expense rows touch only
// the source account and keep TargetAccountID nil; transfers move Amount from
// the source to the target account. CategoryID never affects balances.
type Transaction struct {
	Base
	Type          TransactionType `gorm:"not null;index" json:"type"`
	Description   string          `json:"description"`
	Amount        int64           `gorm:"type:bigint;not null" json:"amount"`
	TransactionAt time.Time       `gorm:"not null;index" json:"transaction_at"`
	Note          *string         `json:"note,omitempty"`

	SourceAccountID string  `gorm:"type:uuid;not null;index" json:"source_account_id"`
	TargetAccountID *string `gorm:"type:uuid;index" json:"target_account_id,omitempty"`
	CategoryID      *string `gorm:"type:uuid;index" json:"category_id,omitempty"`

	// Relationships carry the referential policy; they are never loaded.
	SourceAccount *Account  `gorm:"foreignKey:SourceAccountID;constraint:OnDelete:CASCADE" json:"-"`
	TargetAccount *Account  `gorm:"foreignKey:TargetAccountID;constraint:OnDelete:SET NULL" json:"-"`
	Category      *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"-"`
}

// IsTransfer reports whether the transaction moves money between two accounts.
func (t *Transaction) IsTransfer() bool {
	return t.Type == TransactionTypeTransfer
}

// References reports whether accountID is the source or target of t.
func (t *Transaction) References(accountID string) bool {
	if t.SourceAccountID == accountID {
		return true
	}
	return t.TargetAccountID != nil && *t.TargetAccountID == accountID
}
