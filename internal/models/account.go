package models

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeCash    AccountType = "cash"
	AccountTypeBank    AccountType = "bank"
	AccountTypeCredit  AccountType = "credit"
	AccountTypeEwallet AccountType = "ewallet"
	AccountTypeEmoney  AccountType = "emoney"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeCash, AccountTypeBank, AccountTypeCredit, AccountTypeEwallet, AccountTypeEmoney:
		return true
	}
	return false
}

// Account represents a financial account in the system.
//
// Amounts are in minor currency units. CurrentAmount always equals
// InitialAmount plus the net delta of every transaction that references the
// account; it is written only by the ledger package.
type Account struct {
	Base
	Name          string      `gorm:"not null" json:"name"`
	Type          AccountType `gorm:"not null" json:"type"`
	InitialAmount int64       `gorm:"type:bigint;not null" json:"initial_amount"`
	CurrentAmount int64       `gorm:"type:bigint;not null" json:"current_amount"`
}
