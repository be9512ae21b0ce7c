// Package ledger maintains account balances. It derives the signed balance
// change each transaction applies to the accounts it references and posts
// those changes, or their inverse, inside the caller's atomic scope.
package ledger

import (
	apperrors "dompet/internal/errors"
	"dompet/internal/models"
)

// Entry is one leg of a transaction's effect: Amount is added to the
// account's current balance.
type Entry struct {
	AccountID string
	Amount    int64
}

// Delta returns the balance changes trx applies.
//
//	income:   [(source, +amount)]
//	expense:  [(source, -amount)]
//	transfer: [(source, -amount), (target, +amount)]
func Delta(trx *models.Transaction) ([]Entry, error) {
	switch trx.Type {
	case models.TransactionTypeIncome:
		return []Entry{{AccountID: trx.SourceAccountID, Amount: trx.Amount}}, nil
	case models.TransactionTypeExpense:
		return []Entry{{AccountID: trx.SourceAccountID, Amount: -trx.Amount}}, nil
	case models.TransactionTypeTransfer:
		if trx.TargetAccountID == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer has no target account")
		}
		return []Entry{
			{AccountID: trx.SourceAccountID, Amount: -trx.Amount},
			{AccountID: *trx.TargetAccountID, Amount: trx.Amount},
		}, nil
	default:
		return nil, apperrors.ErrInvalidTransactionType
	}
}

// Negate returns entries with every sign flipped.
func Negate(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = Entry{AccountID: e.AccountID, Amount: -e.Amount}
	}
	return out
}

// Net folds entries into the total change per account.
func Net(entries []Entry) map[string]int64 {
	net := make(map[string]int64, len(entries))
	for _, e := range entries {
		net[e.AccountID] += e.Amount
	}
	return net
}
