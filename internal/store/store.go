// Package store is the entity store: typed tables over GORM plus the atomic
// scope every multi-step mutation runs in.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"dompet/internal/models"
)

// Store wraps a GORM handle. Inside Atomic the handle is bound to the open
// database transaction, so reads observe the scope's own earlier writes.
type Store struct {
	db *gorm.DB
}

// New creates a Store over db. The caller owns db and closes it.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Atomic runs fn inside a database transaction. The transaction commits when
// fn returns nil and rolls back when fn returns an error or panics. Calling
// Atomic on a scoped Store nests through a savepoint.
//
// fn must only use the tx it is given; with single-connection backends a
// query through the outer Store blocks until the scope ends.
func (s *Store) Atomic(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// Accounts returns the accounts table.
func (s *Store) Accounts() Table[models.Account] {
	return Table[models.Account]{db: s.db}
}

// Categories returns the categories table.
func (s *Store) Categories() Table[models.Category] {
	return Table[models.Category]{db: s.db}
}

// Transactions returns the transactions table.
func (s *Store) Transactions() Table[models.Transaction] {
	return Table[models.Transaction]{db: s.db}
}

// AdjustBalance adds delta to an account's current_amount in a single
// statement and stamps updated_at. It is the only write path for
// current_amount and is reserved for the ledger package.
func (s *Store) AdjustBalance(ctx context.Context, accountID string, delta int64, now time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", accountID).
		UpdateColumns(map[string]any{
			"current_amount": gorm.Expr("current_amount + ?", delta),
			"updated_at":     now,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
