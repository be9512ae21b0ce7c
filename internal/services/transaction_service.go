package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/ledger"
	"dompet/internal/models"
	"dompet/internal/store"
)

// transactionService coordinates every transaction mutation: the row write
// and the balance change it implies commit together or not at all.
type transactionService struct {
	store           *store.Store
	ledger          *ledger.Ledger
	requireCategory bool
}

// TransactionOption configures the transaction service.
type TransactionOption func(*transactionService)

// WithRequiredCategory makes a category mandatory for income and expense
// transactions.
func WithRequiredCategory(required bool) TransactionOption {
	return func(s *transactionService) {
		s.requireCategory = required
	}
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(st *store.Store, l *ledger.Ledger, opts ...TransactionOption) TransactionServicer {
	s := &transactionService{store: st, ledger: l}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTransaction records a transaction and applies its balance effect.
func (s *transactionService) CreateTransaction(ctx context.Context, input TransactionInput) (*models.Transaction, error) {
	trx, err := s.build(input)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		if err := tx.Transactions().Insert(ctx, trx); err != nil {
			return transactionWriteError(err)
		}
		_, err := s.ledger.Apply(ctx, tx, trx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return trx, nil
}

// GetTransactionByID retrieves a transaction by ID.
func (s *transactionService) GetTransactionByID(ctx context.Context, id string) (*models.Transaction, error) {
	return getTransaction(ctx, s.store, id)
}

// UpdateTransaction replaces every field of a transaction. The old balance
// effect is reverted before the new one is applied, whichever fields changed.
func (s *transactionService) UpdateTransaction(ctx context.Context, id string, input TransactionInput) (*models.Transaction, error) {
	updated, err := s.build(input)
	if err != nil {
		return nil, err
	}

	err = s.store.Atomic(ctx, func(tx *store.Store) error {
		old, err := getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}

		updated.ID = old.ID
		updated.CreatedAt = old.CreatedAt
		updated.Touch(time.Now())

		if _, err := s.ledger.Replace(ctx, tx, old, updated); err != nil {
			return err
		}
		if err := tx.Transactions().Update(ctx, updated); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return transactionWriteError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes a transaction and reverts its balance effect.
func (s *transactionService) DeleteTransaction(ctx context.Context, id string) error {
	return s.store.Atomic(ctx, func(tx *store.Store) error {
		trx, err := getTransaction(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := s.ledger.Revert(ctx, tx, trx); err != nil {
			return err
		}
		if err := tx.Transactions().DeleteByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// build validates input and turns it into an unsaved transaction. Nothing is
// written when validation fails.
func (s *transactionService) build(input TransactionInput) (*models.Transaction, error) {
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.Amount < 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be negative")
	}

	source := strings.TrimSpace(input.SourceAccountID)
	if source == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "source account is required")
	}
	target := normalizeID(input.TargetAccountID)
	category := normalizeID(input.CategoryID)

	switch input.Type {
	case models.TransactionTypeTransfer:
		if target == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target account is required for transfers")
		}
		if *target == source {
			return nil, apperrors.ErrSameAccountTransfer
		}
	default:
		if target != nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "target account is only allowed for transfers")
		}
		if s.requireCategory && category == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
		}
	}

	at := input.TransactionAt
	if at.IsZero() {
		at = time.Now()
	}
	// Stored in UTC so range filters compare consistently on every driver.
	at = at.UTC()

	return &models.Transaction{
		Type:            input.Type,
		Description:     strings.TrimSpace(input.Description),
		Amount:          input.Amount,
		TransactionAt:   at,
		Note:            input.Note,
		SourceAccountID: source,
		TargetAccountID: target,
		CategoryID:      category,
	}, nil
}

func getTransaction(ctx context.Context, st *store.Store, id string) (*models.Transaction, error) {
	trx, err := st.Transactions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return trx, nil
}

func transactionWriteError(err error) error {
	if errors.Is(err, store.ErrForeignKey) {
		return apperrors.Wrap(apperrors.ErrReferenceNotFound, err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}
