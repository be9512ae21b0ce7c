package services

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/ledger"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/store"
)

// accountService handles account-related business logic.
type accountService struct {
	store  *store.Store
	ledger *ledger.Ledger
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(st *store.Store, l *ledger.Ledger) AccountServicer {
	return &accountService{store: st, ledger: l}
}

// CreateAccount creates a new account whose current balance starts at its
// opening balance.
func (s *accountService) CreateAccount(ctx context.Context, name string, accountType models.AccountType, initialAmount int64) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !accountType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
	}

	account := &models.Account{
		Name:          name,
		Type:          accountType,
		InitialAmount: initialAmount,
		CurrentAmount: initialAmount,
	}
	if err := s.store.Accounts().Insert(ctx, account); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}

// GetAccountByID retrieves an account by ID.
func (s *accountService) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	return getAccount(ctx, s.store, id)
}

// ListAccounts retrieves a paginated list of accounts, oldest first.
func (s *accountService) ListAccounts(ctx context.Context, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	totalItems, err := s.store.Accounts().Count(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	accounts, err := s.store.Accounts().List(ctx,
		store.OrderBy("created_at ASC, id ASC"),
		pagination.Paginate(page),
	)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(accounts, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateAccount changes an account's name, type or opening balance. A new
// opening balance shifts the current balance by the same difference.
func (s *accountService) UpdateAccount(ctx context.Context, id string, update AccountUpdate) (*models.Account, error) {
	values := map[string]any{}
	if update.Name != nil {
		name := strings.TrimSpace(*update.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
		}
		values["name"] = name
	}
	if update.Type != nil {
		if !update.Type.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
		}
		values["type"] = *update.Type
	}

	var result *models.Account
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		if _, err := getAccount(ctx, tx, id); err != nil {
			return err
		}

		if len(values) > 0 {
			values["updated_at"] = time.Now()
			if _, err := tx.Accounts().UpdateColumns(ctx, values, store.Where("id = ?", id)); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		if update.InitialAmount != nil {
			if _, err := s.ledger.Rebase(ctx, tx, id, *update.InitialAmount); err != nil {
				return err
			}
		}

		account, err := getAccount(ctx, tx, id)
		if err != nil {
			return err
		}
		result = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteAccount removes an account. Accounts still referenced by a
// transaction, as source or as transfer target, cannot be deleted.
func (s *accountService) DeleteAccount(ctx context.Context, id string) error {
	return s.store.Atomic(ctx, func(tx *store.Store) error {
		refs, err := tx.Transactions().Count(ctx,
			store.Where("source_account_id = ? OR target_account_id = ?", id, id),
		)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if refs > 0 {
			return apperrors.ErrAccountInUse
		}

		if err := tx.Accounts().DeleteByID(ctx, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

func getAccount(ctx context.Context, st *store.Store, id string) (*models.Account, error) {
	account, err := st.Accounts().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return account, nil
}
