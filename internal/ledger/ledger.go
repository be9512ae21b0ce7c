package ledger

import (
	"context"
	"errors"
	"time"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/store"
)

// Ledger posts transaction deltas to account balances. It is the only
// component that changes Account.CurrentAmount. Every method takes the
// scoped store of the caller's atomic scope and never opens its own.
type Ledger struct {
	now func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the clock used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// New creates a Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply adds trx's delta to the accounts it references and returns their
// updated rows in leg order.
func (l *Ledger) Apply(ctx context.Context, tx *store.Store, trx *models.Transaction) ([]models.Account, error) {
	entries, err := Delta(trx)
	if err != nil {
		return nil, err
	}
	return l.post(ctx, tx, entries)
}

// Revert removes trx's delta from the accounts it references. It is the
// exact inverse of Apply.
func (l *Ledger) Revert(ctx context.Context, tx *store.Store, trx *models.Transaction) ([]models.Account, error) {
	entries, err := Delta(trx)
	if err != nil {
		return nil, err
	}
	return l.post(ctx, tx, Negate(entries))
}

// Replace moves balances from old's effect to updated's effect. The old
// delta is reverted first using old's own fields; the new delta is then
// applied against rows re-read after the revert, which keeps swapped or
// overlapping accounts correct. The result holds the final row of every
// account either version touched.
func (l *Ledger) Replace(ctx context.Context, tx *store.Store, old, updated *models.Transaction) ([]models.Account, error) {
	reverted, err := l.Revert(ctx, tx, old)
	if err != nil {
		return nil, err
	}
	applied, err := l.Apply(ctx, tx, updated)
	if err != nil {
		return nil, err
	}
	return mergeAccounts(reverted, applied), nil
}

// Rebase changes an account's opening balance and shifts its current
// balance by the same difference, preserving the balance invariant.
func (l *Ledger) Rebase(ctx context.Context, tx *store.Store, accountID string, initialAmount int64) (*models.Account, error) {
	account, err := lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}
	diff := initialAmount - account.InitialAmount
	if diff == 0 {
		return account, nil
	}

	now := l.now()
	if _, err := tx.Accounts().UpdateColumns(ctx,
		map[string]any{"initial_amount": initialAmount},
		store.Where("id = ?", accountID),
	); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.AdjustBalance(ctx, accountID, diff, now); err != nil {
		return nil, balanceError(err)
	}

	account.InitialAmount = initialAmount
	account.CurrentAmount += diff
	account.Touch(now)
	return account, nil
}

// post applies each entry against a freshly locked read of its account.
func (l *Ledger) post(ctx context.Context, tx *store.Store, entries []Entry) ([]models.Account, error) {
	now := l.now()
	updated := make([]models.Account, 0, len(entries))
	for _, e := range entries {
		account, err := lockAccount(ctx, tx, e.AccountID)
		if err != nil {
			return nil, err
		}
		if err := tx.AdjustBalance(ctx, e.AccountID, e.Amount, now); err != nil {
			return nil, balanceError(err)
		}
		account.CurrentAmount += e.Amount
		account.Touch(now)
		updated = append(updated, *account)
	}
	return updated, nil
}

func lockAccount(ctx context.Context, tx *store.Store, accountID string) (*models.Account, error) {
	account, err := tx.Accounts().GetByIDForUpdate(ctx, accountID)
	if err != nil {
		return nil, balanceError(err)
	}
	return account, nil
}

func balanceError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Referenced account not found")
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// mergeAccounts keeps the latest row per account, in first-seen order.
func mergeAccounts(groups ...[]models.Account) []models.Account {
	index := make(map[string]int)
	var out []models.Account
	for _, group := range groups {
		for _, a := range group {
			if i, ok := index[a.ID]; ok {
				out[i] = a
				continue
			}
			index[a.ID] = len(out)
			out = append(out, a)
		}
	}
	return out
}
