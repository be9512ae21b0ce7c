package ledger

import (
	"context"

	apperrors "dompet/internal/errors"
	"dompet/internal/store"
)

// Balance compares an account's stored balance with the balance derived
// from its opening amount and every transaction that references it.
type Balance struct {
	AccountID string `json:"account_id"`
	Name      string `json:"name"`
	Recorded  int64  `json:"recorded"`
	Expected  int64  `json:"expected"`
}

// Drift is the amount by which the stored balance exceeds the derived one.
func (b Balance) Drift() int64 {
	return b.Recorded - b.Expected
}

// Report is the outcome of a reconciliation pass.
type Report struct {
	Balances []Balance `json:"balances"`
}

// Consistent reports whether every account matches its derived balance.
func (r Report) Consistent() bool {
	return len(r.Drifted()) == 0
}

// Drifted returns the accounts whose stored balance is wrong.
func (r Report) Drifted() []Balance {
	var out []Balance
	for _, b := range r.Balances {
		if b.Drift() != 0 {
			out = append(out, b)
		}
	}
	return out
}

// Reconcile recomputes every account's balance from scratch and compares it
// with the stored value. It only reads.
func (l *Ledger) Reconcile(ctx context.Context, tx *store.Store) (Report, error) {
	accounts, err := tx.Accounts().List(ctx, store.OrderBy("created_at ASC, id ASC"))
	if err != nil {
		return Report{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	expected := make(map[string]int64, len(accounts))
	for _, a := range accounts {
		expected[a.ID] = a.InitialAmount
	}

	for trx, err := range tx.Transactions().Stream(ctx) {
		if err != nil {
			return Report{}, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		entries, err := Delta(&trx)
		if err != nil {
			return Report{}, err
		}
		for _, e := range entries {
			expected[e.AccountID] += e.Amount
		}
	}

	report := Report{Balances: make([]Balance, 0, len(accounts))}
	for _, a := range accounts {
		report.Balances = append(report.Balances, Balance{
			AccountID: a.ID,
			Name:      a.Name,
			Recorded:  a.CurrentAmount,
			Expected:  expected[a.ID],
		})
	}
	return report, nil
}

// Repair reconciles and then corrects every drifted account. The returned
// report describes the state found before the correction.
func (l *Ledger) Repair(ctx context.Context, tx *store.Store) (Report, error) {
	report, err := l.Reconcile(ctx, tx)
	if err != nil {
		return Report{}, err
	}

	fixes := make([]Entry, 0)
	for _, b := range report.Drifted() {
		fixes = append(fixes, Entry{AccountID: b.AccountID, Amount: -b.Drift()})
	}
	if _, err := l.post(ctx, tx, fixes); err != nil {
		return Report{}, err
	}
	return report, nil
}
