package services

import (
	"context"

	"dompet/internal/ledger"
	"dompet/internal/logger"
	"dompet/internal/store"
)

// reconcileService verifies stored balances against the transaction history.
type reconcileService struct {
	store  *store.Store
	ledger *ledger.Ledger
}

// NewReconcileService creates a new ReconcileServicer.
func NewReconcileService(st *store.Store, l *ledger.Ledger) ReconcileServicer {
	return &reconcileService{store: st, ledger: l}
}

// Check reports every account's stored and derived balance. It changes
// nothing.
func (s *reconcileService) Check(ctx context.Context) (*ledger.Report, error) {
	var report ledger.Report
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		var err error
		report, err = s.ledger.Reconcile(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Repair corrects every drifted balance and returns the state found before
// the correction.
func (s *reconcileService) Repair(ctx context.Context) (*ledger.Report, error) {
	var report ledger.Report
	err := s.store.Atomic(ctx, func(tx *store.Store) error {
		var err error
		report, err = s.ledger.Repair(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, b := range report.Drifted() {
		logger.Get().Warnw("Repaired account balance",
			"account_id", b.AccountID,
			"recorded", b.Recorded,
			"expected", b.Expected,
		)
	}
	return &report, nil
}
