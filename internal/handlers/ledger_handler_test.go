package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/ledger"
	"dompet/internal/services"
)

type mockReconcileService struct {
	checkFn  func(ctx context.Context) (*ledger.Report, error)
	repairFn func(ctx context.Context) (*ledger.Report, error)
}

func (m *mockReconcileService) Check(ctx context.Context) (*ledger.Report, error) {
	if m.checkFn != nil {
		return m.checkFn(ctx)
	}
	return &ledger.Report{}, nil
}

func (m *mockReconcileService) Repair(ctx context.Context) (*ledger.Report, error) {
	if m.repairFn != nil {
		return m.repairFn(ctx)
	}
	return &ledger.Report{}, nil
}

var _ services.ReconcileServicer = (*mockReconcileService)(nil)

func setupLedgerRouter(handler *LedgerHandler) *gin.Engine {
	r := gin.New()
	r.GET("/ledger/reconcile", handler.Reconcile)
	r.POST("/ledger/reconcile/repair", handler.Repair)
	return r
}

func TestLedgerHandler_Reconcile(t *testing.T) {
	t.Run("reports drift", func(t *testing.T) {
		svc := &mockReconcileService{
			checkFn: func(context.Context) (*ledger.Report, error) {
				return &ledger.Report{Balances: []ledger.Balance{
					{AccountID: testAccountID, Name: "Cash", Recorded: 1000, Expected: 650},
					{AccountID: testAccount2ID, Name: "Bank", Recorded: 100, Expected: 100},
				}}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "GET", "/ledger/reconcile", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["consistent"] != false {
			t.Errorf("expected inconsistent, got %v", result["consistent"])
		}
		if accounts := result["accounts"].([]interface{}); len(accounts) != 2 {
			t.Errorf("expected 2 accounts, got %d", len(accounts))
		}
		drifted := result["drifted"].([]interface{})
		if len(drifted) != 1 || drifted[0].(map[string]interface{})["account_id"] != testAccountID {
			t.Errorf("unexpected drifted %v", drifted)
		}
	})

	t.Run("empty ledger is consistent", func(t *testing.T) {
		r := setupLedgerRouter(NewLedgerHandler(&mockReconcileService{}))

		rec := doRequest(r, "GET", "/ledger/reconcile", "")

		result := parseJSON(t, rec)
		if result["consistent"] != true {
			t.Errorf("expected consistent, got %v", result["consistent"])
		}
		if drifted, ok := result["drifted"].([]interface{}); !ok || len(drifted) != 0 {
			t.Errorf("expected empty drifted array, got %v", result["drifted"])
		}
	})
}

func TestLedgerHandler_Repair(t *testing.T) {
	t.Run("returns pre-repair report", func(t *testing.T) {
		called := false
		svc := &mockReconcileService{
			repairFn: func(context.Context) (*ledger.Report, error) {
				called = true
				return &ledger.Report{Balances: []ledger.Balance{{AccountID: testAccountID, Recorded: 5, Expected: 0}}}, nil
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "POST", "/ledger/reconcile/repair", "")

		if rec.Code != http.StatusOK || !called {
			t.Fatalf("expected 200 with repair call, got %d", rec.Code)
		}
		if drifted := parseJSON(t, rec)["drifted"].([]interface{}); len(drifted) != 1 {
			t.Errorf("expected 1 repaired account, got %d", len(drifted))
		}
	})

	t.Run("returns 500 on failure", func(t *testing.T) {
		svc := &mockReconcileService{
			repairFn: func(context.Context) (*ledger.Report, error) {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, errors.New("locked"))
			},
		}
		r := setupLedgerRouter(NewLedgerHandler(svc))

		rec := doRequest(r, "POST", "/ledger/reconcile/repair", "")

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INTERNAL_ERROR")
	})
}
