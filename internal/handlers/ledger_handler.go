package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dompet/internal/ledger"
	"dompet/internal/services"
)

// LedgerHandler exposes balance reconciliation.
type LedgerHandler struct {
	reconcileService services.ReconcileServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconcileService services.ReconcileServicer) *LedgerHandler {
	return &LedgerHandler{reconcileService: reconcileService}
}

// ReconcileResponse reports recorded against recomputed balances.
type ReconcileResponse struct {
	Consistent bool             `json:"consistent"`
	Accounts   []ledger.Balance `json:"accounts"`
	Drifted    []ledger.Balance `json:"drifted"`
}

func newReconcileResponse(report *ledger.Report) ReconcileResponse {
	resp := ReconcileResponse{
		Consistent: report.Consistent(),
		Accounts:   report.Balances,
		Drifted:    report.Drifted(),
	}
	if resp.Accounts == nil {
		resp.Accounts = []ledger.Balance{}
	}
	if resp.Drifted == nil {
		resp.Drifted = []ledger.Balance{}
	}
	return resp
}

// Reconcile handles verifying every account balance against its transactions
// @Summary     Reconcile balances
// @Description Recompute each account's balance from its initial amount and transactions and compare it to the stored value
// @Tags        ledger
// @Produce     json
// @Success     200 {object} ReconcileResponse "Reconciliation report"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/reconcile [get]
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	report, err := h.reconcileService.Check(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReconcileResponse(report))
}

// Repair handles overwriting drifted balances with their recomputed values
// @Summary     Repair balances
// @Description Reconcile and set every drifted account to its recomputed balance. The report lists the balances as found before repair.
// @Tags        ledger
// @Produce     json
// @Success     200 {object} ReconcileResponse "Report of repaired accounts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /ledger/reconcile/repair [post]
func (h *LedgerHandler) Repair(c *gin.Context) {
	report, err := h.reconcileService.Repair(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newReconcileResponse(report))
}
