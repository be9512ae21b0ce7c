package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"dompet/internal/services"
)

// ReportHandler serves read-only statistics over the ledger.
type ReportHandler struct {
	queryService services.QueryServicer
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(queryService services.QueryServicer) *ReportHandler {
	return &ReportHandler{queryService: queryService}
}

// GetMonthlySummary handles the retrieval of income and expense totals for a month
// @Summary     Monthly summary
// @Description Income, expense and net totals for one calendar month (UTC). Transfers are counted but excluded from the totals. Defaults to the current month.
// @Tags        reports
// @Produce     json
// @Param       month query string false "Month (YYYY-MM)"
// @Success     200 {object} services.MonthlySummary "Monthly totals"
// @Failure     400 {object} ErrorResponse "Invalid month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/monthly [get]
func (h *ReportHandler) GetMonthlySummary(c *gin.Context) {
	now := time.Now().UTC()
	year, month := now.Year(), now.Month()
	if v := c.Query("month"); v != "" {
		var err error
		if year, month, err = parseMonth(v); err != nil {
			respondWithError(c, err)
			return
		}
	}

	summary, err := h.queryService.MonthlySummary(c.Request.Context(), year, month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetSpendingByCategory handles the retrieval of totals grouped by category
// @Summary     Spending by category
// @Description Totals per category with each category's share of the grand total. Defaults to expenses.
// @Tags        reports
// @Produce     json
// @Param       month      query string false "Restrict to a calendar month (YYYY-MM)"
// @Param       from       query string false "Inclusive start (RFC3339 or YYYY-MM-DD)"
// @Param       to         query string false "Exclusive end (RFC3339 or YYYY-MM-DD)"
// @Param       type       query string false "Transaction type to total (default expense)"
// @Param       account_id query string false "Restrict to one account"
// @Success     200 {array}  services.CategoryTotal "Per-category totals"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /reports/categories [get]
func (h *ReportHandler) GetSpendingByCategory(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	totals, err := h.queryService.SpendingByCategory(c.Request.Context(), filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": totals})
}
