package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/export"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/services"
	"dompet/internal/uuid"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	queryService       services.QueryServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, queryService services.QueryServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, queryService: queryService}
}

// TransactionRequest represents the request payload for creating or replacing
// a transaction. Transfers require target_account_id; income and expense
// must omit it.
type TransactionRequest struct {
	Type            models.TransactionType `json:"type" binding:"required,transaction_type"`
	Description     string                 `json:"description" binding:"max=500"`
	Amount          int64                  `json:"amount" binding:"min=0"`
	TransactionAt   *string                `json:"transaction_at"`
	Note            *string                `json:"note" binding:"omitempty,max=1000"`
	SourceAccountID string                 `json:"source_account_id" binding:"required,uuid"`
	TargetAccountID *string                `json:"target_account_id" binding:"omitempty,uuid"`
	CategoryID      *string                `json:"category_id" binding:"omitempty,uuid"`
}

func (r *TransactionRequest) toInput() (services.TransactionInput, error) {
	input := services.TransactionInput{
		Type:            r.Type,
		Description:     r.Description,
		Amount:          r.Amount,
		Note:            r.Note,
		SourceAccountID: r.SourceAccountID,
		TargetAccountID: r.TargetAccountID,
		CategoryID:      r.CategoryID,
	}
	if r.TransactionAt != nil && *r.TransactionAt != "" {
		parsed, err := parseFlexibleTime(*r.TransactionAt)
		if err != nil {
			return input, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
		}
		input.TransactionAt = parsed
	}
	return input, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record an income, expense or transfer and apply it to the referenced account balances
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       request body TransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Referenced account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// ListTransactions handles the retrieval of transactions
// @Summary     List transactions
// @Description Get a paginated list of transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       month       query string false "Restrict to a calendar month (YYYY-MM)"
// @Param       from        query string false "Inclusive start (RFC3339 e.g. 2024-01-01T00:00:00Z, or YYYY-MM-DD)"
// @Param       to          query string false "Exclusive end (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "Filter by transaction type (income, expense, transfer)"
// @Param       account_id  query string false "Filter by source or target account ID"
// @Param       category_id query string false "Filter by category ID"
// @Param       min_amount  query int    false "Filter by minimum amount (minor units)"
// @Param       max_amount  query int    false "Filter by maximum amount (minor units)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.queryService.ListTransactions(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountTransactions handles the retrieval of transactions for a specific account
// @Summary     Get account transactions
// @Description Get a paginated list of transactions where the account is the source or the target
// @Tags        accounts,transactions
// @Produce     json
// @Param       id          path  string true  "Account ID"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       month       query string false "Restrict to a calendar month (YYYY-MM)"
// @Param       from        query string false "Inclusive start (RFC3339 or YYYY-MM-DD)"
// @Param       to          query string false "Exclusive end (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "Filter by transaction type (income, expense, transfer)"
// @Param       category_id query string false "Filter by category ID"
// @Param       min_amount  query int    false "Filter by minimum amount (minor units)"
// @Param       max_amount  query int    false "Filter by maximum amount (minor units)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	filter.AccountID = &accountID

	result, err := h.queryService.ListTransactions(c.Request.Context(), filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ExportTransactions handles exporting transactions as a spreadsheet
// @Summary     Export transactions
// @Description Download every transaction matching the filters as an XLSX workbook, newest first
// @Tags        transactions
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param       month       query string false "Restrict to a calendar month (YYYY-MM)"
// @Param       from        query string false "Inclusive start (RFC3339 or YYYY-MM-DD)"
// @Param       to          query string false "Exclusive end (RFC3339 or YYYY-MM-DD)"
// @Param       type        query string false "Filter by transaction type (income, expense, transfer)"
// @Param       account_id  query string false "Filter by source or target account ID"
// @Param       category_id query string false "Filter by category ID"
// @Success     200 {file} file "XLSX workbook"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/export [get]
func (h *TransactionHandler) ExportTransactions(c *gin.Context) {
	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var buf bytes.Buffer
	if _, err := export.WriteTransactions(&buf, h.queryService.StreamTransactions(c.Request.Context(), filter)); err != nil {
		respondWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"", time.Now().Format("20060102")))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// parseTransactionFilter reads the filter query parameters shared by the
// transaction listings and reports. month takes precedence over from/to.
func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("month"); v != "" {
		year, month, err := parseMonth(v)
		if err != nil {
			return filter, err
		}
		from, to := services.MonthRange(year, month, time.UTC)
		filter.From, filter.To = &from, &to
	} else {
		if v := queryAny(c, "from", "from_date"); v != "" {
			t, err := parseFlexibleTime(v)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from format, use RFC3339 or YYYY-MM-DD")
			}
			filter.From = &t
		}

		if v := queryAny(c, "to", "to_date"); v != "" {
			t, err := parseFlexibleTime(v)
			if err != nil {
				return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to format, use RFC3339 or YYYY-MM-DD")
			}
			filter.To = &t
		}
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be income, expense, or transfer")
		}
		filter.Type = &txType
	}

	if v := c.Query("account_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account_id")
		}
		filter.AccountID = &v
	}

	if v := c.Query("category_id"); v != "" {
		if !uuid.IsValid(v) {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid category_id")
		}
		filter.CategoryID = &v
	}

	if v := c.Query("min_amount"); v != "" {
		amt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid min_amount")
		}
		filter.MinAmount = &amt
	}

	if v := c.Query("max_amount"); v != "" {
		amt, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid max_amount")
		}
		filter.MaxAmount = &amt
	}

	return filter, nil
}

// queryAny returns the first non-empty query value among keys.
func queryAny(c *gin.Context, keys ...string) string {
	for _, k := range keys {
		if v := c.Query(k); v != "" {
			return v
		}
	}
	return ""
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles replacing an existing transaction
// @Summary     Update transaction
// @Description Replace every field of a transaction. The old effect is reverted and the new one applied in one atomic step, so changing type, amount or accounts keeps balances consistent.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Param       id      path string             true "Transaction ID"
// @Param       request body TransactionRequest true "Transaction details"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Transaction or account not found"
// @Failure     409 {object} ErrorResponse "Referenced account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input, err := req.toInput()
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), txID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and revert its effect on account balances
// @Tags        transactions
// @Produce     json
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
