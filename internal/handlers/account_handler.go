package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/models"
	"dompet/internal/pagination"
	"dompet/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	queryService   services.QueryServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, queryService services.QueryServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, queryService: queryService}
}

// CreateAccountRequest represents the request payload for creating an account.
// Amounts are in minor currency units.
type CreateAccountRequest struct {
	Name          string             `json:"name" binding:"required,max=100"`
	Type          models.AccountType `json:"type" binding:"required,account_type"`
	InitialAmount int64              `json:"initial_amount"`
}

// UpdateAccountRequest represents the request payload for updating an account.
type UpdateAccountRequest struct {
	Name          *string             `json:"name" binding:"omitempty,max=100"`
	Type          *models.AccountType `json:"type" binding:"omitempty,account_type"`
	InitialAmount *int64              `json:"initial_amount"`
}

// TotalBalanceResponse represents the sum of all account balances.
type TotalBalanceResponse struct {
	TotalBalance int64 `json:"total_balance"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a new account; its current balance starts at the initial amount
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} models.Account "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req.Name, req.Type, req.InitialAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account})
}

// ListAccounts handles the retrieval of all accounts
// @Summary     List accounts
// @Description Get a paginated list of accounts
// @Tags        accounts
// @Produce     json
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Account] "Paginated accounts"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.accountService.ListAccounts(c.Request.Context(), page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetAccountByID handles the retrieval of a specific account
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} models.Account "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// UpdateAccount handles updating an existing account
// @Summary     Update account
// @Description Update an account's name, type or initial amount. Changing the initial amount shifts the current balance by the same difference.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to update"
// @Success     200 {object} models.Account "Account updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), accountID, services.AccountUpdate{
		Name:          req.Name,
		Type:          req.Type,
		InitialAmount: req.InitialAmount,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account})
}

// DeleteAccount handles deleting an account
// @Summary     Delete account
// @Description Delete an account that no transaction references
// @Tags        accounts
// @Produce     json
// @Param       id path string true "Account ID"
// @Success     200 {object} map[string]string "Account deleted"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     409 {object} ErrorResponse "Account in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), accountID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully"})
}

// GetTotalBalance handles the retrieval of the sum of all account balances
// @Summary     Total balance
// @Tags        accounts
// @Produce     json
// @Success     200 {object} TotalBalanceResponse "Sum of current balances"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/total-balance [get]
func (h *AccountHandler) GetTotalBalance(c *gin.Context) {
	total, err := h.queryService.TotalBalance(c.Request.Context())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TotalBalanceResponse{TotalBalance: total})
}
