// Package errors provides the typed failures returned by the ledger core.
// Every service-layer error is an *AppError so callers can branch on Kind or
// Code and handlers can render a consistent response without leaking
// internal details.
package errors

import (
	"errors"
	"net/http"
)

// Kind groups error codes into the failure classes callers act on.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindReference  Kind = "reference"
	KindHierarchy  Kind = "hierarchy"
	KindConflict   Kind = "conflict"
	KindInternal   Kind = "internal"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Kind       Kind   `json:"-"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an *AppError with the same code, so a
// sentinel matches every copy made by Wrap or WithMessage.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		Kind:       sentinel.Kind,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// KindOf returns the Kind of err, or KindInternal when err is not an *AppError.
func KindOf(err error) Kind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", Kind: KindValidation, StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", Kind: KindInternal, StatusCode: http.StatusInternalServerError}
)

// Reference errors surface foreign-key violations raised by the store.
var (
	ErrReferenceNotFound = &AppError{Code: "REFERENCE_NOT_FOUND", Message: "Referenced account or category not found", Kind: KindReference, StatusCode: http.StatusConflict}
)

// Account errors.
var (
	ErrAccountNotFound = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrAccountInUse    = &AppError{Code: "ACCOUNT_IN_USE", Message: "Account is referenced by existing transactions", Kind: KindConflict, StatusCode: http.StatusConflict}
)

// Category errors.
var (
	ErrCategoryNotFound   = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrDuplicateCategory  = &AppError{Code: "DUPLICATE_CATEGORY", Message: "A category with this name and type already exists", Kind: KindConflict, StatusCode: http.StatusConflict}
	ErrInvalidHierarchy   = &AppError{Code: "INVALID_HIERARCHY", Message: "Categories may only be nested one level deep", Kind: KindHierarchy, StatusCode: http.StatusBadRequest}
	ErrSelfParentCategory = &AppError{Code: "SELF_PARENT_CATEGORY", Message: "A category cannot be its own parent", Kind: KindHierarchy, StatusCode: http.StatusBadRequest}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", Kind: KindNotFound, StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Unsupported transaction type", Kind: KindValidation, StatusCode: http.StatusBadRequest}
	ErrSameAccountTransfer    = &AppError{Code: "SAME_ACCOUNT_TRANSFER", Message: "Cannot transfer to the same account", Kind: KindValidation, StatusCode: http.StatusBadRequest}
)
