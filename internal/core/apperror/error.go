// Package apperror provides structured error handling following RFC 7807 Problem Details.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes following domain-driven design
const (
	// Infrastructure errors (5xx)
	CodeInternal    = "INTERNAL_ERROR"
	CodeDatabase    = "DATABASE_ERROR"
	CodeTimeout     = "TIMEOUT_ERROR"
	CodeTransaction = "TRANSACTION_ERROR"

	// Validation errors (400)
	CodeValidation   = "VALIDATION_ERROR"
	CodeInvalidInput = "INVALID_INPUT"

	// Business rule violations (422)
	CodeBusinessRule   = "BUSINESS_RULE_VIOLATION"
	CodePeriodFrozen   = "PERIOD_FROZEN"
	CodeUnsupportedMix = "UNSUPPORTED_TYPE_COMBINATION"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict  = "CONFLICT"
	CodeDuplicate = "DUPLICATE_ENTRY"
)

// AppError is the standard error type for the platform.
// It implements error interface and provides structured details for API responses.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, months, suggestions)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion attaches a remediation hint shown to the user.
func (e *AppError) WithSuggestion(suggestion string) *AppError {
	return e.WithDetail("suggestion", suggestion)
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions for common errors ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewFrozenPeriod is returned when a calculation targets an immutable, manually seeded month.
func NewFrozenPeriod(period string) *AppError {
	return &AppError{
		Code:       CodePeriodFrozen,
		Message:    fmt.Sprintf("Period %s is frozen: its data was loaded manually and cannot be recalculated", period),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"period": period},
	}
}

// NewUnsupportedCombination is returned when no formula exists for a subdivision/material type pair.
func NewUnsupportedCombination(subdivisionType, materialType string) *AppError {
	return &AppError{
		Code:       CodeUnsupportedMix,
		Message:    fmt.Sprintf("no calculation defined for %s subdivision and %s material", subdivisionType, materialType),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"subdivision_type": subdivisionType,
			"material_type":    materialType,
		},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewTransaction wraps a failed multi-row write. The write has been rolled back.
func NewTransaction(operation string, err error) *AppError {
	return &AppError{
		Code:       CodeTransaction,
		Message:    fmt.Sprintf("%s failed and was rolled back", operation),
		HTTPStatus: http.StatusInternalServerError,
		Details:    map[string]any{"operation": operation},
		Err:        err,
	}
}

// NewTimeout creates an error for requests that exceeded their time budget.
func NewTimeout(operation string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("%s did not complete in time", operation),
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// HasCode reports whether err carries the given AppError code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsFrozenPeriod checks if error is CodePeriodFrozen
func IsFrozenPeriod(err error) bool {
	return HasCode(err, CodePeriodFrozen)
}

// IsConflict checks if error is CodeConflict
func IsConflict(err error) bool {
	return HasCode(err, CodeConflict)
}
