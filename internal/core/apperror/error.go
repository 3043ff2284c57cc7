// Package apperror provides structured error handling for the service.
// All business errors must use AppError for consistent API responses.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for callers. Every AppError has exactly one kind.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindBusinessRule        Kind = "business_rule"
	KindConcurrencyConflict Kind = "concurrency_conflict"
	KindUnauthorized        Kind = "unauthorized"
	KindForbidden           Kind = "forbidden"
	KindRateLimited         Kind = "rate_limited"
	KindInternal            Kind = "internal"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"

	// Validation errors (400)
	CodeValidation = "VALIDATION_ERROR"

	// Business rule violations (422)
	CodeBusinessRule      = "BUSINESS_RULE_VIOLATION"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeInvalidStatus     = "INVALID_STATUS"
	CodeDuplicate         = "DUPLICATE_ENTRY"

	// Optimistic locking (409)
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Idempotency (409)
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"

	// Throttling (429)
	CodeRateLimited = "RATE_LIMITED"
)

// AppError is the standard error type for the service.
type AppError struct {
	// Kind is the taxonomy bucket (not exposed in JSON, derived from Code family)
	Kind Kind `json:"-"`

	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, quantities, etc.)
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

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400).
func NewValidation(message string) *AppError {
	return &AppError{
		Kind:       KindValidation,
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewFieldValidation creates a validation error bound to an input field.
func NewFieldValidation(field, message string) *AppError {
	return NewValidation(fmt.Sprintf("%s: %s", field, message)).WithDetail("field", field)
}

// NewNotFound creates a not found error (404).
// Rows outside the caller's branch are reported the same way.
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Kind:       KindNotFound,
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": fmt.Sprint(id)},
	}
}

// NewBusinessRule creates a business rule violation error (422).
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Kind:       KindBusinessRule,
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvalidStatus reports a forbidden state-machine transition.
func NewInvalidStatus(entity, status, operation string) *AppError {
	return NewBusinessRule(CodeInvalidStatus,
		fmt.Sprintf("%s in status %s cannot be %s", entity, status, operation)).
		WithDetail("status", status)
}

// NewInsufficientStock creates a stock shortage error.
// Quantities are passed pre-formatted so no float conversion leaks into the response.
func NewInsufficientStock(itemID string, requested, available string) *AppError {
	return &AppError{
		Kind:       KindBusinessRule,
		Code:       CodeInsufficientStock,
		Message:    "Insufficient stock",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: map[string]any{
			"item_id":   itemID,
			"requested": requested,
			"available": available,
		},
	}
}

// NewDuplicate creates a duplicate unique key error (422, business rule).
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Kind:       KindBusinessRule,
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// NewConcurrencyConflict creates an optimistic locking error (409).
func NewConcurrencyConflict(entity string, id any) *AppError {
	return &AppError{
		Kind:       KindConcurrencyConflict,
		Code:       CodeConcurrencyConflict,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": fmt.Sprint(id)},
	}
}

// NewInternal creates an internal server error (hides details from client).
func NewInternal(err error) *AppError {
	return &AppError{
		Kind:       KindInternal,
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401).
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Kind:       KindUnauthorized,
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403).
func NewForbidden(message string) *AppError {
	return &AppError{
		Kind:       KindForbidden,
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewRateLimited reports a client that exceeded its request budget (429).
func NewRateLimited() *AppError {
	return &AppError{
		Kind:       KindRateLimited,
		Code:       CodeRateLimited,
		Message:    "Too many requests. Please try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress.
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Kind:       KindBusinessRule,
		Code:       CodeIdempotency,
		Message:    "Operation already in progress or completed",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request.
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Kind:       KindBusinessRule,
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// --- Helper functions ---

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Non-AppErrors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is of the not-found kind.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation checks if error is of the validation kind.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsBusinessRule checks if error is of the business-rule kind.
func IsBusinessRule(err error) bool { return KindOf(err) == KindBusinessRule }

// IsConcurrencyConflict checks if error is an optimistic locking failure.
func IsConcurrencyConflict(err error) bool { return KindOf(err) == KindConcurrencyConflict }

// IsUnauthorized checks if error is of the unauthorized kind.
func IsUnauthorized(err error) bool { return KindOf(err) == KindUnauthorized }

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
