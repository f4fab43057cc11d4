// Package apierror provides the standardized error response envelope for the
// API. All 4xx/5xx responses go through this package so that internal details
// (stack traces, DB errors) are never leaked to clients.
package apierror

import (
	"errors"
	"net/http"

	"tillpos/internal/apperror"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail  string         `json:"detail"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Fields: fields}
}

// FromError converts a business error into an envelope plus the HTTP status
// it should be served with. Unknown errors collapse to a generic 500.
func FromError(err error) (int, *APIError) {
	var e *apperror.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError, &APIError{Detail: "Internal server error"}
	}

	status := http.StatusInternalServerError
	switch e.Kind {
	case apperror.KindNotFound:
		status = http.StatusNotFound
	case apperror.KindInvalidState, apperror.KindInsufficientStock:
		status = http.StatusConflict
	case apperror.KindInvalidInput:
		status = http.StatusBadRequest
	case apperror.KindForbidden:
		status = http.StatusForbidden
	}

	return status, &APIError{Detail: e.Message, Code: string(e.Kind), Details: e.Details}
}
