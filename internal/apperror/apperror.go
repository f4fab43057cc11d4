// Package apperror defines the business error taxonomy services speak in.
// Handlers never branch on error strings; they map Kind to an HTTP status
// through the apierror package.
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies a business error. It is the only thing callers should
// branch on.
type Kind string

const (
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindInvalidState      Kind = "invalid_state"
	KindInsufficientStock Kind = "insufficient_stock"
	KindForbidden         Kind = "forbidden"
	// KindInconsistency marks a partial failure that left persisted state
	// needing manual reconciliation. It is never silently retried.
	KindInconsistency Kind = "inconsistency"
	KindInternal      Kind = "internal"
)

// Error is the single error type services return. Details carries structured
// context destined for the API envelope; cause keeps the wrapped low-level
// error out of client responses while preserving it for logs.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// WithDetail attaches one structured detail and returns the error for
// chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause records the underlying error without exposing it in Message.
func (e *Error) WithCause(err error) *Error {
	e.cause = err
	return e
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func NotFound(entity, id string) *Error {
	return newError(KindNotFound, fmt.Sprintf("%s not found", entity)).
		WithDetail("entity", entity).
		WithDetail("id", id)
}

func InvalidInput(msg string) *Error { return newError(KindInvalidInput, msg) }

func InvalidState(msg string) *Error { return newError(KindInvalidState, msg) }

func Forbidden(msg string) *Error { return newError(KindForbidden, msg) }

func Inconsistency(msg string) *Error { return newError(KindInconsistency, msg) }

func Internal(msg string, err error) *Error {
	return newError(KindInternal, msg).WithCause(err)
}

// InsufficientStock names the product and the shortfall so the register UI
// can tell the cashier exactly what cannot be sold.
func InsufficientStock(productName string, requested, available int) *Error {
	return newError(KindInsufficientStock,
		fmt.Sprintf("insufficient stock for %s: requested %d, available %d", productName, requested, available)).
		WithDetail("product_name", productName).
		WithDetail("requested", requested).
		WithDetail("available", available)
}

// KindOf returns the Kind of err when it is an *Error, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
