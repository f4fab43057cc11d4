package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryKind(t *testing.T) {
	cases := []struct {
		err  *Error
		kind Kind
	}{
		{NotFound("session", "abc"), KindNotFound},
		{InvalidInput("bad"), KindInvalidInput},
		{InvalidState("closed"), KindInvalidState},
		{Forbidden("no"), KindForbidden},
		{Inconsistency("drift"), KindInconsistency},
		{Internal("boom", errors.New("db")), KindInternal},
		{InsufficientStock("Soda", 5, 2), KindInsufficientStock},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.kind, tc.err.Kind)
		assert.True(t, Is(tc.err, tc.kind))
	}
}

func TestWithDetailChaining(t *testing.T) {
	err := InvalidState("session is not open").
		WithDetail("session_id", "s1").
		WithDetail("status", "closed")

	assert.Equal(t, "s1", err.Details["session_id"])
	assert.Equal(t, "closed", err.Details["status"])
}

func TestWithCauseUnwraps(t *testing.T) {
	cause := errors.New("record not found")
	err := NotFound("register", "r1").WithCause(cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "record not found")
}

func TestInsufficientStockMessage(t *testing.T) {
	err := InsufficientStock("Soda 500ml", 5, 2)

	assert.Contains(t, err.Message, "Soda 500ml")
	assert.Contains(t, err.Message, "requested 5")
	assert.Contains(t, err.Message, "available 2")
	assert.Equal(t, 5, err.Details["requested"])
	assert.Equal(t, 2, err.Details["available"])
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindForbidden, KindOf(Forbidden("no")))
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))

	// Survives wrapping.
	wrapped := fmt.Errorf("handling request: %w", InvalidInput("bad"))
	assert.Equal(t, KindInvalidInput, KindOf(wrapped))
	assert.True(t, Is(wrapped, KindInvalidInput))
}

func TestErrorString(t *testing.T) {
	err := InvalidState("session is not open")
	require.Equal(t, "invalid_state: session is not open", err.Error())
}
