package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateRegisterRequest struct {
	Name           string          `json:"name"            validate:"required,min=2"`
	Location       *string         `json:"location"`
	Description    *string         `json:"description"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Currency       string          `json:"currency"        validate:"omitempty,len=3"`
}

// UpdateRegisterRequest is an explicit allow-list: unknown fields in the body
// are ignored by binding and only these may change.
type UpdateRegisterRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=2"`
	Location    *string `json:"location"`
	Description *string `json:"description"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegisterResponse struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Location       *string         `json:"location"`
	Description    *string         `json:"description"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Currency       string          `json:"currency"`
	IsActive       bool            `json:"is_active"`
	LastOpenedBy   *string         `json:"last_opened_by"`
	LastOpenedAt   *string         `json:"last_opened_at"`
	LastClosedBy   *string         `json:"last_closed_by"`
	LastClosedAt   *string         `json:"last_closed_at"`
	// OpenSessionID is set when the register currently has an open session.
	OpenSessionID *string `json:"open_session_id,omitempty"`
}
