package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenSessionRequest struct {
	RegisterID     string          `json:"register_id"     validate:"required,uuid"`
	OpeningBalance decimal.Decimal `json:"opening_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

type CloseSessionRequest struct {
	SessionID      string          `json:"session_id"      validate:"required,uuid"`
	ClosingBalance decimal.Decimal `json:"closing_balance" validate:"min=0"`
	Notes          *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// SessionTotalsResponse mirrors the accumulator output.
type SessionTotalsResponse struct {
	GrossSales       decimal.Decimal `json:"gross_sales"`
	TotalRefunds     decimal.Decimal `json:"total_refunds"`
	TotalDiscount    decimal.Decimal `json:"total_discount"`
	TotalTax         decimal.Decimal `json:"total_tax"`
	NetSales         decimal.Decimal `json:"net_sales"`
	TransactionCount int             `json:"transaction_count"`
}

type SessionResponse struct {
	ID                     string                `json:"id"`
	RegisterID             string                `json:"register_id"`
	Status                 string                `json:"status"`
	Currency               string                `json:"currency"`
	OpeningBalance         decimal.Decimal       `json:"opening_balance"`
	ClosingBalance         *decimal.Decimal      `json:"closing_balance"`
	ExpectedClosingBalance *decimal.Decimal      `json:"expected_closing_balance"`
	Variance               *decimal.Decimal      `json:"variance"`
	Totals                 SessionTotalsResponse `json:"totals"`
	OpenedBy               string                `json:"opened_by"`
	ClosedBy               *string               `json:"closed_by"`
	Notes                  *string               `json:"notes"`
	OpenedAt               string                `json:"opened_at"`
	ClosedAt               *string               `json:"closed_at"`
}

type SessionListResponse struct {
	Data  []SessionResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
