package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// TransactionFilter is bound from the query string of GET /v1/transactions.
type TransactionFilter struct {
	SessionID  string `form:"session_id"  validate:"omitempty,uuid"`
	RegisterID string `form:"register_id" validate:"omitempty,uuid"`
	DateFrom   string `form:"date_from"` // YYYY-MM-DD
	DateTo     string `form:"date_to"`   // YYYY-MM-DD
	Type       string `form:"type"       validate:"omitempty,oneof=sale refund"`
	Status     string `form:"status"     validate:"omitempty,oneof=completed voided refunded all"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type TransactionItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	VariantID *string         `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int             `json:"quantity"   validate:"required"`
	Discount  decimal.Decimal `json:"discount"   validate:"min=0"`
}

type PaymentRequest struct {
	Method string          `json:"method" validate:"required,oneof=cash debit credit transfer"`
	Amount decimal.Decimal `json:"amount" validate:"required"`
}

type CreateTransactionRequest struct {
	SessionID     string                   `json:"session_id"     validate:"required,uuid"`
	Items         []TransactionItemRequest `json:"items"          validate:"required,min=1,dive"`
	PaymentMethod string                   `json:"payment_method" validate:"required,oneof=cash debit credit transfer"`
	Payments      []PaymentRequest         `json:"payments"       validate:"required,min=1,dive"`
	// CustomerEmail: optional — when present, the receipt worker mails the PDF.
	CustomerEmail *string `json:"customer_email" validate:"omitempty,email"`
}

// RefundItemRequest names a returned quantity per original line. When the
// refund request omits items entirely, full original quantities are restored.
type RefundItemRequest struct {
	ProductID string  `json:"product_id" validate:"required,uuid"`
	VariantID *string `json:"variant_id" validate:"omitempty,uuid"`
	Quantity  int     `json:"quantity"   validate:"required,min=1"`
}

type RefundTransactionRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
	// Amount defaults to the original transaction total when nil; it is clamped
	// to that total either way.
	Amount *decimal.Decimal    `json:"amount"`
	Items  []RefundItemRequest `json:"items" validate:"omitempty,dive"`
}

type VoidTransactionRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type TransactionItemResponse struct {
	ProductID   string          `json:"product_id"`
	VariantID   *string         `json:"variant_id,omitempty"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Discount    decimal.Decimal `json:"discount"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

type TransactionResponse struct {
	ID                    string                    `json:"id"`
	Number                string                    `json:"number"`
	SessionID             string                    `json:"session_id"`
	RegisterID            string                    `json:"register_id"`
	Type                  string                    `json:"type"`
	Status                string                    `json:"status"`
	Items                 []TransactionItemResponse `json:"items"`
	Subtotal              decimal.Decimal           `json:"subtotal"`
	TotalDiscount         decimal.Decimal           `json:"total_discount"`
	TotalTax              decimal.Decimal           `json:"total_tax"`
	Total                 decimal.Decimal           `json:"total"`
	PaymentMethod         string                    `json:"payment_method"`
	Payments              []PaymentRequest          `json:"payments"`
	AmountPaid            decimal.Decimal           `json:"amount_paid"`
	Change                decimal.Decimal           `json:"change"`
	OriginalTransactionID *string                   `json:"original_transaction_id,omitempty"`
	RefundReason          *string                   `json:"refund_reason,omitempty"`
	CreatedAt             string                    `json:"created_at"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
