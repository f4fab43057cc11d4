package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Transaction types and statuses.
// Status machine: completed → refunded (refund path) or completed → voided
// (same-session correction); both are terminal.
const (
	TxSale   = "sale"
	TxRefund = "refund"

	TxCompleted = "completed"
	TxVoided    = "voided"
	TxRefunded  = "refunded"
)

// Transaction is a recorded sale or refund with line items and computed
// totals. Line items are immutable after creation; Status is the only field
// that changes afterwards (plus the originating sale's flip on refund).
// For refunds Subtotal/Total are non-positive and OriginalTransactionID links
// the sale being reversed.
type Transaction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Number     string    `gorm:"uniqueIndex;not null"`
	SessionID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RegisterID uuid.UUID `gorm:"type:uuid;not null;index"` // denormalized for reporting
	Type       string    `gorm:"type:varchar(10);not null"`
	Status     string    `gorm:"type:varchar(10);not null;default:'completed'"`

	Subtotal      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TotalDiscount decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	AmountPaid    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Change        decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`

	OriginalTransactionID *uuid.UUID `gorm:"type:uuid;index"`
	RefundReason          *string

	CreatedBy uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Items    []TransactionItem    `gorm:"foreignKey:TransactionID"`
	Payments []TransactionPayment `gorm:"foreignKey:TransactionID"`
}

// TransactionItem is one priced line. Quantity is negative for refund lines,
// mirroring the sign of the line total.
type TransactionItem struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ProductID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID     *uuid.UUID `gorm:"type:uuid"`
	// ProductName is denormalized at sale time so receipts and reports survive
	// later catalog edits.
	ProductName string          `gorm:"not null"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Tax         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TransactionPayment is one payment tender against a transaction.
type TransactionPayment struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Method        string          `gorm:"type:varchar(20);not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
