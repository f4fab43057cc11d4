package model

import (
	"time"

	"github.com/google/uuid"
)

// Receipt lifecycle. "error" receipts with retries left are re-attempted by
// the retry cron; the rest are terminal.
const (
	ReceiptPending  = "pending"
	ReceiptRendered = "rendered"
	ReceiptSent     = "sent"
	ReceiptError    = "error"
)

// Receipt tracks the rendered PDF (and optional email delivery) for a
// transaction.
type Receipt struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TransactionID uuid.UUID `gorm:"type:uuid;index;not null"`
	CustomerEmail *string
	// PDFPath is relative to RECEIPT_STORAGE_PATH.
	PDFPath *string `gorm:"column:pdf_path"`
	Status  string  `gorm:"type:varchar(20);not null;default:'pending'"`

	// Retry fields — used by the retry cron to re-attempt failed deliveries.
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"column:next_retry_at"`
	LastError   *string

	CreatedAt time.Time
	UpdatedAt time.Time
}
