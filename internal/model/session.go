package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Session statuses. A session is append-only financial record: it is never
// deleted, only transitioned open → closed.
const (
	SessionOpen   = "open"
	SessionClosed = "closed"
)

// Session is one open/close cycle (shift) of activity on a register.
// Invariant: at most one session with Status = open per register — guarded by
// a read-check at open time plus a partial unique index at the storage layer
// (idx_sessions_one_open: ON sessions(register_id) WHERE status = 'open').
type Session struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	RegisterID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status     string    `gorm:"type:varchar(10);not null;default:'open'"`

	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// ClosingBalance is the counted amount declared at close.
	ClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// ExpectedClosingBalance = OpeningBalance + NetSales, stamped at close.
	ExpectedClosingBalance *decimal.Decimal `gorm:"type:decimal(12,2)"`
	// Variance = ClosingBalance − ExpectedClosingBalance.
	Variance *decimal.Decimal `gorm:"type:decimal(12,2)"`

	// Running totals — folded incrementally per transaction, recomputed from
	// scratch at close (the recompute is authoritative).
	GrossSales       decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalRefunds     decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalDiscount    decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TotalTax         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	NetSales         decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	TransactionCount int             `gorm:"not null;default:0"`

	// Currency is copied from the register at open time.
	Currency string `gorm:"type:varchar(3);not null"`

	OpenedBy uuid.UUID  `gorm:"type:uuid;not null"`
	ClosedBy *uuid.UUID `gorm:"type:uuid"`
	Notes    *string

	OpenedAt time.Time
	ClosedAt *time.Time

	Register     *Register     `gorm:"foreignKey:RegisterID"`
	Transactions []Transaction `gorm:"foreignKey:SessionID"`
}

// IsOpen reports whether the session still accepts transactions.
func (s *Session) IsOpen() bool { return s.Status == SessionOpen }
