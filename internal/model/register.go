package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Register is a physical point-of-sale till with its own cash balance.
// CurrentBalance is mutated only on session open/close — never by individual
// transactions, which settle against the session instead.
type Register struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Name        string    `gorm:"not null;index"`
	Location    *string
	Description *string
	OpeningBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	CurrentBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Currency       string          `gorm:"type:varchar(3);not null;default:'USD'"`
	IsActive       bool            `gorm:"not null;default:true"`

	// Audit stamps — set exclusively by session open/close
	LastOpenedBy *uuid.UUID `gorm:"type:uuid"`
	LastOpenedAt *time.Time
	LastClosedBy *uuid.UUID `gorm:"type:uuid"`
	LastClosedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
