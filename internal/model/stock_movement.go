package model

import (
	"time"

	"github.com/google/uuid"
)

// Stock movement reasons recorded by the inventory ledger.
const (
	MovePosSale          = "pos_sale"
	MovePosRefund        = "pos_refund"
	MovePosVoid          = "pos_void"
	MoveManualAdjustment = "manual_adjustment"
)

// StockMovement records every stock change on a product or variant.
// Movements are NEVER modified or deleted — reversals create inverse entries.
type StockMovement struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID uuid.UUID  `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID `gorm:"type:uuid;index"`
	Reason    string     `gorm:"type:varchar(30);not null"`
	// Quantity: positive = inbound, negative = outbound.
	Quantity    int `gorm:"not null"`
	StockBefore int `gorm:"not null"`
	StockAfter  int `gorm:"not null"`
	// Reference points back at the originating transaction number or manual
	// operation for the audit trail.
	Reference *string
	Notes     *string
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}

// TableName overrides GORM's default pluralization.
func (StockMovement) TableName() string { return "stock_movements" }
