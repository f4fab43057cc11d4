package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is a sellable catalog entry. StockOnHand is mutated exclusively
// through the inventory ledger so every change leaves a StockMovement row.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Barcode     string    `gorm:"uniqueIndex;not null"`
	Name        string    `gorm:"index;not null"`
	Description *string
	Category    string          `gorm:"not null"`
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// TaxRate is a fraction (0.21 = 21%) applied to the taxable base of a line.
	TaxRate     decimal.Decimal `gorm:"type:decimal(5,4);not null;default:0"`
	StockOnHand int             `gorm:"not null;default:0"`
	MinStock    int             `gorm:"not null;default:5"`
	Unit        string          `gorm:"not null;default:'unit'"`
	IsActive    bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Variants []ProductVariant `gorm:"foreignKey:ProductID"`
}

// ProductVariant is an optional size/flavor refinement of a product with its
// own stock counter. A transaction line may target the base product or one
// specific variant.
type ProductVariant struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"not null"`
	// PriceDelta is added to the product SalePrice when this variant is sold.
	PriceDelta  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	StockOnHand int             `gorm:"not null;default:0"`
	IsActive    bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
