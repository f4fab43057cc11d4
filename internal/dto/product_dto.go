package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

type ProductFilter struct {
	Barcode  string `form:"barcode"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"` // "false" = inactive, "all" = everything, default = active
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateProductRequest struct {
	Barcode     string          `json:"barcode"     validate:"required"`
	Name        string          `json:"name"        validate:"required,min=2"`
	Description *string         `json:"description"`
	Category    string          `json:"category"    validate:"required"`
	CostPrice   decimal.Decimal `json:"cost_price"  validate:"min=0"`
	SalePrice   decimal.Decimal `json:"sale_price"  validate:"required,gt=0"`
	TaxRate     decimal.Decimal `json:"tax_rate"    validate:"min=0"`
	StockOnHand int             `json:"stock_on_hand" validate:"min=0"`
	MinStock    int             `json:"min_stock"   validate:"min=0"`
	Unit        string          `json:"unit"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name"        validate:"omitempty,min=2"`
	Description *string          `json:"description"`
	Category    *string          `json:"category"`
	CostPrice   *decimal.Decimal `json:"cost_price"`
	SalePrice   *decimal.Decimal `json:"sale_price"`
	TaxRate     *decimal.Decimal `json:"tax_rate"`
	MinStock    *int             `json:"min_stock"`
}

type AdjustStockRequest struct {
	Delta int    `json:"delta" validate:"required"`
	Notes string `json:"notes" validate:"required,min=3"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	ID          string          `json:"id"`
	Barcode     string          `json:"barcode"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Category    string          `json:"category"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	StockOnHand int             `json:"stock_on_hand"`
	MinStock    int             `json:"min_stock"`
	Unit        string          `json:"unit"`
	IsActive    bool            `json:"is_active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// PriceLookupResponse is the cached barcode price-check payload.
type PriceLookupResponse struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Currency  string          `json:"currency"`
}

type StockAlertResponse struct {
	ProductID   string `json:"product_id"`
	Name        string `json:"name"`
	StockOnHand int    `json:"stock_on_hand"`
	MinStock    int    `json:"min_stock"`
}

type StockMovementResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"product_id"`
	VariantID   *string `json:"variant_id,omitempty"`
	Reason      string  `json:"reason"`
	Quantity    int     `json:"quantity"`
	StockBefore int     `json:"stock_before"`
	StockAfter  int     `json:"stock_after"`
	Reference   *string `json:"reference"`
	Notes       *string `json:"notes"`
	CreatedAt   string  `json:"created_at"`
}
