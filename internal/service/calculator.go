package service

import (
	"context"
	"fmt"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricedLine is one validated, fully priced cart line.
type PricedLine struct {
	ProductID   uuid.UUID
	VariantID   *uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
	Tax         decimal.Decimal
	Total       decimal.Decimal
}

// PricedCart is the calculator output: per-line pricing plus aggregates.
type PricedCart struct {
	Lines         []PricedLine
	Subtotal      decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
	Total         decimal.Decimal
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
}

// Calculator validates and prices transaction requests. It is pure over the
// request plus catalog lookups — no side effects, no persistence.
type Calculator struct {
	products repository.ProductRepository
}

func NewCalculator(products repository.ProductRepository) *Calculator {
	return &Calculator{products: products}
}

// Price resolves every line against the catalog and computes totals.
// Line total = unit price × quantity − discount + tax, where tax applies the
// product's rate to the discounted base. Rejects non-positive quantities,
// unknown or inactive products, and insufficient payment.
func (c *Calculator) Price(ctx context.Context, items []dto.TransactionItemRequest, paymentMethod string, payments []dto.PaymentRequest) (*PricedCart, error) {
	cart := &PricedCart{
		Subtotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalTax:      decimal.Zero,
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, apperror.InvalidInput("quantity must be positive").
				WithDetail("product_id", item.ProductID).
				WithDetail("quantity", item.Quantity)
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apperror.InvalidInput("invalid product id").WithDetail("product_id", item.ProductID)
		}

		p, err := c.products.FindByID(ctx, pid)
		if err != nil {
			return nil, apperror.InvalidInput(fmt.Sprintf("unknown product %s", item.ProductID)).
				WithDetail("product_id", item.ProductID)
		}
		if !p.IsActive {
			return nil, apperror.InvalidInput(fmt.Sprintf("product %s is inactive and cannot be sold", p.Name)).
				WithDetail("product_id", p.ID.String())
		}

		unitPrice := p.SalePrice
		var variantID *uuid.UUID
		if item.VariantID != nil {
			vid, err := uuid.Parse(*item.VariantID)
			if err != nil {
				return nil, apperror.InvalidInput("invalid variant id").WithDetail("variant_id", *item.VariantID)
			}
			v, err := c.products.FindVariant(ctx, vid)
			if err != nil || v.ProductID != p.ID {
				return nil, apperror.InvalidInput(fmt.Sprintf("unknown variant for product %s", p.Name)).
					WithDetail("variant_id", *item.VariantID)
			}
			if !v.IsActive {
				return nil, apperror.InvalidInput(fmt.Sprintf("variant %s of %s is inactive", v.Name, p.Name))
			}
			unitPrice = unitPrice.Add(v.PriceDelta)
			variantID = &vid
		}

		qty := decimal.NewFromInt(int64(item.Quantity))
		base := unitPrice.Mul(qty).Sub(item.Discount)
		if base.IsNegative() {
			return nil, apperror.InvalidInput(fmt.Sprintf("discount exceeds line amount for %s", p.Name)).
				WithDetail("product_id", p.ID.String())
		}
		tax := base.Mul(p.TaxRate).Round(2)
		lineTotal := base.Add(tax)

		cart.Lines = append(cart.Lines, PricedLine{
			ProductID:   p.ID,
			VariantID:   variantID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unitPrice,
			Discount:    item.Discount,
			Tax:         tax,
			Total:       lineTotal,
		})

		cart.Subtotal = cart.Subtotal.Add(unitPrice.Mul(qty))
		cart.TotalDiscount = cart.TotalDiscount.Add(item.Discount)
		cart.TotalTax = cart.TotalTax.Add(tax)
	}

	// total = subtotal − discount + tax
	cart.Total = cart.Subtotal.Sub(cart.TotalDiscount).Add(cart.TotalTax)

	for _, pay := range payments {
		if pay.Amount.IsNegative() {
			return nil, apperror.InvalidInput("payment amount cannot be negative")
		}
		cart.AmountPaid = cart.AmountPaid.Add(pay.Amount)
	}
	if cart.AmountPaid.LessThan(cart.Total) {
		return nil, apperror.InvalidInput("total payments are insufficient").
			WithDetail("total", cart.Total.String()).
			WithDetail("amount_paid", cart.AmountPaid.String())
	}

	// Cash gets change back; card-like tenders are charged exactly.
	if paymentMethod == "cash" {
		cart.Change = cart.AmountPaid.Sub(cart.Total)
	} else {
		cart.Change = decimal.Zero
	}

	return cart, nil
}
