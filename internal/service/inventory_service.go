package service

import (
	"context"
	"fmt"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockMeta is the audit trail attached to every ledger mutation.
type StockMeta struct {
	Reason    string
	Reference string
	Notes     *string
}

// Availability is the advisory pre-check result. The conditional UPDATE in
// DecreaseStock is the authoritative guard; this exists so a sale can abort
// before persisting anything.
type Availability struct {
	Available         bool
	AvailableQuantity int
	ProductName       string
}

// InventoryLedger is the stock collaborator of the transaction orchestrator.
// Every mutation appends an immutable StockMovement row.
type InventoryLedger interface {
	CheckAvailability(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (*Availability, error)
	DecreaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int, meta StockMeta) error
	IncreaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int, meta StockMeta) error

	// ManualAdjust applies a supervisor stock correction (positive or negative
	// delta) with a mandatory note.
	ManualAdjust(ctx context.Context, productID uuid.UUID, delta int, notes string) error
	StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error)
	RecentMovements(ctx context.Context, limit int) ([]dto.StockMovementResponse, error)
}

type inventoryService struct {
	products  repository.ProductRepository
	movements repository.StockMovementRepository
}

func NewInventoryLedger(products repository.ProductRepository, movements repository.StockMovementRepository) InventoryLedger {
	return &inventoryService{products: products, movements: movements}
}

func (s *inventoryService) CheckAvailability(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) (*Availability, error) {
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, apperror.NotFound("product", productID.String()).WithCause(err)
	}

	onHand := p.StockOnHand
	if variantID != nil {
		v, err := s.products.FindVariant(ctx, *variantID)
		if err != nil {
			return nil, apperror.NotFound("variant", variantID.String()).WithCause(err)
		}
		onHand = v.StockOnHand
	}

	return &Availability{
		Available:         onHand >= qty,
		AvailableQuantity: onHand,
		ProductName:       p.Name,
	}, nil
}

// DecreaseStock decrements stock and records the movement in one transaction.
// The conditional UPDATE (stock_on_hand >= qty) fails with zero rows affected
// when a concurrent sale drained the stock first — that outcome surfaces as
// InsufficientStock rather than letting stock go negative.
func (s *inventoryService) DecreaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int, meta StockMeta) error {
	if qty <= 0 {
		return apperror.InvalidInput("quantity must be positive")
	}
	return runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		p, err := s.products.FindByID(ctx, productID)
		if err != nil {
			return apperror.NotFound("product", productID.String()).WithCause(err)
		}

		before := p.StockOnHand
		var rows int64
		if variantID != nil {
			v, err := s.products.FindVariant(ctx, *variantID)
			if err != nil {
				return apperror.NotFound("variant", variantID.String()).WithCause(err)
			}
			before = v.StockOnHand
			rows, err = s.products.DecrementVariantStockTx(tx, *variantID, qty)
			if err != nil {
				return err
			}
		} else {
			rows, err = s.products.DecrementStockTx(tx, productID, qty)
			if err != nil {
				return err
			}
		}
		if rows == 0 {
			return apperror.InsufficientStock(p.Name, qty, before)
		}

		return s.recordMovement(tx, productID, variantID, -qty, before, meta)
	})
}

func (s *inventoryService) IncreaseStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int, meta StockMeta) error {
	if qty <= 0 {
		return apperror.InvalidInput("quantity must be positive")
	}
	return runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		before, err := s.stockBefore(ctx, productID, variantID)
		if err != nil {
			return err
		}
		if variantID != nil {
			if err := s.products.IncrementVariantStockTx(tx, *variantID, qty); err != nil {
				return err
			}
		} else {
			if err := s.products.IncrementStockTx(tx, productID, qty); err != nil {
				return err
			}
		}
		return s.recordMovement(tx, productID, variantID, qty, before, meta)
	})
}

func (s *inventoryService) ManualAdjust(ctx context.Context, productID uuid.UUID, delta int, notes string) error {
	meta := StockMeta{Reason: model.MoveManualAdjustment, Notes: &notes}
	if delta >= 0 {
		if delta == 0 {
			return apperror.InvalidInput("delta cannot be zero")
		}
		return s.IncreaseStock(ctx, productID, nil, delta, meta)
	}
	return s.DecreaseStock(ctx, productID, nil, -delta, meta)
}

func (s *inventoryService) StockAlerts(ctx context.Context) ([]dto.StockAlertResponse, error) {
	products, err := s.products.ListBelowMinStock(ctx)
	if err != nil {
		return nil, err
	}
	alerts := make([]dto.StockAlertResponse, 0, len(products))
	for _, p := range products {
		alerts = append(alerts, dto.StockAlertResponse{
			ProductID:   p.ID.String(),
			Name:        p.Name,
			StockOnHand: p.StockOnHand,
			MinStock:    p.MinStock,
		})
	}
	return alerts, nil
}

func (s *inventoryService) RecentMovements(ctx context.Context, limit int) ([]dto.StockMovementResponse, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	movs, err := s.movements.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.StockMovementResponse, 0, len(movs))
	for _, m := range movs {
		item := dto.StockMovementResponse{
			ID:          m.ID.String(),
			ProductID:   m.ProductID.String(),
			Reason:      m.Reason,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reference:   m.Reference,
			Notes:       m.Notes,
			CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
		if m.VariantID != nil {
			v := m.VariantID.String()
			item.VariantID = &v
		}
		resp = append(resp, item)
	}
	return resp, nil
}

func (s *inventoryService) stockBefore(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (int, error) {
	if variantID != nil {
		v, err := s.products.FindVariant(ctx, *variantID)
		if err != nil {
			return 0, apperror.NotFound("variant", variantID.String()).WithCause(err)
		}
		return v.StockOnHand, nil
	}
	p, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return 0, apperror.NotFound("product", productID.String()).WithCause(err)
	}
	return p.StockOnHand, nil
}

func (s *inventoryService) recordMovement(tx *gorm.DB, productID uuid.UUID, variantID *uuid.UUID, delta, before int, meta StockMeta) error {
	mov := &model.StockMovement{
		ProductID:   productID,
		VariantID:   variantID,
		Reason:      meta.Reason,
		Quantity:    delta,
		StockBefore: before,
		StockAfter:  before + delta,
		Notes:       meta.Notes,
	}
	if meta.Reference != "" {
		ref := meta.Reference
		mov.Reference = &ref
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return fmt.Errorf("recording stock movement: %w", err)
	}
	return nil
}
