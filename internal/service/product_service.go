package service

import (
	"context"
	"encoding/json"
	"time"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// priceCacheTTL bounds how stale a cached barcode lookup can get after a
// price edit. Writes also invalidate eagerly.
const priceCacheTTL = 5 * time.Minute

const priceCachePrefix = "price:"

// ProductService defines the business logic contract for the catalog.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error)
	// PriceLookup is the scan-to-check path used on the floor; it is served
	// from Redis when warm.
	PriceLookup(ctx context.Context, barcode string) (*dto.PriceLookupResponse, error)
	List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type productService struct {
	repo     repository.ProductRepository
	rdb      *redis.Client
	currency string
}

func NewProductService(repo repository.ProductRepository, rdb *redis.Client, currency string) ProductService {
	return &productService{repo: repo, rdb: rdb, currency: currency}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	if existing, err := s.repo.FindByBarcode(ctx, req.Barcode); err == nil && existing != nil {
		return nil, apperror.InvalidInput("barcode already in use").
			WithDetail("barcode", req.Barcode).
			WithDetail("product_id", existing.ID.String())
	}

	p := &model.Product{
		Barcode:     req.Barcode,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		CostPrice:   req.CostPrice,
		SalePrice:   req.SalePrice,
		TaxRate:     req.TaxRate,
		StockOnHand: req.StockOnHand,
		MinStock:    req.MinStock,
		Unit:        req.Unit,
		IsActive:    true,
	}
	if p.Unit == "" {
		p.Unit = "unit"
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperror.Internal("creating product", err)
	}
	return productToResponse(p), nil
}

func (s *productService) Get(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("product", id.String()).WithCause(err)
	}
	return productToResponse(p), nil
}

func (s *productService) GetByBarcode(ctx context.Context, barcode string) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, apperror.NotFound("product", barcode).WithCause(err)
	}
	return productToResponse(p), nil
}

func (s *productService) PriceLookup(ctx context.Context, barcode string) (*dto.PriceLookupResponse, error) {
	key := priceCachePrefix + barcode

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var resp dto.PriceLookupResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	p, err := s.repo.FindByBarcode(ctx, barcode)
	if err != nil {
		return nil, apperror.NotFound("product", barcode).WithCause(err)
	}
	if !p.IsActive {
		return nil, apperror.NotFound("product", barcode)
	}

	resp := &dto.PriceLookupResponse{
		ProductID: p.ID.String(),
		Name:      p.Name,
		SalePrice: p.SalePrice,
		Currency:  s.currency,
	}

	if s.rdb != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.rdb.Set(ctx, key, data, priceCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Str("barcode", barcode).Msg("price cache write failed")
			}
		}
	}
	return resp, nil
}

func (s *productService) List(ctx context.Context, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("listing products", err)
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		items = append(items, *productToResponse(&products[i]))
	}
	return &dto.ProductListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("product", id.String()).WithCause(err)
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = req.Description
	}
	if req.Category != nil {
		p.Category = *req.Category
	}
	if req.CostPrice != nil {
		p.CostPrice = *req.CostPrice
	}
	if req.SalePrice != nil {
		if req.SalePrice.LessThanOrEqual(decimal.Zero) {
			return nil, apperror.InvalidInput("sale price must be positive")
		}
		p.SalePrice = *req.SalePrice
	}
	if req.TaxRate != nil {
		p.TaxRate = *req.TaxRate
	}
	if req.MinStock != nil {
		p.MinStock = *req.MinStock
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperror.Internal("updating product", err)
	}
	s.invalidatePrice(ctx, p.Barcode)
	return productToResponse(p), nil
}

func (s *productService) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.NotFound("product", id.String()).WithCause(err)
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return apperror.Internal("deactivating product", err)
	}
	s.invalidatePrice(ctx, p.Barcode)
	return nil
}

func (s *productService) Reactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return apperror.Internal("reactivating product", err)
	}
	return nil
}

func (s *productService) invalidatePrice(ctx context.Context, barcode string) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, priceCachePrefix+barcode).Err(); err != nil {
		log.Warn().Err(err).Str("barcode", barcode).Msg("price cache invalidation failed")
	}
}

func productToResponse(p *model.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:          p.ID.String(),
		Barcode:     p.Barcode,
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		CostPrice:   p.CostPrice,
		SalePrice:   p.SalePrice,
		TaxRate:     p.TaxRate,
		StockOnHand: p.StockOnHand,
		MinStock:    p.MinStock,
		Unit:        p.Unit,
		IsActive:    p.IsActive,
	}
}
