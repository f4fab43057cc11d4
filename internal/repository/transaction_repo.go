package repository

import (
	"context"
	"fmt"

	"tillpos/internal/dto"
	"tillpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TransactionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, t *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	// NextNumber draws from a PostgreSQL sequence so transaction numbers are
	// unique and monotonic even under concurrent sales.
	NextNumber(ctx context.Context, tx *gorm.DB) (string, error)
	List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error)
	// ListForReport returns every non-voided transaction in the period,
	// unpaginated, for report aggregation.
	ListForReport(ctx context.Context, registerID *uuid.UUID, dateFrom, dateTo string) ([]model.Transaction, error)
	DB() *gorm.DB
}

type transactionRepo struct{ db *gorm.DB }

func NewTransactionRepository(db *gorm.DB) TransactionRepository { return &transactionRepo{db: db} }

func (r *transactionRepo) DB() *gorm.DB { return r.db }

func (r *transactionRepo) Create(ctx context.Context, tx *gorm.DB, t *model.Transaction) error {
	return tx.WithContext(ctx).Create(t).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).Preload("Items").Preload("Payments").First(&t, id).Error
	return &t, err
}

func (r *transactionRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Preload("Items").Preload("Payments").
		Order("created_at ASC").
		Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.Transaction{}).Where("id = ?", id).Update("status", status).Error
}

func (r *transactionRepo) NextNumber(ctx context.Context, tx *gorm.DB) (string, error) {
	var num int64
	if err := tx.WithContext(ctx).Raw("SELECT nextval('transactions_number_seq')").Scan(&num).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("POS-%06d", num), nil
}

func (r *transactionRepo) ListForReport(ctx context.Context, registerID *uuid.UUID, dateFrom, dateTo string) ([]model.Transaction, error) {
	q := r.db.WithContext(ctx).Where("status <> ?", model.TxVoided)
	if registerID != nil {
		q = q.Where("register_id = ?", *registerID)
	}
	if dateFrom != "" {
		q = q.Where("DATE(created_at) >= ?", dateFrom)
	}
	if dateTo != "" {
		q = q.Where("DATE(created_at) <= ?", dateTo)
	}
	var txs []model.Transaction
	err := q.Preload("Items").Preload("Payments").Order("created_at ASC").Find(&txs).Error
	return txs, err
}

func (r *transactionRepo) List(ctx context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error) {
	var txs []model.Transaction
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Transaction{})

	if filter.SessionID != "" {
		q = q.Where("session_id = ?", filter.SessionID)
	}
	if filter.RegisterID != "" {
		q = q.Where("register_id = ?", filter.RegisterID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" && filter.Status != "all" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.DateFrom != "" {
		q = q.Where("DATE(created_at) >= ?", filter.DateFrom)
	}
	if filter.DateTo != "" {
		q = q.Where("DATE(created_at) <= ?", filter.DateTo)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	err := q.Preload("Items").Preload("Payments").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&txs).Error

	return txs, total, err
}
