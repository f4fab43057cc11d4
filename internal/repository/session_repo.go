package repository

import (
	"context"

	"tillpos/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(ctx context.Context, s *model.Session) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error)
	// FindOpenByRegister returns gorm.ErrRecordNotFound when the register has
	// no open session — callers treat that as "free to open".
	FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.Session, error)
	Update(ctx context.Context, s *model.Session) error
	UpdateTx(tx *gorm.DB, s *model.Session) error
	History(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.Session, int64, error)
	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type sessionRepo struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &sessionRepo{db: db} }

func (r *sessionRepo) DB() *gorm.DB { return r.db }

func (r *sessionRepo) Create(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *sessionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).First(&s, id).Error
	return &s, err
}

func (r *sessionRepo) FindOpenByRegister(ctx context.Context, registerID uuid.UUID) (*model.Session, error) {
	var s model.Session
	err := r.db.WithContext(ctx).
		Where("register_id = ? AND status = ?", registerID, model.SessionOpen).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepo) Update(ctx context.Context, s *model.Session) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *sessionRepo) UpdateTx(tx *gorm.DB, s *model.Session) error {
	return tx.Save(s).Error
}

func (r *sessionRepo) History(ctx context.Context, registerID *uuid.UUID, page, limit int) ([]model.Session, int64, error) {
	var sessions []model.Session
	var total int64

	q := r.db.WithContext(ctx).Model(&model.Session{}).Where("status = ?", model.SessionClosed)
	if registerID != nil {
		q = q.Where("register_id = ?", *registerID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	err := q.Order("closed_at DESC").Offset(offset).Limit(limit).Find(&sessions).Error
	return sessions, total, err
}
