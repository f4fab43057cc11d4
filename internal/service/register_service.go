package service

import (
	"context"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
)

type RegisterService interface {
	Create(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.RegisterResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type registerService struct {
	repo            repository.RegisterRepository
	sessions        repository.SessionRepository
	defaultCurrency string
}

func NewRegisterService(repo repository.RegisterRepository, sessions repository.SessionRepository, defaultCurrency string) RegisterService {
	return &registerService{repo: repo, sessions: sessions, defaultCurrency: defaultCurrency}
}

func (s *registerService) Create(ctx context.Context, req dto.CreateRegisterRequest) (*dto.RegisterResponse, error) {
	reg := &model.Register{
		Name:           req.Name,
		Location:       req.Location,
		Description:    req.Description,
		OpeningBalance: req.OpeningBalance,
		CurrentBalance: req.OpeningBalance,
		Currency:       req.Currency,
		IsActive:       true,
	}
	if reg.Currency == "" {
		reg.Currency = s.defaultCurrency
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return nil, apperror.Internal("creating register", err)
	}
	return s.toResponse(ctx, reg), nil
}

func (s *registerService) Get(ctx context.Context, id uuid.UUID) (*dto.RegisterResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("register", id.String()).WithCause(err)
	}
	return s.toResponse(ctx, reg), nil
}

func (s *registerService) List(ctx context.Context, includeInactive bool) ([]dto.RegisterResponse, error) {
	regs, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, apperror.Internal("listing registers", err)
	}
	resp := make([]dto.RegisterResponse, 0, len(regs))
	for i := range regs {
		resp = append(resp, *s.toResponse(ctx, &regs[i]))
	}
	return resp, nil
}

func (s *registerService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateRegisterRequest) (*dto.RegisterResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("register", id.String()).WithCause(err)
	}
	if req.Name != nil {
		reg.Name = *req.Name
	}
	if req.Location != nil {
		reg.Location = req.Location
	}
	if req.Description != nil {
		reg.Description = req.Description
	}
	if err := s.repo.Update(ctx, reg); err != nil {
		return nil, apperror.Internal("updating register", err)
	}
	return s.toResponse(ctx, reg), nil
}

// Deactivate refuses while a session is open on the register: the drawer has
// to be counted and closed first.
func (s *registerService) Deactivate(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return apperror.NotFound("register", id.String()).WithCause(err)
	}
	if open, err := s.sessions.FindOpenByRegister(ctx, id); err == nil && open != nil {
		return apperror.InvalidState("register has an open session").
			WithDetail("session_id", open.ID.String())
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return apperror.Internal("deactivating register", err)
	}
	return nil
}

func (s *registerService) Reactivate(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Reactivate(ctx, id); err != nil {
		return apperror.Internal("reactivating register", err)
	}
	return nil
}

func (s *registerService) toResponse(ctx context.Context, reg *model.Register) *dto.RegisterResponse {
	resp := &dto.RegisterResponse{
		ID:             reg.ID.String(),
		Name:           reg.Name,
		Location:       reg.Location,
		Description:    reg.Description,
		OpeningBalance: reg.OpeningBalance,
		CurrentBalance: reg.CurrentBalance,
		Currency:       reg.Currency,
		IsActive:       reg.IsActive,
	}
	if reg.LastOpenedBy != nil {
		v := reg.LastOpenedBy.String()
		resp.LastOpenedBy = &v
	}
	if reg.LastOpenedAt != nil {
		v := reg.LastOpenedAt.Format("2006-01-02T15:04:05Z")
		resp.LastOpenedAt = &v
	}
	if reg.LastClosedBy != nil {
		v := reg.LastClosedBy.String()
		resp.LastClosedBy = &v
	}
	if reg.LastClosedAt != nil {
		v := reg.LastClosedAt.Format("2006-01-02T15:04:05Z")
		resp.LastClosedAt = &v
	}
	if open, err := s.sessions.FindOpenByRegister(ctx, reg.ID); err == nil && open != nil {
		v := open.ID.String()
		resp.OpenSessionID = &v
	}
	return resp
}
