package service

import (
	"context"
	"errors"
	"time"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionService interface {
	Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error)
	Close(ctx context.Context, userID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error)
	// GetActive returns the session the operator currently runs, or nil.
	GetActive(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error)
	History(ctx context.Context, filter dto.SessionHistoryFilter) (*dto.SessionListResponse, error)
	// RequireOpen is called by the transaction orchestrator before recording
	// anything against a session.
	RequireOpen(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
}

type sessionService struct {
	sessions     repository.SessionRepository
	registers    repository.RegisterRepository
	users        repository.UserRepository
	transactions repository.TransactionRepository
}

func NewSessionService(
	sessions repository.SessionRepository,
	registers repository.RegisterRepository,
	users repository.UserRepository,
	transactions repository.TransactionRepository,
) SessionService {
	return &sessionService{
		sessions:     sessions,
		registers:    registers,
		users:        users,
		transactions: transactions,
	}
}

// ── Open ─────────────────────────────────────────────────────────────────────

// Open starts a shift on a register. The no-duplicate-open-session rule is
// checked read-then-write here; the partial unique index on sessions is the
// storage-layer backstop for genuinely concurrent opens.
func (s *sessionService) Open(ctx context.Context, userID uuid.UUID, req dto.OpenSessionRequest) (*dto.SessionResponse, error) {
	registerID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apperror.InvalidInput("invalid register id").WithDetail("register_id", req.RegisterID)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user", userID.String()).WithCause(err)
	}

	register, err := s.registers.FindByID(ctx, registerID)
	if err != nil {
		return nil, apperror.NotFound("register", registerID.String()).WithCause(err)
	}
	if !register.IsActive {
		return nil, apperror.InvalidState("register is inactive").WithDetail("register_id", registerID.String())
	}
	if !user.CanAccessRegister(registerID) {
		return nil, apperror.Forbidden("operator is not allowed on this register").
			WithDetail("register_id", registerID.String())
	}
	existing, err := s.sessions.FindOpenByRegister(ctx, registerID)
	if err != nil && !IsNotFound(err) {
		return nil, apperror.Internal("checking for an open session", err)
	}
	if existing != nil {
		return nil, apperror.InvalidState("register already has an open session").
			WithDetail("register_id", registerID.String()).
			WithDetail("session_id", existing.ID.String())
	}

	now := time.Now().UTC()
	session := &model.Session{
		RegisterID:     registerID,
		Status:         model.SessionOpen,
		OpeningBalance: req.OpeningBalance,
		Currency:       register.Currency,
		OpenedBy:       userID,
		Notes:          req.Notes,
		OpenedAt:       now,
	}
	ZeroTotals().StampSession(session)

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperror.Internal("creating session", err)
	}

	register.CurrentBalance = req.OpeningBalance
	register.LastOpenedBy = &userID
	register.LastOpenedAt = &now
	if err := s.registers.Update(ctx, register); err != nil {
		return nil, apperror.Internal("updating register balance", err)
	}

	if err := s.users.SetCurrentSession(ctx, userID, &session.ID); err != nil {
		return nil, apperror.Internal("recording operator session", err)
	}

	return sessionToResponse(session), nil
}

// ── Close ────────────────────────────────────────────────────────────────────

// Close ends a shift. Totals are recomputed from scratch over all non-voided
// transactions — the recompute is idempotent and authoritative, so any drift
// in the incremental counters is corrected here.
func (s *sessionService) Close(ctx context.Context, userID uuid.UUID, req dto.CloseSessionRequest) (*dto.SessionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apperror.InvalidInput("invalid session id").WithDetail("session_id", req.SessionID)
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NotFound("session", sessionID.String()).WithCause(err)
	}
	if !session.IsOpen() {
		return nil, apperror.InvalidState("session is not open").
			WithDetail("session_id", sessionID.String()).
			WithDetail("status", session.Status)
	}

	txs, err := s.transactions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("loading session transactions", err)
	}
	totals := RecomputeTotals(txs)
	totals.StampSession(session)

	now := time.Now().UTC()
	expected := session.OpeningBalance.Add(totals.NetSales)
	variance := req.ClosingBalance.Sub(expected)

	closing := req.ClosingBalance
	session.ClosingBalance = &closing
	session.ExpectedClosingBalance = &expected
	session.Variance = &variance
	session.Status = model.SessionClosed
	session.ClosedBy = &userID
	session.ClosedAt = &now
	if req.Notes != nil {
		session.Notes = req.Notes
	}

	register, err := s.registers.FindByID(ctx, session.RegisterID)
	if err != nil {
		return nil, apperror.NotFound("register", session.RegisterID.String()).WithCause(err)
	}

	txErr := runTx(ctx, s.sessions.DB(), func(tx *gorm.DB) error {
		if err := s.sessions.UpdateTx(orDB(tx, s.sessions.DB()), session); err != nil {
			return err
		}
		register.CurrentBalance = req.ClosingBalance
		register.LastClosedBy = &userID
		register.LastClosedAt = &now
		return s.registers.UpdateTx(orDB(tx, s.sessions.DB()), register)
	})
	if txErr != nil {
		return nil, apperror.Internal("closing session", txErr)
	}

	// Clear the current-session pointer of whoever references this session.
	s.clearSessionPointer(ctx, session.OpenedBy, sessionID)
	if userID != session.OpenedBy {
		s.clearSessionPointer(ctx, userID, sessionID)
	}

	return sessionToResponse(session), nil
}

func (s *sessionService) clearSessionPointer(ctx context.Context, userID, sessionID uuid.UUID) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return
	}
	if user.CurrentSessionID != nil && *user.CurrentSessionID == sessionID {
		_ = s.users.SetCurrentSession(ctx, userID, nil)
	}
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *sessionService) Get(ctx context.Context, id uuid.UUID) (*dto.SessionResponse, error) {
	session, err := s.sessions.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("session", id.String()).WithCause(err)
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) GetActive(ctx context.Context, userID uuid.UUID) (*dto.SessionResponse, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NotFound("user", userID.String()).WithCause(err)
	}
	if user.CurrentSessionID == nil {
		return nil, nil
	}
	session, err := s.sessions.FindByID(ctx, *user.CurrentSessionID)
	if err != nil || !session.IsOpen() {
		return nil, nil
	}
	return sessionToResponse(session), nil
}

func (s *sessionService) History(ctx context.Context, filter dto.SessionHistoryFilter) (*dto.SessionListResponse, error) {
	var registerID *uuid.UUID
	if filter.RegisterID != "" {
		rid, err := uuid.Parse(filter.RegisterID)
		if err != nil {
			return nil, apperror.InvalidInput("invalid register id")
		}
		registerID = &rid
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	sessions, total, err := s.sessions.History(ctx, registerID, filter.Page, filter.Limit)
	if err != nil {
		return nil, apperror.Internal("listing sessions", err)
	}
	items := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		items = append(items, *sessionToResponse(&sessions[i]))
	}
	return &dto.SessionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *sessionService) RequireOpen(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NotFound("session", sessionID.String()).WithCause(err)
	}
	if !session.IsOpen() {
		return nil, apperror.InvalidState("session is not open").
			WithDetail("session_id", sessionID.String()).
			WithDetail("status", session.Status)
	}
	return session, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// orDB picks the live transaction when present, the plain handle otherwise.
// Stub repositories in tests return nil from DB(), making both nil — repo
// stubs ignore the handle entirely.
func orDB(tx, db *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}

func sessionToResponse(s *model.Session) *dto.SessionResponse {
	resp := &dto.SessionResponse{
		ID:             s.ID.String(),
		RegisterID:     s.RegisterID.String(),
		Status:         s.Status,
		Currency:       s.Currency,
		OpeningBalance: s.OpeningBalance,
		ClosingBalance: s.ClosingBalance,
		ExpectedClosingBalance: s.ExpectedClosingBalance,
		Variance:               s.Variance,
		Totals: dto.SessionTotalsResponse{
			GrossSales:       s.GrossSales,
			TotalRefunds:     s.TotalRefunds,
			TotalDiscount:    s.TotalDiscount,
			TotalTax:         s.TotalTax,
			NetSales:         s.NetSales,
			TransactionCount: s.TransactionCount,
		},
		OpenedBy: s.OpenedBy.String(),
		Notes:    s.Notes,
		OpenedAt: s.OpenedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ClosedBy != nil {
		v := s.ClosedBy.String()
		resp.ClosedBy = &v
	}
	if s.ClosedAt != nil {
		v := s.ClosedAt.Format("2006-01-02T15:04:05Z")
		resp.ClosedAt = &v
	}
	return resp
}

// IsNotFound reports whether err is the storage-layer missing-row error.
// Repos bubble gorm.ErrRecordNotFound untouched; services translate it here.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
