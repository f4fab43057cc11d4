package service

// In-memory repository stubs shared by the service unit tests. They return
// gorm.ErrRecordNotFound for missing rows, matching the contract of the real
// GORM-backed repositories, and their DB() methods return nil so runTx takes
// the fn(nil) path.

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ── SessionRepository ────────────────────────────────────────────────────────

type stubSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*model.Session
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{sessions: make(map[uuid.UUID]*model.Session)}
}

var _ repository.SessionRepository = (*stubSessionRepo)(nil)

func (r *stubSessionRepo) DB() *gorm.DB { return nil }

func (r *stubSessionRepo) Create(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	cloned := *s
	r.sessions[s.ID] = &cloned
	return nil
}

func (r *stubSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *s
	return &cloned, nil
}

func (r *stubSessionRepo) FindOpenByRegister(_ context.Context, registerID uuid.UUID) (*model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.RegisterID == registerID && s.Status == model.SessionOpen {
			cloned := *s
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubSessionRepo) Update(_ context.Context, s *model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *s
	r.sessions[s.ID] = &cloned
	return nil
}

func (r *stubSessionRepo) UpdateTx(_ *gorm.DB, s *model.Session) error {
	return r.Update(context.Background(), s)
}

func (r *stubSessionRepo) History(_ context.Context, registerID *uuid.UUID, _, _ int) ([]model.Session, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Session
	for _, s := range r.sessions {
		if s.Status != model.SessionClosed {
			continue
		}
		if registerID != nil && s.RegisterID != *registerID {
			continue
		}
		out = append(out, *s)
	}
	return out, int64(len(out)), nil
}

// ── RegisterRepository ───────────────────────────────────────────────────────

type stubRegisterRepo struct {
	registers map[uuid.UUID]*model.Register
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{registers: make(map[uuid.UUID]*model.Register)}
}

var _ repository.RegisterRepository = (*stubRegisterRepo)(nil)

func (r *stubRegisterRepo) Create(_ context.Context, reg *model.Register) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	cloned := *reg
	r.registers[reg.ID] = &cloned
	return nil
}

func (r *stubRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Register, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *reg
	return &cloned, nil
}

func (r *stubRegisterRepo) List(_ context.Context, includeInactive bool) ([]model.Register, error) {
	var out []model.Register
	for _, reg := range r.registers {
		if !includeInactive && !reg.IsActive {
			continue
		}
		out = append(out, *reg)
	}
	return out, nil
}

func (r *stubRegisterRepo) Update(_ context.Context, reg *model.Register) error {
	cloned := *reg
	r.registers[reg.ID] = &cloned
	return nil
}

func (r *stubRegisterRepo) UpdateTx(_ *gorm.DB, reg *model.Register) error {
	return r.Update(context.Background(), reg)
}

func (r *stubRegisterRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	if reg, ok := r.registers[id]; ok {
		reg.IsActive = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubRegisterRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if reg, ok := r.registers[id]; ok {
		reg.IsActive = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── UserRepository ───────────────────────────────────────────────────────────

type stubUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[uuid.UUID]*model.User)}
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *u
	return &cloned, nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username && u.IsActive {
			cloned := *u
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.IsActive {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) ListAll(_ context.Context) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	cloned := *u
	r.users[u.ID] = &cloned
	return nil
}

func (r *stubUserRepo) SetCurrentSession(_ context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.CurrentSessionID = sessionID
	return nil
}

func (r *stubUserRepo) AddPerformance(_ context.Context, id uuid.UUID, total decimal.Decimal) error {
	u, ok := r.users[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.SalesCount++
	u.SalesTotal = u.SalesTotal.Add(total)
	return nil
}

func (r *stubUserRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.IsActive = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubUserRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	if u, ok := r.users[id]; ok {
		u.IsActive = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

// ── TransactionRepository ────────────────────────────────────────────────────

type stubTransactionRepo struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*model.Transaction
	order        []uuid.UUID
	seq          int64
}

func newStubTransactionRepo() *stubTransactionRepo {
	return &stubTransactionRepo{transactions: make(map[uuid.UUID]*model.Transaction)}
}

var _ repository.TransactionRepository = (*stubTransactionRepo)(nil)

func (r *stubTransactionRepo) DB() *gorm.DB { return nil }

func (r *stubTransactionRepo) Create(_ context.Context, _ *gorm.DB, t *model.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	cloned := *t
	r.transactions[t.ID] = &cloned
	r.order = append(r.order, t.ID)
	return nil
}

func (r *stubTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *t
	return &cloned, nil
}

func (r *stubTransactionRepo) ListBySession(_ context.Context, sessionID uuid.UUID) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transaction
	for _, id := range r.order {
		if t := r.transactions[id]; t.SessionID == sessionID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *stubTransactionRepo) UpdateStatusTx(_ *gorm.DB, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.transactions[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.Status = status
	return nil
}

func (r *stubTransactionRepo) NextNumber(_ context.Context, _ *gorm.DB) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	return fmt.Sprintf("POS-%06d", r.seq), nil
}

func (r *stubTransactionRepo) List(_ context.Context, filter dto.TransactionFilter) ([]model.Transaction, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transaction
	for _, id := range r.order {
		t := r.transactions[id]
		if filter.Type != "" && t.Type != filter.Type {
			continue
		}
		out = append(out, *t)
	}
	return out, int64(len(out)), nil
}

func (r *stubTransactionRepo) ListForReport(_ context.Context, registerID *uuid.UUID, _, _ string) ([]model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Transaction
	for _, id := range r.order {
		t := r.transactions[id]
		if t.Status == model.TxVoided {
			continue
		}
		if registerID != nil && t.RegisterID != *registerID {
			continue
		}
		out = append(out, *t)
	}
	return out, nil
}

// ── ProductRepository ────────────────────────────────────────────────────────

type stubProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]*model.Product
	variants map[uuid.UUID]*model.ProductVariant
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{
		products: make(map[uuid.UUID]*model.Product),
		variants: make(map[uuid.UUID]*model.ProductVariant),
	}
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func (r *stubProductRepo) DB() *gorm.DB { return nil }

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cloned := *p
	r.products[p.ID] = &cloned
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *p
	return &cloned, nil
}

func (r *stubProductRepo) FindByBarcode(_ context.Context, barcode string) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.products {
		if p.Barcode == barcode {
			cloned := *p
			return &cloned, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *stubProductRepo) FindVariant(_ context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *v
	return &cloned, nil
}

func (r *stubProductRepo) List(_ context.Context, _ dto.ProductFilter) ([]model.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) ListBelowMinStock(_ context.Context) ([]model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Product
	for _, p := range r.products {
		if p.IsActive && p.StockOnHand < p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cloned := *p
	r.products[p.ID] = &cloned
	return nil
}

func (r *stubProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.IsActive = false
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (r *stubProductRepo) Reactivate(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		p.IsActive = true
		return nil
	}
	return gorm.ErrRecordNotFound
}

// DecrementStockTx mirrors the conditional UPDATE of the real repository:
// zero rows affected when stock would go negative.
func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok || p.StockOnHand < qty {
		return 0, nil
	}
	p.StockOnHand -= qty
	return 1, nil
}

func (r *stubProductRepo) DecrementVariantStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok || v.StockOnHand < qty {
		return 0, nil
	}
	v.StockOnHand -= qty
	return 1, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.StockOnHand += qty
	return nil
}

func (r *stubProductRepo) IncrementVariantStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.variants[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.StockOnHand += qty
	return nil
}

func (r *stubProductRepo) addVariant(v *model.ProductVariant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	cloned := *v
	r.variants[v.ID] = &cloned
}

// ── StockMovementRepository ──────────────────────────────────────────────────

type stubMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func newStubMovementRepo() *stubMovementRepo { return &stubMovementRepo{} }

var _ repository.StockMovementRepository = (*stubMovementRepo)(nil)

func (r *stubMovementRepo) CreateTx(_ *gorm.DB, m *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.CreatedAt = time.Now()
	r.movements = append(r.movements, *m)
	return nil
}

func (r *stubMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, limit int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (r *stubMovementRepo) ListRecent(_ context.Context, limit int) ([]model.StockMovement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.StockMovement
	for i := len(r.movements) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.movements[i])
	}
	return out, nil
}
