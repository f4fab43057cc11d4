package service

import (
	"context"
	"testing"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type txFixture struct {
	svc          TransactionService
	sessions     *stubSessionRepo
	users        *stubUserRepo
	products     *stubProductRepo
	movements    *stubMovementRepo
	transactions *stubTransactionRepo
	register     *model.Register
	session      *model.Session
	cashier      *model.User
}

func newTxFixture(t *testing.T) *txFixture {
	t.Helper()
	f := &txFixture{
		sessions:     newStubSessionRepo(),
		users:        newStubUserRepo(),
		products:     newStubProductRepo(),
		movements:    newStubMovementRepo(),
		transactions: newStubTransactionRepo(),
	}
	ledger := NewInventoryLedger(f.products, f.movements)
	calc := NewCalculator(f.products)
	f.svc = NewTransactionService(f.transactions, f.sessions, f.users, ledger, calc, nil)

	ctx := context.Background()
	f.register = &model.Register{ID: uuid.New(), Name: "Till 1", Currency: "ARS", IsActive: true}

	f.cashier = &model.User{ID: uuid.New(), Username: "juan", Name: "Juan Perez", Role: "cashier", IsActive: true}
	require.NoError(t, f.users.Create(ctx, f.cashier))

	f.session = &model.Session{
		ID:         uuid.New(),
		RegisterID: f.register.ID,
		Status:     model.SessionOpen,
		Currency:   "ARS",
		OpenedBy:   f.cashier.ID,
	}
	ZeroTotals().StampSession(f.session)
	require.NoError(t, f.sessions.Create(ctx, f.session))
	return f
}

func (f *txFixture) sale(t *testing.T, p *model.Product, qty int, paid string) *dto.TransactionResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), f.cashier.ID, dto.CreateTransactionRequest{
		SessionID:     f.session.ID.String(),
		Items:         []dto.TransactionItemRequest{{ProductID: p.ID.String(), Quantity: qty}},
		PaymentMethod: "cash",
		Payments:      cashPayment(paid),
	})
	require.NoError(t, err)
	return resp
}

func (f *txFixture) stockOf(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := f.products.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.StockOnHand
}

func TestCreateTransaction(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda 500ml", "100.00", "0", 10)

	resp := f.sale(t, p, 2, "250.00")

	assert.Equal(t, "POS-000001", resp.Number)
	assert.Equal(t, model.TxSale, resp.Type)
	assert.Equal(t, model.TxCompleted, resp.Status)
	assert.True(t, resp.Total.Equal(dec("200.00")))
	assert.True(t, resp.Change.Equal(dec("50.00")))

	// Stock drained and movement recorded with the transaction number.
	assert.Equal(t, 8, f.stockOf(t, p.ID))
	movs, err := f.movements.ListByProduct(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovePosSale, movs[0].Reason)
	assert.Equal(t, -2, movs[0].Quantity)
	assert.Equal(t, 10, movs[0].StockBefore)
	assert.Equal(t, 8, movs[0].StockAfter)
	require.NotNil(t, movs[0].Reference)
	assert.Equal(t, resp.Number, *movs[0].Reference)

	// Session counters folded in.
	session, err := f.sessions.FindByID(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.True(t, session.GrossSales.Equal(dec("200.00")))
	assert.Equal(t, 1, session.TransactionCount)

	// Operator performance metrics updated.
	user, err := f.users.FindByID(context.Background(), f.cashier.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, user.SalesCount)
	assert.True(t, user.SalesTotal.Equal(dec("200.00")))
}

func TestCreateTransaction_InsufficientStock(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Rare Item", "100.00", "0", 2)

	_, err := f.svc.Create(context.Background(), f.cashier.ID, dto.CreateTransactionRequest{
		SessionID:     f.session.ID.String(),
		Items:         []dto.TransactionItemRequest{{ProductID: p.ID.String(), Quantity: 5}},
		PaymentMethod: "cash",
		Payments:      cashPayment("500.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))
	assert.Contains(t, err.Error(), "Rare Item")
	assert.Contains(t, err.Error(), "available 2")

	// Nothing persisted, nothing drained.
	assert.Equal(t, 2, f.stockOf(t, p.ID))
	txs, err := f.transactions.ListBySession(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestCreateTransaction_ShortageInMultiLineCartAbortsAll(t *testing.T) {
	f := newTxFixture(t)
	ok := seedProduct(f.products, "Plenty", "10.00", "0", 100)
	short := seedProduct(f.products, "Scarce", "10.00", "0", 1)

	_, err := f.svc.Create(context.Background(), f.cashier.ID, dto.CreateTransactionRequest{
		SessionID: f.session.ID.String(),
		Items: []dto.TransactionItemRequest{
			{ProductID: ok.ID.String(), Quantity: 3},
			{ProductID: short.ID.String(), Quantity: 2},
		},
		PaymentMethod: "cash",
		Payments:      cashPayment("100.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInsufficientStock))

	// The availability pass runs before any mutation: both lines untouched.
	assert.Equal(t, 100, f.stockOf(t, ok.ID))
	assert.Equal(t, 1, f.stockOf(t, short.ID))
}

func TestCreateTransaction_ClosedSession(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	f.session.Status = model.SessionClosed
	require.NoError(t, f.sessions.Update(context.Background(), f.session))

	_, err := f.svc.Create(context.Background(), f.cashier.ID, dto.CreateTransactionRequest{
		SessionID:     f.session.ID.String(),
		Items:         []dto.TransactionItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		PaymentMethod: "cash",
		Payments:      cashPayment("100.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

// ── Refunds ──────────────────────────────────────────────────────────────────

func TestRefund_FullByDefault(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 2, "200.00")
	assert.Equal(t, 8, f.stockOf(t, p.ID))

	refund, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "customer returned both"})
	require.NoError(t, err)

	assert.Equal(t, model.TxRefund, refund.Type)
	assert.True(t, refund.Total.Equal(dec("-200.00")))
	require.Len(t, refund.Items, 1)
	assert.Equal(t, -2, refund.Items[0].Quantity)
	require.NotNil(t, refund.OriginalTransactionID)
	assert.Equal(t, sale.ID, *refund.OriginalTransactionID)

	// Stock restored, original flipped to refunded.
	assert.Equal(t, 10, f.stockOf(t, p.ID))
	original, err := f.transactions.FindByID(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TxRefunded, original.Status)
}

func TestRefund_PartialLineProrated(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0.21", 10)
	sale := f.sale(t, p, 2, "242.00")

	refund, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{
			Reason: "one unit defective",
			Items:  []dto.RefundItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		})
	require.NoError(t, err)

	// Half of the 242.00 line comes back, tax included.
	assert.True(t, refund.Total.Equal(dec("-121.00")))
	assert.True(t, refund.TotalTax.Equal(dec("-21.00")))
	require.Len(t, refund.Items, 1)
	assert.Equal(t, -1, refund.Items[0].Quantity)

	// Only the returned unit goes back on the shelf.
	assert.Equal(t, 9, f.stockOf(t, p.ID))
}

func TestRefund_AmountClampedToOriginalTotal(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	amount := dec("9999.00")
	refund, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{
			Reason: "goodwill refund",
			Amount: &amount,
			Items:  []dto.RefundItemRequest{{ProductID: p.ID.String(), Quantity: 1}},
		})
	require.NoError(t, err)

	assert.True(t, refund.Total.Equal(dec("-100.00")))
}

func TestRefund_AmountWithoutItemsRejected(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 2, "200.00")

	amount := dec("50.00")
	_, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "partial in money only", Amount: &amount})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))

	// No stock movement happened.
	assert.Equal(t, 8, f.stockOf(t, p.ID))
}

func TestRefund_QuantityExceedsSold(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 2, "200.00")

	_, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{
			Reason: "too many",
			Items:  []dto.RefundItemRequest{{ProductID: p.ID.String(), Quantity: 3}},
		})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}

func TestRefund_DoubleRefundRejected(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	_, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "first refund"})
	require.NoError(t, err)

	_, err = f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "second refund"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

func TestRefund_RequiresOpenSessionOnRegister(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	f.session.Status = model.SessionClosed
	require.NoError(t, f.sessions.Update(context.Background(), f.session))

	_, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "after close"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

func TestRefund_LandsOnCurrentSessionOfRegister(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	// Close the selling session and open a fresh one on the same register.
	f.session.Status = model.SessionClosed
	require.NoError(t, f.sessions.Update(context.Background(), f.session))
	later := &model.Session{
		ID:         uuid.New(),
		RegisterID: f.register.ID,
		Status:     model.SessionOpen,
		Currency:   "ARS",
		OpenedBy:   f.cashier.ID,
	}
	ZeroTotals().StampSession(later)
	require.NoError(t, f.sessions.Create(context.Background(), later))

	refund, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "next day return"})
	require.NoError(t, err)

	assert.Equal(t, later.ID.String(), refund.SessionID)

	// The refund counts against the NEW session's totals.
	updated, err := f.sessions.FindByID(context.Background(), later.ID)
	require.NoError(t, err)
	assert.True(t, updated.TotalRefunds.Equal(dec("100.00")))
	assert.True(t, updated.NetSales.Equal(dec("-100.00")))
}

func TestRefund_OnlySales(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	refund, err := f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID),
		dto.RefundTransactionRequest{Reason: "returned item"})
	require.NoError(t, err)

	// Refunding a refund is rejected.
	_, err = f.svc.Refund(context.Background(), f.cashier.ID, uuid.MustParse(refund.ID),
		dto.RefundTransactionRequest{Reason: "refund the refund"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

// ── Voids ────────────────────────────────────────────────────────────────────

func TestVoid(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 2, "200.00")
	assert.Equal(t, 8, f.stockOf(t, p.ID))

	err := f.svc.Void(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID), "wrong item scanned")
	require.NoError(t, err)

	// Stock restored with a pos_void movement.
	assert.Equal(t, 10, f.stockOf(t, p.ID))
	movs, err := f.movements.ListByProduct(context.Background(), p.ID, 10)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, model.MovePosVoid, movs[0].Reason)
	assert.Equal(t, 2, movs[0].Quantity)

	// The voided sale no longer counts against the session.
	session, err := f.sessions.FindByID(context.Background(), f.session.ID)
	require.NoError(t, err)
	assert.True(t, session.GrossSales.IsZero())
	assert.Equal(t, 0, session.TransactionCount)

	voided, err := f.transactions.FindByID(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, model.TxVoided, voided.Status)
}

func TestVoid_OnlyWhileSessionOpen(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	f.session.Status = model.SessionClosed
	require.NoError(t, f.sessions.Update(context.Background(), f.session))

	err := f.svc.Void(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID), "too late")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
	assert.Equal(t, 9, f.stockOf(t, p.ID))
}

func TestVoid_AlreadyVoided(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	require.NoError(t, f.svc.Void(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID), "first void"))
	err := f.svc.Void(context.Background(), f.cashier.ID, uuid.MustParse(sale.ID), "second void")
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidState))
}

// ── Queries ──────────────────────────────────────────────────────────────────

func TestGetAndList(t *testing.T) {
	f := newTxFixture(t)
	p := seedProduct(f.products, "Soda", "100.00", "0", 10)
	sale := f.sale(t, p, 1, "100.00")

	got, err := f.svc.Get(context.Background(), uuid.MustParse(sale.ID))
	require.NoError(t, err)
	assert.Equal(t, sale.Number, got.Number)

	list, err := f.svc.List(context.Background(), dto.TransactionFilter{Type: model.TxSale})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)

	_, err = f.svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

// ── Post-persist stock failure ───────────────────────────────────────────────

// racingProductRepo reports stock as available but loses every conditional
// decrement, as if a concurrent sale drained the shelf in between.
type racingProductRepo struct {
	*stubProductRepo
}

func (r *racingProductRepo) DecrementStockTx(_ *gorm.DB, _ uuid.UUID, _ int) (int64, error) {
	return 0, nil
}

func TestCreateTransaction_StockFailureAfterPersistIsInconsistency(t *testing.T) {
	f := newTxFixture(t)
	racing := &racingProductRepo{stubProductRepo: f.products}
	ledger := NewInventoryLedger(racing, f.movements)
	calc := NewCalculator(racing)
	svc := NewTransactionService(f.transactions, f.sessions, f.users, ledger, calc, nil)

	p := seedProduct(f.products, "Soda", "100.00", "0", 10)

	_, err := svc.Create(context.Background(), f.cashier.ID, dto.CreateTransactionRequest{
		SessionID:     f.session.ID.String(),
		Items:         []dto.TransactionItemRequest{{ProductID: p.ID.String(), Quantity: 2}},
		PaymentMethod: "cash",
		Payments:      cashPayment("200.00"),
	})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInconsistency))

	// The transaction record stays: it is the source of truth for what was
	// charged, even though the shelf count never moved.
	list, _, listErr := f.transactions.List(context.Background(), dto.TransactionFilter{})
	require.NoError(t, listErr)
	require.Len(t, list, 1)
	assert.Equal(t, model.TxCompleted, list[0].Status)

	var appErr *apperror.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, list[0].ID.String(), appErr.Details["transaction_id"])

	assert.Equal(t, 10, f.stockOf(t, p.ID))
	movs, movErr := f.movements.ListByProduct(context.Background(), p.ID, 10)
	require.NoError(t, movErr)
	assert.Empty(t, movs)
}
