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
)

type reportFixture struct {
	svc          ReportService
	sessions     *stubSessionRepo
	transactions *stubTransactionRepo
	session      *model.Session
	registerID   uuid.UUID
	cashierID    uuid.UUID
}

func newReportFixture(t *testing.T) *reportFixture {
	t.Helper()
	f := &reportFixture{
		sessions:     newStubSessionRepo(),
		transactions: newStubTransactionRepo(),
		registerID:   uuid.New(),
		cashierID:    uuid.New(),
	}
	f.svc = NewReportService(f.sessions, f.transactions)

	f.session = &model.Session{
		ID:         uuid.New(),
		RegisterID: f.registerID,
		Status:     model.SessionOpen,
		Currency:   "ARS",
		OpenedBy:   f.cashierID,
	}
	ZeroTotals().StampSession(f.session)
	require.NoError(t, f.sessions.Create(context.Background(), f.session))
	return f
}

func (f *reportFixture) record(t *testing.T, txn *model.Transaction) {
	t.Helper()
	txn.SessionID = f.session.ID
	txn.RegisterID = f.registerID
	txn.CreatedBy = f.cashierID
	require.NoError(t, f.transactions.Create(context.Background(), nil, txn))
}

func TestSessionReport(t *testing.T) {
	f := newReportFixture(t)
	sodaID := uuid.New()
	breadID := uuid.New()

	// Cash sale with change: 2 soda + 1 bread, 250 tendered for a 220 total.
	f.record(t, &model.Transaction{
		Number: "POS-000001", Type: model.TxSale, Status: model.TxCompleted,
		Subtotal: dec("220.00"), Total: dec("220.00"),
		PaymentMethod: "cash", AmountPaid: dec("250.00"), Change: dec("30.00"),
		Items: []model.TransactionItem{
			{ProductID: sodaID, ProductName: "Soda", Quantity: 2, UnitPrice: dec("100.00"), Total: dec("200.00")},
			{ProductID: breadID, ProductName: "Bread", Quantity: 1, UnitPrice: dec("20.00"), Total: dec("20.00")},
		},
		Payments: []model.TransactionPayment{{Method: "cash", Amount: dec("250.00")}},
	})
	// Debit sale.
	f.record(t, &model.Transaction{
		Number: "POS-000002", Type: model.TxSale, Status: model.TxCompleted,
		Subtotal: dec("100.00"), Total: dec("100.00"),
		PaymentMethod: "debit", AmountPaid: dec("100.00"),
		Items: []model.TransactionItem{
			{ProductID: sodaID, ProductName: "Soda", Quantity: 1, UnitPrice: dec("100.00"), Total: dec("100.00")},
		},
		Payments: []model.TransactionPayment{{Method: "debit", Amount: dec("100.00")}},
	})
	// Cash refund of one soda.
	f.record(t, &model.Transaction{
		Number: "POS-000003", Type: model.TxRefund, Status: model.TxCompleted,
		Subtotal: dec("-100.00"), Total: dec("-100.00"),
		PaymentMethod: "cash", AmountPaid: dec("-100.00"),
		Items: []model.TransactionItem{
			{ProductID: sodaID, ProductName: "Soda", Quantity: -1, UnitPrice: dec("100.00"), Total: dec("-100.00")},
		},
		Payments: []model.TransactionPayment{{Method: "cash", Amount: dec("-100.00")}},
	})
	// Voided sale: excluded everywhere.
	f.record(t, &model.Transaction{
		Number: "POS-000004", Type: model.TxSale, Status: model.TxVoided,
		Subtotal: dec("500.00"), Total: dec("500.00"),
		PaymentMethod: "cash", AmountPaid: dec("500.00"),
		Items: []model.TransactionItem{
			{ProductID: breadID, ProductName: "Bread", Quantity: 10, UnitPrice: dec("20.00"), Total: dec("200.00")},
		},
		Payments: []model.TransactionPayment{{Method: "cash", Amount: dec("500.00")}},
	})

	report, err := f.svc.SessionReport(context.Background(), f.session.ID)
	require.NoError(t, err)

	assert.True(t, report.Session.Totals.GrossSales.Equal(dec("320.00")))
	assert.True(t, report.Session.Totals.TotalRefunds.Equal(dec("100.00")))
	assert.True(t, report.Session.Totals.NetSales.Equal(dec("220.00")))
	assert.Equal(t, 3, report.Session.Totals.TransactionCount)

	// Cash: 250 tendered − 30 change − 100 refund = 120.
	assert.True(t, report.Payments.Cash.Equal(dec("120.00")), "cash was %s", report.Payments.Cash)
	assert.True(t, report.Payments.Debit.Equal(dec("100.00")))
	assert.True(t, report.Payments.Total.Equal(dec("220.00")))

	// Sold 3 sodas, returned 1 → nets to 2, ahead of 1 bread. The voided
	// bread sale never counts.
	require.Len(t, report.TopItems, 2)
	assert.Equal(t, "Soda", report.TopItems[0].ProductName)
	assert.Equal(t, 2, report.TopItems[0].Quantity)
	assert.Equal(t, "Bread", report.TopItems[1].ProductName)
	assert.Equal(t, 1, report.TopItems[1].Quantity)
}

func TestSessionReport_UnknownSession(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.svc.SessionReport(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestSalesReport(t *testing.T) {
	f := newReportFixture(t)
	sodaID := uuid.New()

	f.record(t, &model.Transaction{
		Number: "POS-000001", Type: model.TxSale, Status: model.TxCompleted,
		Subtotal: dec("100.00"), Total: dec("100.00"),
		PaymentMethod: "transfer", AmountPaid: dec("100.00"),
		Items: []model.TransactionItem{
			{ProductID: sodaID, ProductName: "Soda", Quantity: 1, UnitPrice: dec("100.00"), Total: dec("100.00")},
		},
		Payments: []model.TransactionPayment{{Method: "transfer", Amount: dec("100.00")}},
	})
	f.record(t, &model.Transaction{
		Number: "POS-000002", Type: model.TxRefund, Status: model.TxCompleted,
		Subtotal: dec("-100.00"), Total: dec("-100.00"),
		PaymentMethod: "transfer", AmountPaid: dec("-100.00"),
		Payments:      []model.TransactionPayment{{Method: "transfer", Amount: dec("-100.00")}},
	})

	report, err := f.svc.SalesReport(context.Background(), dto.SalesReportFilter{
		RegisterID: f.registerID.String(),
		DateFrom:   "2026-08-01",
		DateTo:     "2026-08-31",
	})
	require.NoError(t, err)

	assert.True(t, report.GrossSales.Equal(dec("100.00")))
	assert.True(t, report.TotalRefunds.Equal(dec("100.00")))
	assert.True(t, report.NetSales.IsZero())
	assert.Equal(t, 2, report.TransactionCount)
	assert.Equal(t, 1, report.RefundCount)
	assert.True(t, report.Payments.Transfer.IsZero())
}

func TestSalesReport_InvalidRegisterID(t *testing.T) {
	f := newReportFixture(t)
	_, err := f.svc.SalesReport(context.Background(), dto.SalesReportFilter{RegisterID: "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidInput))
}
