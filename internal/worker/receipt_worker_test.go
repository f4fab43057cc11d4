package worker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"tillpos/internal/dto"
	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ────────────────────────────────────────────────────────────────────

type stubReceiptRepo struct {
	receipts map[uuid.UUID]*model.Receipt
	byTx     map[uuid.UUID]uuid.UUID
}

func newStubReceiptRepo() *stubReceiptRepo {
	return &stubReceiptRepo{
		receipts: make(map[uuid.UUID]*model.Receipt),
		byTx:     make(map[uuid.UUID]uuid.UUID),
	}
}

var _ repository.ReceiptRepository = (*stubReceiptRepo)(nil)

func (r *stubReceiptRepo) Create(_ context.Context, rc *model.Receipt) error {
	if rc.ID == uuid.Nil {
		rc.ID = uuid.New()
	}
	rc.CreatedAt = time.Now()
	cloned := *rc
	r.receipts[rc.ID] = &cloned
	r.byTx[rc.TransactionID] = rc.ID
	return nil
}

func (r *stubReceiptRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Receipt, error) {
	rc, ok := r.receipts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cloned := *rc
	return &cloned, nil
}

func (r *stubReceiptRepo) FindByTransactionID(_ context.Context, txID uuid.UUID) (*model.Receipt, error) {
	id, ok := r.byTx[txID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(context.Background(), id)
}

func (r *stubReceiptRepo) Update(_ context.Context, rc *model.Receipt) error {
	cloned := *rc
	r.receipts[rc.ID] = &cloned
	r.byTx[rc.TransactionID] = rc.ID
	return nil
}

func (r *stubReceiptRepo) ListRetryable(_ context.Context, now time.Time, maxRetries int) ([]model.Receipt, error) {
	var out []model.Receipt
	for _, rc := range r.receipts {
		if rc.Status == model.ReceiptError && rc.RetryCount < maxRetries &&
			rc.NextRetryAt != nil && !rc.NextRetryAt.After(now) {
			out = append(out, *rc)
		}
	}
	return out, nil
}

type stubTxRepo struct {
	transactions map[uuid.UUID]*model.Transaction
}

func newStubTxRepo() *stubTxRepo {
	return &stubTxRepo{transactions: make(map[uuid.UUID]*model.Transaction)}
}

var _ repository.TransactionRepository = (*stubTxRepo)(nil)

func (r *stubTxRepo) DB() *gorm.DB { return nil }

func (r *stubTxRepo) Create(_ context.Context, _ *gorm.DB, t *model.Transaction) error {
	r.transactions[t.ID] = t
	return nil
}

func (r *stubTxRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Transaction, error) {
	t, ok := r.transactions[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return t, nil
}

func (r *stubTxRepo) ListBySession(_ context.Context, _ uuid.UUID) ([]model.Transaction, error) {
	return nil, nil
}

func (r *stubTxRepo) UpdateStatusTx(_ *gorm.DB, _ uuid.UUID, _ string) error { return nil }

func (r *stubTxRepo) NextNumber(_ context.Context, _ *gorm.DB) (string, error) {
	return "POS-000001", nil
}

func (r *stubTxRepo) List(_ context.Context, _ dto.TransactionFilter) ([]model.Transaction, int64, error) {
	return nil, 0, nil
}

func (r *stubTxRepo) ListForReport(_ context.Context, _ *uuid.UUID, _, _ string) ([]model.Transaction, error) {
	return nil, nil
}

func mustDec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func sampleTransaction() *model.Transaction {
	return &model.Transaction{
		ID:            uuid.New(),
		Number:        "POS-000123",
		SessionID:     uuid.New(),
		RegisterID:    uuid.New(),
		Type:          model.TxSale,
		Status:        model.TxCompleted,
		Subtotal:      mustDec("200.00"),
		Total:         mustDec("242.00"),
		TotalTax:      mustDec("42.00"),
		PaymentMethod: "cash",
		AmountPaid:    mustDec("250.00"),
		Change:        mustDec("8.00"),
		CreatedAt:     time.Now(),
		Items: []model.TransactionItem{
			{ProductID: uuid.New(), ProductName: "Soda 500ml", Quantity: 2,
				UnitPrice: mustDec("100.00"), Tax: mustDec("42.00"), Total: mustDec("242.00")},
		},
		Payments: []model.TransactionPayment{{Method: "cash", Amount: mustDec("250.00")}},
	}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestReceiptWorker_RendersPDF(t *testing.T) {
	transactions := newStubTxRepo()
	receipts := newStubReceiptRepo()
	txn := sampleTransaction()
	require.NoError(t, transactions.Create(context.Background(), nil, txn))

	w := NewReceiptWorker(transactions, receipts, nil, infra.ReceiptPDFOptions{
		StoragePath: t.TempDir(),
		StoreName:   "Corner Store",
		Currency:    "ARS",
	})

	payload, err := json.Marshal(ReceiptPayload{TransactionID: txn.ID.String()})
	require.NoError(t, err)
	w.Process(context.Background(), payload)

	receipt, err := receipts.FindByTransactionID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptRendered, receipt.Status)
	require.NotNil(t, receipt.PDFPath)
	assert.True(t, strings.HasSuffix(*receipt.PDFPath, "receipt_POS-000123.pdf"))

	info, err := os.Stat(*receipt.PDFPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestReceiptWorker_RefundBanner(t *testing.T) {
	transactions := newStubTxRepo()
	receipts := newStubReceiptRepo()
	txn := sampleTransaction()
	txn.Type = model.TxRefund
	txn.Number = "POS-000124"
	origID := uuid.New()
	txn.OriginalTransactionID = &origID
	require.NoError(t, transactions.Create(context.Background(), nil, txn))

	w := NewReceiptWorker(transactions, receipts, nil, infra.ReceiptPDFOptions{
		StoragePath: t.TempDir(),
		StoreName:   "Corner Store",
		Currency:    "ARS",
	})

	payload, _ := json.Marshal(ReceiptPayload{TransactionID: txn.ID.String()})
	w.Process(context.Background(), payload)

	receipt, err := receipts.FindByTransactionID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptRendered, receipt.Status)
}

func TestReceiptWorker_RenderFailureSchedulesRetry(t *testing.T) {
	transactions := newStubTxRepo()
	receipts := newStubReceiptRepo()
	txn := sampleTransaction()
	require.NoError(t, transactions.Create(context.Background(), nil, txn))

	// A file path where the storage directory should be makes MkdirAll fail
	// on every attempt.
	blocked := t.TempDir() + "/blocked"
	require.NoError(t, os.WriteFile(blocked, []byte("x"), 0644))

	w := NewReceiptWorker(transactions, receipts, nil, infra.ReceiptPDFOptions{
		StoragePath: blocked,
		StoreName:   "Corner Store",
		Currency:    "ARS",
	})

	payload, _ := json.Marshal(ReceiptPayload{TransactionID: txn.ID.String()})
	w.Process(context.Background(), payload)

	receipt, err := receipts.FindByTransactionID(context.Background(), txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReceiptError, receipt.Status)
	assert.Equal(t, 1, receipt.RetryCount)
	require.NotNil(t, receipt.NextRetryAt)
	require.NotNil(t, receipt.LastError)
	assert.Contains(t, *receipt.LastError, "PDF rendering failed")
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	attempts := 0
	err := withRetry(ctx, 3, func(int) error {
		attempts++
		if attempts < 2 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	attempts = 0
	failed := errors.New("permanent")
	err = withRetry(ctx, 3, func(int) error {
		attempts++
		return failed
	})
	require.ErrorIs(t, err, failed)
	assert.Equal(t, 3, attempts)
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := withRetry(ctx, 3, func(int) error { return errors.New("always") })
	require.ErrorIs(t, err, context.Canceled)
}

func TestComputeRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, computeRetryBackoff(1))
	assert.Equal(t, 2*time.Minute, computeRetryBackoff(2))
	assert.Equal(t, 4*time.Minute, computeRetryBackoff(3))
	assert.Equal(t, 8*time.Minute, computeRetryBackoff(4))
	// Capped at 30 minutes regardless of retry count.
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(6))
	assert.Equal(t, 30*time.Minute, computeRetryBackoff(12))
}

func TestJobEnvelope(t *testing.T) {
	payload, err := json.Marshal(ReceiptPayload{TransactionID: "abc", CustomerEmail: "a@b.com"})
	require.NoError(t, err)
	encoded, err := json.Marshal(Job{Type: "receipt", Payload: payload})
	require.NoError(t, err)

	var decoded Job
	require.NoError(t, json.Unmarshal(encoded, &decoded))
	assert.Equal(t, "receipt", decoded.Type)

	var roundTripped ReceiptPayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &roundTripped))
	assert.Equal(t, "abc", roundTripped.TransactionID)
	assert.Equal(t, "a@b.com", roundTripped.CustomerEmail)
}
