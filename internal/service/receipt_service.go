package service

import (
	"context"
	"os"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"
	"tillpos/internal/worker"

	"github.com/google/uuid"
)

// ReceiptService serves receipt lookups and manual re-delivery. Rendering
// itself happens on the worker pool.
type ReceiptService interface {
	GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*dto.ReceiptResponse, error)
	// DownloadPath resolves the on-disk PDF for streaming to the client.
	DownloadPath(ctx context.Context, transactionID uuid.UUID) (string, error)
	// Retry re-enqueues a stuck receipt regardless of its retry schedule.
	Retry(ctx context.Context, transactionID uuid.UUID) error
}

type receiptService struct {
	receipts   repository.ReceiptRepository
	dispatcher *worker.Dispatcher
}

func NewReceiptService(receipts repository.ReceiptRepository, dispatcher *worker.Dispatcher) ReceiptService {
	return &receiptService{receipts: receipts, dispatcher: dispatcher}
}

func (s *receiptService) GetByTransaction(ctx context.Context, transactionID uuid.UUID) (*dto.ReceiptResponse, error) {
	rc, err := s.receipts.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, apperror.NotFound("receipt", transactionID.String()).WithCause(err)
	}
	return receiptToResponse(rc), nil
}

func (s *receiptService) DownloadPath(ctx context.Context, transactionID uuid.UUID) (string, error) {
	rc, err := s.receipts.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return "", apperror.NotFound("receipt", transactionID.String()).WithCause(err)
	}
	if rc.PDFPath == nil {
		return "", apperror.InvalidState("receipt has not been rendered yet").
			WithDetail("status", rc.Status)
	}
	if _, err := os.Stat(*rc.PDFPath); err != nil {
		return "", apperror.Inconsistency("receipt PDF is missing from storage").
			WithDetail("path", *rc.PDFPath).
			WithCause(err)
	}
	return *rc.PDFPath, nil
}

func (s *receiptService) Retry(ctx context.Context, transactionID uuid.UUID) error {
	rc, err := s.receipts.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return apperror.NotFound("receipt", transactionID.String()).WithCause(err)
	}
	if rc.Status == model.ReceiptSent {
		return apperror.InvalidState("receipt was already delivered")
	}

	// Reset the schedule so the enqueued attempt is not immediately rescheduled
	// by a stale next_retry_at.
	rc.RetryCount = 0
	rc.NextRetryAt = nil
	rc.LastError = nil
	if err := s.receipts.Update(ctx, rc); err != nil {
		return apperror.Internal("resetting receipt retry state", err)
	}

	payload := worker.ReceiptPayload{TransactionID: rc.TransactionID.String()}
	if rc.CustomerEmail != nil {
		payload.CustomerEmail = *rc.CustomerEmail
	}
	if err := s.dispatcher.EnqueueReceipt(ctx, payload); err != nil {
		return apperror.Internal("enqueueing receipt job", err)
	}
	return nil
}

func receiptToResponse(rc *model.Receipt) *dto.ReceiptResponse {
	return &dto.ReceiptResponse{
		ID:            rc.ID.String(),
		TransactionID: rc.TransactionID.String(),
		CustomerEmail: rc.CustomerEmail,
		Status:        rc.Status,
		PDFPath:       rc.PDFPath,
		RetryCount:    rc.RetryCount,
		LastError:     rc.LastError,
		CreatedAt:     rc.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
