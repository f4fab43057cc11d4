package worker

// email_worker.go
// Processes email jobs from QueueEmail. Sends PDF receipts to customer
// addresses via SMTP, behind the circuit breaker so a downed relay does not
// stall the pool.

import (
	"context"
	"encoding/json"
	"time"

	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// EmailPayload is the job envelope sent to QueueEmail.
type EmailPayload struct {
	ReceiptID string `json:"receipt_id"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path"`
}

// EmailWorker delivers receipt PDFs over SMTP.
type EmailWorker struct {
	mailer   *infra.Mailer
	cb       *infra.CircuitBreaker
	receipts repository.ReceiptRepository
}

func NewEmailWorker(mailer *infra.Mailer, cb *infra.CircuitBreaker, receipts repository.ReceiptRepository) *EmailWorker {
	return &EmailWorker{mailer: mailer, cb: cb, receipts: receipts}
}

// Process sends an email with the PDF receipt as attachment. Failures are
// recorded on the receipt row for the retry cron.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload EmailPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("email_worker: invalid payload")
		return
	}
	if payload.ToEmail == "" {
		log.Warn().Msg("email_worker: empty to_email — skipping")
		return
	}

	sendErr := w.cb.Execute(func() error {
		return w.mailer.SendReceipt(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath)
	})
	if sendErr != nil {
		log.Error().Err(sendErr).Str("to", payload.ToEmail).Msg("email_worker: failed to send email")
		w.recordFailure(ctx, payload.ReceiptID, sendErr)
		return
	}

	w.markSent(ctx, payload.ReceiptID)
	log.Info().Str("to", payload.ToEmail).Msg("email_worker: receipt sent")
}

func (w *EmailWorker) markSent(ctx context.Context, receiptID string) {
	id, err := uuid.Parse(receiptID)
	if err != nil {
		return
	}
	receipt, err := w.receipts.FindByID(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("receipt_id", receiptID).Msg("email_worker: receipt not found")
		return
	}
	receipt.Status = model.ReceiptSent
	receipt.LastError = nil
	receipt.NextRetryAt = nil
	if err := w.receipts.Update(ctx, receipt); err != nil {
		log.Warn().Err(err).Str("receipt_id", receiptID).Msg("email_worker: failed to mark receipt sent")
	}
}

func (w *EmailWorker) recordFailure(ctx context.Context, receiptID string, cause error) {
	id, err := uuid.Parse(receiptID)
	if err != nil {
		return
	}
	receipt, err := w.receipts.FindByID(ctx, id)
	if err != nil {
		return
	}
	receipt.Status = model.ReceiptError
	receipt.RetryCount++
	msg := cause.Error()
	receipt.LastError = &msg
	if receipt.RetryCount >= MaxReceiptRetries {
		receipt.NextRetryAt = nil
	} else {
		next := time.Now().Add(computeRetryBackoff(receipt.RetryCount))
		receipt.NextRetryAt = &next
	}
	if err := w.receipts.Update(ctx, receipt); err != nil {
		log.Error().Err(err).Str("receipt_id", receiptID).Msg("email_worker: failed to record retry state")
	}
}
