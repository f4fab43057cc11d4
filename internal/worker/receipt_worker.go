package worker

// receipt_worker.go
// Processes receipt jobs from QueueReceipt: renders the PDF for a completed
// transaction and, when the customer left an email, hands off to the email
// queue. Rendering failures are recorded on the receipt row so the retry
// cron can pick them up.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// MaxReceiptRetries bounds automatic re-attempts before a receipt lands in
// the DLQ.
const MaxReceiptRetries = 5

// ReceiptPayload is the job envelope sent to QueueReceipt.
type ReceiptPayload struct {
	TransactionID string `json:"transaction_id"`
	CustomerEmail string `json:"customer_email,omitempty"`
}

// ReceiptWorker renders receipt PDFs for completed transactions.
type ReceiptWorker struct {
	transactions repository.TransactionRepository
	receipts     repository.ReceiptRepository
	dispatcher   *Dispatcher
	pdfOptions   infra.ReceiptPDFOptions
}

func NewReceiptWorker(
	transactions repository.TransactionRepository,
	receipts repository.ReceiptRepository,
	dispatcher *Dispatcher,
	pdfOptions infra.ReceiptPDFOptions,
) *ReceiptWorker {
	return &ReceiptWorker{
		transactions: transactions,
		receipts:     receipts,
		dispatcher:   dispatcher,
		pdfOptions:   pdfOptions,
	}
}

// Process handles a single receipt job:
//  1. Parse ReceiptPayload from the job envelope
//  2. Fetch the transaction (with items and payments)
//  3. Find or create the receipt record
//  4. Render the PDF with bounded in-process retries
//  5. Enqueue the email job when a customer address was provided
func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload ReceiptPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return
	}

	txID, err := uuid.Parse(payload.TransactionID)
	if err != nil {
		log.Error().Str("transaction_id", payload.TransactionID).Msg("receipt_worker: invalid transaction_id")
		return
	}

	txn, err := w.transactions.FindByID(ctx, txID)
	if err != nil {
		log.Error().Err(err).Str("transaction_id", payload.TransactionID).Msg("receipt_worker: transaction not found")
		return
	}

	receipt, err := w.receipts.FindByTransactionID(ctx, txID)
	if err != nil {
		receipt = &model.Receipt{TransactionID: txID, Status: model.ReceiptPending}
		if payload.CustomerEmail != "" {
			email := payload.CustomerEmail
			receipt.CustomerEmail = &email
		}
		if err := w.receipts.Create(ctx, receipt); err != nil {
			log.Error().Err(err).Str("transaction_id", payload.TransactionID).Msg("receipt_worker: failed to create receipt")
			return
		}
	}

	// In-process retries cover transient filesystem errors; anything that
	// survives them is scheduled for the retry cron.
	var pdfPath string
	renderErr := withRetry(ctx, 3, func(attempt int) error {
		path, err := infra.GenerateReceiptPDF(txn, w.pdfOptions)
		if err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("transaction", txn.Number).
				Msg("receipt_worker: PDF attempt failed, retrying")
			return err
		}
		pdfPath = path
		return nil
	})

	if renderErr != nil {
		w.scheduleRetry(ctx, receipt, fmt.Sprintf("PDF rendering failed: %v", renderErr))
		return
	}

	receipt.PDFPath = &pdfPath
	receipt.Status = model.ReceiptRendered
	receipt.LastError = nil
	receipt.NextRetryAt = nil
	if err := w.receipts.Update(ctx, receipt); err != nil {
		log.Error().Err(err).Str("transaction", txn.Number).Msg("receipt_worker: failed to update receipt")
		return
	}
	log.Info().Str("pdf", pdfPath).Str("transaction", txn.Number).Msg("receipt_worker: PDF rendered")

	email := payload.CustomerEmail
	if email == "" && receipt.CustomerEmail != nil {
		email = *receipt.CustomerEmail
	}
	if email == "" {
		return
	}

	emailJob := EmailPayload{
		ReceiptID: receipt.ID.String(),
		ToEmail:   email,
		Subject:   fmt.Sprintf("Your receipt %s", txn.Number),
		Body:      fmt.Sprintf("Thank you for your purchase.\nTotal: %s %s", w.pdfOptions.Currency, txn.Total.StringFixed(2)),
		PDFPath:   pdfPath,
	}
	if err := w.dispatcher.EnqueueEmail(ctx, emailJob); err != nil {
		log.Warn().Err(err).Str("email", email).Msg("receipt_worker: failed to enqueue email")
		return
	}
	log.Info().Str("email", email).Str("transaction", txn.Number).Msg("receipt_worker: email job enqueued")
}

func (w *ReceiptWorker) scheduleRetry(ctx context.Context, receipt *model.Receipt, reason string) {
	receipt.Status = model.ReceiptError
	receipt.RetryCount++
	receipt.LastError = &reason
	if receipt.RetryCount >= MaxReceiptRetries {
		receipt.NextRetryAt = nil
	} else {
		next := time.Now().Add(computeRetryBackoff(receipt.RetryCount))
		receipt.NextRetryAt = &next
	}
	if err := w.receipts.Update(ctx, receipt); err != nil {
		log.Error().Err(err).Str("receipt_id", receipt.ID.String()).Msg("receipt_worker: failed to record retry state")
	}
	log.Error().
		Str("receipt_id", receipt.ID.String()).
		Int("retry_count", receipt.RetryCount).
		Str("reason", reason).
		Msg("receipt_worker: rendering failed")
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

// computeRetryBackoff returns the cron delay before the nth re-attempt:
// 1m, 2m, 4m … capped at 30m.
func computeRetryBackoff(retryCount int) time.Duration {
	d := time.Duration(1<<uint(retryCount-1)) * time.Minute
	if d > 30*time.Minute {
		return 30 * time.Minute
	}
	return d
}
