package worker

// retry_cron.go
// Background goroutine that periodically re-enqueues receipts stuck in
// status='error' with a next_retry_at in the past. The email leg goes through
// the circuit breaker state check to avoid hammering a downed SMTP relay.

import (
	"context"
	"fmt"
	"time"

	"tillpos/internal/infra"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const retryTickInterval = 30 * time.Second

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Receipts   repository.ReceiptRepository
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
	RDB        *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s,
// queries retryable receipts, and re-enqueues them. It respects the context
// for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	receipts, err := cfg.Receipts.ListRetryable(ctx, time.Now(), MaxReceiptRetries)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query retryable receipts")
		return
	}
	if len(receipts) == 0 {
		return
	}

	log.Info().Int("count", len(receipts)).Msg("retry_cron: re-enqueueing receipts")

	for i := range receipts {
		receipt := &receipts[i]

		// PDF never rendered: go back through the receipt queue.
		if receipt.PDFPath == nil {
			payload := ReceiptPayload{TransactionID: receipt.TransactionID.String()}
			if receipt.CustomerEmail != nil {
				payload.CustomerEmail = *receipt.CustomerEmail
			}
			if err := cfg.Dispatcher.EnqueueReceipt(ctx, payload); err != nil {
				log.Error().Err(err).Str("receipt_id", receipt.ID.String()).Msg("retry_cron: re-enqueue failed")
			}
			continue
		}

		// PDF exists, so the failure was delivery. Skip while the breaker is
		// open — the tick after recovery will catch these rows again.
		if receipt.CustomerEmail == nil || *receipt.CustomerEmail == "" {
			markExhausted(ctx, cfg, receipt, "no customer email on errored receipt")
			continue
		}
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker is open, skipping email retries")
			return
		}

		payload := EmailPayload{
			ReceiptID: receipt.ID.String(),
			ToEmail:   *receipt.CustomerEmail,
			Subject:   "Your receipt",
			Body:      "Please find your receipt attached.",
			PDFPath:   *receipt.PDFPath,
		}
		if err := cfg.Dispatcher.EnqueueEmail(ctx, payload); err != nil {
			log.Error().Err(err).Str("receipt_id", receipt.ID.String()).Msg("retry_cron: re-enqueue failed")
			continue
		}

		if receipt.RetryCount+1 >= MaxReceiptRetries {
			// Last shot just went out; if it fails too, the worker clears
			// next_retry_at and the row drops out of ListRetryable. Flag it
			// for the operators either way.
			log.Warn().
				Str("receipt_id", receipt.ID.String()).
				Int("retry_count", receipt.RetryCount).
				Msg("retry_cron: final retry attempt enqueued")
		}
	}
}

func markExhausted(ctx context.Context, cfg RetryCronConfig, receipt *model.Receipt, reason string) {
	receipt.Status = model.ReceiptError
	receipt.NextRetryAt = nil
	msg := reason
	receipt.LastError = &msg
	if err := cfg.Receipts.Update(ctx, receipt); err != nil {
		log.Error().Err(err).Str("receipt_id", receipt.ID.String()).Msg("retry_cron: failed to update receipt")
	}
	payload := fmt.Sprintf(`{"receipt_id":"%s","transaction_id":"%s"}`, receipt.ID, receipt.TransactionID)
	SendToDLQ(ctx, cfg.RDB, QueueReceipt, "receipt", []byte(payload), reason, receipt.RetryCount)
}
