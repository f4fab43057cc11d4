package service

import (
	"context"
	"fmt"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"
	"tillpos/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransactionService interface {
	Create(ctx context.Context, userID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error)
	Refund(ctx context.Context, userID uuid.UUID, originalID uuid.UUID, req dto.RefundTransactionRequest) (*dto.TransactionResponse, error)
	Void(ctx context.Context, userID uuid.UUID, id uuid.UUID, reason string) error
	Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error)
	List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
}

type transactionService struct {
	repo       repository.TransactionRepository
	sessions   repository.SessionRepository
	users      repository.UserRepository
	ledger     InventoryLedger
	calc       *Calculator
	dispatcher *worker.Dispatcher
}

func NewTransactionService(
	repo repository.TransactionRepository,
	sessions repository.SessionRepository,
	users repository.UserRepository,
	ledger InventoryLedger,
	calc *Calculator,
	dispatcher *worker.Dispatcher,
) TransactionService {
	return &transactionService{
		repo:       repo,
		sessions:   sessions,
		users:      users,
		ledger:     ledger,
		calc:       calc,
		dispatcher: dispatcher,
	}
}

// ── Create ───────────────────────────────────────────────────────────────────
// All-or-nothing at the validation boundary:
//   1. Validate + price every line (calculator).
//   2. Check availability for EVERY item — the first shortage aborts with
//      nothing persisted and no stock touched.
//   3. Persist the transaction with a generated number.
//   4. Decrement stock per item. A failure here, after the record committed,
//      is an Inconsistency: the record stays (it is the source of truth that
//      the sale happened) and the error is surfaced for manual reconciliation.
//   5. Fold totals into the session, update operator metrics, enqueue receipt.

func (s *transactionService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateTransactionRequest) (*dto.TransactionResponse, error) {
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		return nil, apperror.InvalidInput("invalid session id").WithDetail("session_id", req.SessionID)
	}

	session, err := s.requireOpenSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	cart, err := s.calc.Price(ctx, req.Items, req.PaymentMethod, req.Payments)
	if err != nil {
		return nil, err
	}

	// Advisory availability pass over the whole cart before any mutation.
	for _, line := range cart.Lines {
		avail, err := s.ledger.CheckAvailability(ctx, line.ProductID, line.VariantID, line.Quantity)
		if err != nil {
			return nil, err
		}
		if !avail.Available {
			return nil, apperror.InsufficientStock(avail.ProductName, line.Quantity, avail.AvailableQuantity)
		}
	}

	txn := &model.Transaction{
		SessionID:     sessionID,
		RegisterID:    session.RegisterID,
		Type:          model.TxSale,
		Status:        model.TxCompleted,
		Subtotal:      cart.Subtotal,
		TotalDiscount: cart.TotalDiscount,
		TotalTax:      cart.TotalTax,
		Total:         cart.Total,
		PaymentMethod: req.PaymentMethod,
		AmountPaid:    cart.AmountPaid,
		Change:        cart.Change,
		CreatedBy:     userID,
	}
	for _, line := range cart.Lines {
		txn.Items = append(txn.Items, model.TransactionItem{
			ProductID:   line.ProductID,
			VariantID:   line.VariantID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Discount:    line.Discount,
			Tax:         line.Tax,
			Total:       line.Total,
		})
	}
	for _, pay := range req.Payments {
		txn.Payments = append(txn.Payments, model.TransactionPayment{Method: pay.Method, Amount: pay.Amount})
	}

	persistErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextNumber(ctx, orDB(tx, s.repo.DB()))
		if err != nil {
			return err
		}
		txn.Number = number
		return s.repo.Create(ctx, orDB(tx, s.repo.DB()), txn)
	})
	if persistErr != nil {
		return nil, apperror.Internal("persisting transaction", persistErr)
	}

	// Stock decrement is a separate step against the ledger collaborator:
	// the transaction record is already the truth, so failures here do not
	// roll it back — they become an Inconsistency for manual reconciliation.
	inconsistency := s.applyStock(ctx, txn, cart.Lines, model.MovePosSale, false)

	s.foldIntoSession(ctx, session, txn)

	if err := s.users.AddPerformance(ctx, userID, txn.Total); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("updating operator metrics failed")
	}

	if s.dispatcher != nil {
		payload := worker.ReceiptPayload{TransactionID: txn.ID.String()}
		if req.CustomerEmail != nil && *req.CustomerEmail != "" {
			payload.CustomerEmail = *req.CustomerEmail
		}
		if err := s.dispatcher.EnqueueReceipt(ctx, payload); err != nil {
			log.Warn().Err(err).Str("transaction", txn.Number).Msg("enqueueing receipt failed")
		}
	}

	if inconsistency != nil {
		return nil, inconsistency
	}
	return transactionToResponse(txn), nil
}

// ── Refund ───────────────────────────────────────────────────────────────────
// Refunds are recorded against the CURRENT open session of the original
// transaction's register, which may differ from the session that made the
// sale. Returned quantities are explicit per line; full quantities are the
// default only when neither amount nor items were supplied.

func (s *transactionService) Refund(ctx context.Context, userID uuid.UUID, originalID uuid.UUID, req dto.RefundTransactionRequest) (*dto.TransactionResponse, error) {
	original, err := s.repo.FindByID(ctx, originalID)
	if err != nil {
		return nil, apperror.NotFound("transaction", originalID.String()).WithCause(err)
	}
	if original.Type != model.TxSale {
		return nil, apperror.InvalidState("only sales can be refunded").
			WithDetail("transaction_id", originalID.String())
	}
	if original.Status != model.TxCompleted {
		return nil, apperror.InvalidState(fmt.Sprintf("transaction is already %s", original.Status)).
			WithDetail("transaction_id", originalID.String()).
			WithDetail("status", original.Status)
	}

	session, err := s.sessions.FindOpenByRegister(ctx, original.RegisterID)
	if err != nil || session == nil {
		return nil, apperror.InvalidState("no open session on the original register").
			WithDetail("register_id", original.RegisterID.String())
	}

	lines, err := resolveRefundLines(original, req)
	if err != nil {
		return nil, err
	}

	var subtotal, discount, tax, total decimal.Decimal
	for _, l := range lines {
		qty := decimal.NewFromInt(int64(l.Quantity))
		subtotal = subtotal.Add(l.UnitPrice.Mul(qty))
		discount = discount.Add(l.Discount)
		tax = tax.Add(l.Tax)
		total = total.Add(l.Total)
	}

	// Clamp: a refund can never exceed what was originally charged.
	if req.Amount != nil {
		amount := *req.Amount
		if amount.LessThanOrEqual(decimal.Zero) {
			return nil, apperror.InvalidInput("refund amount must be positive")
		}
		if amount.GreaterThan(original.Total) {
			amount = original.Total
		}
		total = amount
	}
	if total.GreaterThan(original.Total) {
		total = original.Total
	}

	reason := req.Reason
	origID := original.ID
	refund := &model.Transaction{
		SessionID:             session.ID,
		RegisterID:            original.RegisterID,
		Type:                  model.TxRefund,
		Status:                model.TxCompleted,
		Subtotal:              subtotal.Neg(),
		TotalDiscount:         discount.Neg(),
		TotalTax:              tax.Neg(),
		Total:                 total.Neg(),
		PaymentMethod:         original.PaymentMethod,
		AmountPaid:            total.Neg(),
		Change:                decimal.Zero,
		OriginalTransactionID: &origID,
		RefundReason:          &reason,
		CreatedBy:             userID,
	}
	for _, l := range lines {
		refund.Items = append(refund.Items, model.TransactionItem{
			ProductID:   l.ProductID,
			VariantID:   l.VariantID,
			ProductName: l.ProductName,
			Quantity:    -l.Quantity,
			UnitPrice:   l.UnitPrice,
			Discount:    l.Discount.Neg(),
			Tax:         l.Tax.Neg(),
			Total:       l.Total.Neg(),
		})
	}
	refund.Payments = append(refund.Payments, model.TransactionPayment{
		Method: original.PaymentMethod,
		Amount: total.Neg(),
	})

	persistErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		number, err := s.repo.NextNumber(ctx, orDB(tx, s.repo.DB()))
		if err != nil {
			return err
		}
		refund.Number = number
		if err := s.repo.Create(ctx, orDB(tx, s.repo.DB()), refund); err != nil {
			return err
		}
		return s.repo.UpdateStatusTx(orDB(tx, s.repo.DB()), original.ID, model.TxRefunded)
	})
	if persistErr != nil {
		return nil, apperror.Internal("persisting refund", persistErr)
	}

	inconsistency := s.applyStock(ctx, refund, lines, model.MovePosRefund, true)

	s.foldIntoSession(ctx, session, refund)

	if inconsistency != nil {
		return nil, inconsistency
	}
	return transactionToResponse(refund), nil
}

// ── Void ─────────────────────────────────────────────────────────────────────
// Same-session correction: the session that recorded the sale must still be
// open. Restores stock and removes the sale from the session aggregates.

func (s *transactionService) Void(ctx context.Context, userID uuid.UUID, id uuid.UUID, reason string) error {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return apperror.NotFound("transaction", id.String()).WithCause(err)
	}
	if txn.Type != model.TxSale {
		return apperror.InvalidState("only sales can be voided")
	}
	if txn.Status != model.TxCompleted {
		return apperror.InvalidState(fmt.Sprintf("transaction is already %s", txn.Status)).
			WithDetail("status", txn.Status)
	}

	session, err := s.requireOpenSession(ctx, txn.SessionID)
	if err != nil {
		return apperror.InvalidState("voids are only allowed while the original session is open").
			WithCause(err)
	}

	if err := s.repo.UpdateStatusTx(s.repo.DB(), id, model.TxVoided); err != nil {
		return apperror.Internal("voiding transaction", err)
	}
	txn.Status = model.TxVoided

	var lines []PricedLine
	for _, item := range txn.Items {
		lines = append(lines, PricedLine{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
		})
	}
	notes := reason
	inconsistency := s.restoreStock(ctx, txn, lines, model.MovePosVoid, &notes)

	// Voids invalidate the incremental counters; rebuild from scratch.
	if txs, err := s.repo.ListBySession(ctx, session.ID); err == nil {
		RecomputeTotals(txs).StampSession(session)
		if err := s.sessions.Update(ctx, session); err != nil {
			log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("updating session totals failed")
		}
	}

	log.Info().
		Str("transaction", txn.Number).
		Str("voided_by", userID.String()).
		Str("reason", reason).
		Msg("transaction voided")

	return inconsistency
}

// ── Queries ──────────────────────────────────────────────────────────────────

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (*dto.TransactionResponse, error) {
	txn, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NotFound("transaction", id.String()).WithCause(err)
	}
	return transactionToResponse(txn), nil
}

func (s *transactionService) List(ctx context.Context, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	txs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, apperror.Internal("listing transactions", err)
	}
	items := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, *transactionToResponse(&txs[i]))
	}
	return &dto.TransactionListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func (s *transactionService) requireOpenSession(ctx context.Context, sessionID uuid.UUID) (*model.Session, error) {
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

// applyStock walks every line and moves stock through the ledger. increase
// selects restore (refund) vs drain (sale). Per-item failures do not stop the
// walk; they are collected into one Inconsistency naming each failed item.
func (s *transactionService) applyStock(ctx context.Context, txn *model.Transaction, lines []PricedLine, reason string, increase bool) error {
	var failed []map[string]any
	for _, line := range lines {
		meta := StockMeta{Reason: reason, Reference: txn.Number}
		var err error
		if increase {
			err = s.ledger.IncreaseStock(ctx, line.ProductID, line.VariantID, line.Quantity, meta)
		} else {
			err = s.ledger.DecreaseStock(ctx, line.ProductID, line.VariantID, line.Quantity, meta)
		}
		if err != nil {
			log.Error().
				Err(err).
				Str("transaction", txn.Number).
				Str("product_id", line.ProductID.String()).
				Int("quantity", line.Quantity).
				Str("reason", reason).
				Msg("stock mutation failed after transaction commit")
			failed = append(failed, map[string]any{
				"product_id": line.ProductID.String(),
				"quantity":   line.Quantity,
				"error":      err.Error(),
			})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return apperror.Inconsistency("transaction recorded but inventory update failed for some items").
		WithDetail("transaction_id", txn.ID.String()).
		WithDetail("transaction_number", txn.Number).
		WithDetail("items", failed)
}

func (s *transactionService) restoreStock(ctx context.Context, txn *model.Transaction, lines []PricedLine, reason string, notes *string) error {
	var failed []map[string]any
	for _, line := range lines {
		meta := StockMeta{Reason: reason, Reference: txn.Number, Notes: notes}
		if err := s.ledger.IncreaseStock(ctx, line.ProductID, line.VariantID, line.Quantity, meta); err != nil {
			log.Error().
				Err(err).
				Str("transaction", txn.Number).
				Str("product_id", line.ProductID.String()).
				Msg("stock restore failed")
			failed = append(failed, map[string]any{
				"product_id": line.ProductID.String(),
				"error":      err.Error(),
			})
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return apperror.Inconsistency("status updated but stock restore failed for some items").
		WithDetail("transaction_id", txn.ID.String()).
		WithDetail("items", failed)
}

// foldIntoSession applies one transaction to the session's live counters.
// The recompute at close corrects any drift, so failures here only warn.
func (s *transactionService) foldIntoSession(ctx context.Context, session *model.Session, txn *model.Transaction) {
	totals := SessionTotals{
		GrossSales:       session.GrossSales,
		TotalRefunds:     session.TotalRefunds,
		TotalDiscount:    session.TotalDiscount,
		TotalTax:         session.TotalTax,
		NetSales:         session.NetSales,
		TransactionCount: session.TransactionCount,
	}
	totals.Apply(txn)
	totals.StampSession(session)
	if err := s.sessions.Update(ctx, session); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Msg("updating session totals failed")
	}
}

// resolveRefundLines maps the refund request onto the original line items.
//   - no items, no amount  → full quantities of every original line
//   - items supplied       → each must match an original line, qty ≤ sold qty;
//     line money is prorated by quantity
//   - amount without items → rejected, because restoring full quantities for a
//     partial amount would over-restore inventory
func resolveRefundLines(original *model.Transaction, req dto.RefundTransactionRequest) ([]PricedLine, error) {
	if len(req.Items) == 0 {
		if req.Amount != nil {
			return nil, apperror.InvalidInput("partial refund requires the returned items to be listed").
				WithDetail("transaction_id", original.ID.String())
		}
		lines := make([]PricedLine, 0, len(original.Items))
		for _, item := range original.Items {
			lines = append(lines, PricedLine{
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Discount:    item.Discount,
				Tax:         item.Tax,
				Total:       item.Total,
			})
		}
		return lines, nil
	}

	lines := make([]PricedLine, 0, len(req.Items))
	for _, ri := range req.Items {
		pid, err := uuid.Parse(ri.ProductID)
		if err != nil {
			return nil, apperror.InvalidInput("invalid product id in refund items")
		}
		orig := findOriginalLine(original, pid, ri.VariantID)
		if orig == nil {
			return nil, apperror.InvalidInput("refund item was not part of the original transaction").
				WithDetail("product_id", ri.ProductID)
		}
		if ri.Quantity > orig.Quantity {
			return nil, apperror.InvalidInput("refund quantity exceeds sold quantity").
				WithDetail("product_id", ri.ProductID).
				WithDetail("sold", orig.Quantity).
				WithDetail("requested", ri.Quantity)
		}

		ratio := decimal.NewFromInt(int64(ri.Quantity)).Div(decimal.NewFromInt(int64(orig.Quantity)))
		lines = append(lines, PricedLine{
			ProductID:   orig.ProductID,
			VariantID:   orig.VariantID,
			ProductName: orig.ProductName,
			Quantity:    ri.Quantity,
			UnitPrice:   orig.UnitPrice,
			Discount:    orig.Discount.Mul(ratio).Round(2),
			Tax:         orig.Tax.Mul(ratio).Round(2),
			Total:       orig.Total.Mul(ratio).Round(2),
		})
	}
	return lines, nil
}

func findOriginalLine(original *model.Transaction, productID uuid.UUID, variantID *string) *model.TransactionItem {
	for i := range original.Items {
		item := &original.Items[i]
		if item.ProductID != productID {
			continue
		}
		if variantID == nil && item.VariantID == nil {
			return item
		}
		if variantID != nil && item.VariantID != nil && item.VariantID.String() == *variantID {
			return item
		}
	}
	return nil
}

func transactionToResponse(t *model.Transaction) *dto.TransactionResponse {
	items := make([]dto.TransactionItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		ir := dto.TransactionItemResponse{
			ProductID:   item.ProductID.String(),
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			Tax:         item.Tax,
			Total:       item.Total,
		}
		if item.VariantID != nil {
			v := item.VariantID.String()
			ir.VariantID = &v
		}
		items = append(items, ir)
	}
	payments := make([]dto.PaymentRequest, 0, len(t.Payments))
	for _, p := range t.Payments {
		payments = append(payments, dto.PaymentRequest{Method: p.Method, Amount: p.Amount})
	}
	resp := &dto.TransactionResponse{
		ID:            t.ID.String(),
		Number:        t.Number,
		SessionID:     t.SessionID.String(),
		RegisterID:    t.RegisterID.String(),
		Type:          t.Type,
		Status:        t.Status,
		Items:         items,
		Subtotal:      t.Subtotal,
		TotalDiscount: t.TotalDiscount,
		TotalTax:      t.TotalTax,
		Total:         t.Total,
		PaymentMethod: t.PaymentMethod,
		Payments:      payments,
		AmountPaid:    t.AmountPaid,
		Change:        t.Change,
		RefundReason:  t.RefundReason,
		CreatedAt:     t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if t.OriginalTransactionID != nil {
		v := t.OriginalTransactionID.String()
		resp.OriginalTransactionID = &v
	}
	return resp
}
