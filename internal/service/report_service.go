package service

import (
	"context"
	"sort"

	"tillpos/internal/apperror"
	"tillpos/internal/dto"
	"tillpos/internal/model"
	"tillpos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const topItemsLimit = 5

// ReportService produces session (X/Z) and period sales reports. Reports are
// always aggregated from the transaction log, never from the session's live
// counters.
type ReportService interface {
	SessionReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error)
	SalesReport(ctx context.Context, filter dto.SalesReportFilter) (*dto.SalesReportResponse, error)
}

type reportService struct {
	sessions     repository.SessionRepository
	transactions repository.TransactionRepository
}

func NewReportService(sessions repository.SessionRepository, transactions repository.TransactionRepository) ReportService {
	return &reportService{sessions: sessions, transactions: transactions}
}

func (s *reportService) SessionReport(ctx context.Context, sessionID uuid.UUID) (*dto.SessionReportResponse, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, apperror.NotFound("session", sessionID.String()).WithCause(err)
	}
	txs, err := s.transactions.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, apperror.Internal("listing session transactions", err)
	}

	// Report totals come from the log, even while the session is open.
	totals := RecomputeTotals(txs)
	totals.StampSession(session)

	return &dto.SessionReportResponse{
		Session:  *sessionToResponse(session),
		Payments: paymentBreakdown(txs),
		TopItems: topItems(txs),
	}, nil
}

func (s *reportService) SalesReport(ctx context.Context, filter dto.SalesReportFilter) (*dto.SalesReportResponse, error) {
	var registerID *uuid.UUID
	if filter.RegisterID != "" {
		id, err := uuid.Parse(filter.RegisterID)
		if err != nil {
			return nil, apperror.InvalidInput("invalid register id")
		}
		registerID = &id
	}

	txs, err := s.transactions.ListForReport(ctx, registerID, filter.DateFrom, filter.DateTo)
	if err != nil {
		return nil, apperror.Internal("querying transactions for report", err)
	}

	totals := RecomputeTotals(txs)
	refunds := 0
	for i := range txs {
		if txs[i].Type == model.TxRefund {
			refunds++
		}
	}

	return &dto.SalesReportResponse{
		DateFrom:         filter.DateFrom,
		DateTo:           filter.DateTo,
		GrossSales:       totals.GrossSales,
		TotalRefunds:     totals.TotalRefunds,
		TotalDiscount:    totals.TotalDiscount,
		TotalTax:         totals.TotalTax,
		NetSales:         totals.NetSales,
		TransactionCount: totals.TransactionCount,
		RefundCount:      refunds,
		Payments:         paymentBreakdown(txs),
		TopItems:         topItems(txs),
	}, nil
}

// paymentBreakdown sums tendered amounts per method over non-voided
// transactions. Refund payments are negative, so refunds reduce the method
// they were returned through.
func paymentBreakdown(txs []model.Transaction) dto.PaymentBreakdown {
	var b dto.PaymentBreakdown
	for i := range txs {
		if txs[i].Status == model.TxVoided {
			continue
		}
		for _, p := range txs[i].Payments {
			switch p.Method {
			case "cash":
				// Cash change never leaves the drawer as tendered amount.
				amount := p.Amount
				if txs[i].Type == model.TxSale {
					amount = amount.Sub(txs[i].Change)
				}
				b.Cash = b.Cash.Add(amount)
			case "debit":
				b.Debit = b.Debit.Add(p.Amount)
			case "credit":
				b.Credit = b.Credit.Add(p.Amount)
			case "transfer":
				b.Transfer = b.Transfer.Add(p.Amount)
			}
		}
	}
	b.Total = b.Cash.Add(b.Debit).Add(b.Credit).Add(b.Transfer)
	return b
}

// topItems nets quantities per product over non-voided transactions. Refund
// lines carry negative quantities so returned goods drop out naturally.
func topItems(txs []model.Transaction) []dto.ReportLineItem {
	type agg struct {
		name  string
		qty   int
		total decimal.Decimal
	}
	byProduct := make(map[uuid.UUID]*agg)
	for i := range txs {
		if txs[i].Status == model.TxVoided {
			continue
		}
		for _, item := range txs[i].Items {
			a, ok := byProduct[item.ProductID]
			if !ok {
				a = &agg{name: item.ProductName}
				byProduct[item.ProductID] = a
			}
			a.qty += item.Quantity
			a.total = a.total.Add(item.Total)
		}
	}

	items := make([]dto.ReportLineItem, 0, len(byProduct))
	for id, a := range byProduct {
		if a.qty <= 0 {
			continue
		}
		items = append(items, dto.ReportLineItem{
			ProductID:   id.String(),
			ProductName: a.name,
			Quantity:    a.qty,
			Total:       a.total,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Quantity != items[j].Quantity {
			return items[i].Quantity > items[j].Quantity
		}
		return items[i].ProductName < items[j].ProductName
	})
	if len(items) > topItemsLimit {
		items = items[:topItemsLimit]
	}
	return items
}
