package service

import (
	"tillpos/internal/model"

	"github.com/shopspring/decimal"
)

// SessionTotals carries the running per-session aggregates. Incremental
// Apply calls keep a live session current; RecomputeTotals from the full
// transaction list is the authoritative figure and is what close uses —
// incremental updates are an optimization, never the source of truth.
type SessionTotals struct {
	GrossSales       decimal.Decimal
	TotalRefunds     decimal.Decimal
	TotalDiscount    decimal.Decimal
	TotalTax         decimal.Decimal
	NetSales         decimal.Decimal
	TransactionCount int
}

// ZeroTotals returns an explicitly zeroed accumulator (decimal.Decimal's zero
// value is usable, but being explicit keeps stamping code honest).
func ZeroTotals() SessionTotals {
	return SessionTotals{
		GrossSales:    decimal.Zero,
		TotalRefunds:  decimal.Zero,
		TotalDiscount: decimal.Zero,
		TotalTax:      decimal.Zero,
		NetSales:      decimal.Zero,
	}
}

// Apply folds one transaction into the totals. Voided transactions are
// ignored: a void restores stock and removes the sale from every aggregate.
func (t *SessionTotals) Apply(tx *model.Transaction) {
	if tx.Status == model.TxVoided {
		return
	}
	switch tx.Type {
	case model.TxSale:
		t.GrossSales = t.GrossSales.Add(tx.Total)
	case model.TxRefund:
		t.TotalRefunds = t.TotalRefunds.Add(tx.Total.Abs())
	}
	// Refund rows carry negative discount/tax, so plain addition nets them out.
	t.TotalDiscount = t.TotalDiscount.Add(tx.TotalDiscount)
	t.TotalTax = t.TotalTax.Add(tx.TotalTax)
	t.TransactionCount++
	t.NetSales = t.GrossSales.Sub(t.TotalRefunds)
}

// RecomputeTotals rebuilds the aggregates from scratch by scanning every
// transaction of a session. Calling it twice over the same list yields
// identical results.
func RecomputeTotals(txs []model.Transaction) SessionTotals {
	totals := ZeroTotals()
	for i := range txs {
		totals.Apply(&txs[i])
	}
	return totals
}

// StampSession writes the totals onto a session model.
func (t SessionTotals) StampSession(s *model.Session) {
	s.GrossSales = t.GrossSales
	s.TotalRefunds = t.TotalRefunds
	s.TotalDiscount = t.TotalDiscount
	s.TotalTax = t.TotalTax
	s.NetSales = t.NetSales
	s.TransactionCount = t.TransactionCount
}
