package dto

import "github.com/shopspring/decimal"

// ─── Filter ─────────────────────────────────────────────────────────────────

// SalesReportFilter is bound from the query string of GET /v1/reports/sales.
type SalesReportFilter struct {
	RegisterID string `form:"register_id" validate:"omitempty,uuid"`
	DateFrom   string `form:"date_from"` // YYYY-MM-DD
	DateTo     string `form:"date_to"`   // YYYY-MM-DD
}

type SessionHistoryFilter struct {
	RegisterID string `form:"register_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// PaymentBreakdown sums amounts tendered per payment method.
type PaymentBreakdown struct {
	Cash     decimal.Decimal `json:"cash"`
	Debit    decimal.Decimal `json:"debit"`
	Credit   decimal.Decimal `json:"credit"`
	Transfer decimal.Decimal `json:"transfer"`
	Total    decimal.Decimal `json:"total"`
}

// SessionReportResponse is the X/Z report for a single session.
type SessionReportResponse struct {
	Session  SessionResponse  `json:"session"`
	Payments PaymentBreakdown `json:"payments"`
	// TopItems lists the best-selling lines of the session.
	TopItems []ReportLineItem `json:"top_items"`
}

type ReportLineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Total       decimal.Decimal `json:"total"`
}

// SalesReportResponse aggregates completed transactions over a period.
type SalesReportResponse struct {
	DateFrom         string           `json:"date_from"`
	DateTo           string           `json:"date_to"`
	GrossSales       decimal.Decimal  `json:"gross_sales"`
	TotalRefunds     decimal.Decimal  `json:"total_refunds"`
	TotalDiscount    decimal.Decimal  `json:"total_discount"`
	TotalTax         decimal.Decimal  `json:"total_tax"`
	NetSales         decimal.Decimal  `json:"net_sales"`
	TransactionCount int              `json:"transaction_count"`
	RefundCount      int              `json:"refund_count"`
	Payments         PaymentBreakdown `json:"payments"`
	TopItems         []ReportLineItem `json:"top_items"`
}
