package core

import "github.com/shopspring/decimal"

// CategoryTotal is one row of the summary category breakdown.
type CategoryTotal struct {
	Category string          `json:"category"`
	Total    decimal.Decimal `json:"total"`
}

// MonthTotal is one row of the summary monthly breakdown (YYYY-MM).
type MonthTotal struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type MerchantTotal struct {
	Merchant string          `json:"merchant"`
	Total    decimal.Decimal `json:"total"`
}

// Summary is the server-computed aggregate behind the dashboard.
type Summary struct {
	Total        decimal.Decimal `json:"total"`
	ByCategory   []CategoryTotal `json:"by_category"`
	Monthly      []MonthTotal    `json:"monthly"`
	TopMerchants []MerchantTotal `json:"top_merchants"`
}

// TopMerchant returns the first merchant row, if any.
func (s Summary) TopMerchant() (MerchantTotal, bool) {
	if len(s.TopMerchants) == 0 {
		return MerchantTotal{}, false
	}
	return s.TopMerchants[0], true
}

type CategorySpend struct {
	Category   string          `json:"category"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

type MonthSpend struct {
	Month      string          `json:"month"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// Analytics is the payload of the analytics page.
type Analytics struct {
	TotalSpent          decimal.Decimal `json:"total_spent"`
	PredictionNextMonth decimal.Decimal `json:"prediction_next_month"`
	TopMerchant         string          `json:"top_merchant"`
	SpendingByCategory  []CategorySpend `json:"spending_by_category"`
	MonthlyTrend        []MonthSpend    `json:"monthly_trend"`
}

// Prediction is the next-month spend forecast and the method behind it.
type Prediction struct {
	Prediction decimal.Decimal `json:"prediction"`
	Method     string          `json:"method"`
	NPoints    int             `json:"n_points,omitempty"`
}
