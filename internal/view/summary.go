package view

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"spendwise/internal/chart"
	"spendwise/internal/core"
)

// Surface describes where a summary renders: its canvases, currency style
// and trend chart kind.
type Surface struct {
	Name      string
	Category  string
	Monthly   string
	Formatter core.Formatter
	Palette   chart.Palette
	Trend     chart.Kind
	Legend    string
}

var (
	DashboardSurface = Surface{
		Name:      "dashboard",
		Category:  "dashCategoryChart",
		Monthly:   "dashMonthlyChart",
		Formatter: core.PlainFormatter{},
		Palette:   chart.DefaultPalette,
		Trend:     chart.Bar,
		Legend:    "bottom",
	}
	ExpenseSurface = Surface{
		Name:      "view",
		Category:  "categoryChart",
		Monthly:   "monthlyChart",
		Formatter: core.PlainFormatter{},
		Palette:   chart.DefaultPalette,
		Trend:     chart.Bar,
		Legend:    "bottom",
	}
	AnalyticsSurface = Surface{
		Name:      "analytics",
		Category:  "categoryChart",
		Monthly:   "monthlyChart",
		Formatter: core.INRFormatter{},
		Palette:   chart.AnalyticsPalette,
		Trend:     chart.Line,
		Legend:    "right",
	}
)

// SurfaceByName maps a query value to a surface, Dashboard by default.
func SurfaceByName(name string) Surface {
	switch name {
	case ExpenseSurface.Name:
		return ExpenseSurface
	case AnalyticsSurface.Name:
		return AnalyticsSurface
	default:
		return DashboardSurface
	}
}

func (s Surface) Canvases() []string { return []string{s.Category, s.Monthly} }

// ChartSlot is one canvas of a section. Binding is nil when the chart is
// suppressed; Notice then explains why.
type ChartSlot struct {
	Canvas  string
	Binding *chart.Binding
	Notice  string
}

// SummarySection is the total, charts and budget progress partial.
type SummarySection struct {
	Surface  string
	Total    string
	Progress BudgetProgress
	Category ChartSlot
	Monthly  ChartSlot
}

const (
	noCategoryData = "No category data available."
	noMonthlyData  = "No monthly data available."
)

// BuildSummary renders s onto board. Chart errors are returned joined; the
// section is still usable with the failed chart left empty.
func BuildSummary(s core.Summary, budget decimal.Decimal, board *chart.Board, sf Surface) (SummarySection, error) {
	sec := SummarySection{
		Surface:  sf.Name,
		Total:    sf.Formatter.Format(s.Total),
		Progress: NewBudgetProgress(s.Total, budget),
	}

	labels := make([]string, len(s.ByCategory))
	values := make([]decimal.Decimal, len(s.ByCategory))
	for i, c := range s.ByCategory {
		labels[i], values[i] = c.Category, c.Total
	}
	catCfg := chart.Category(labels, values, chart.Opts{Palette: sf.Palette, Formatter: sf.Formatter, Legend: sf.Legend})

	months := make([]string, len(s.Monthly))
	totals := make([]decimal.Decimal, len(s.Monthly))
	for i, m := range s.Monthly {
		months[i], totals[i] = m.Month, m.Total
	}
	trendCfg := chart.Trend(sf.Trend, months, totals, chart.Opts{Label: "Spent", Palette: sf.Palette, Formatter: sf.Formatter})

	var errs []error
	var err error
	sec.Category, err = renderSlot(board, sf.Category, catCfg, len(labels) == 0, noCategoryData)
	errs = append(errs, err)
	sec.Monthly, err = renderSlot(board, sf.Monthly, trendCfg, len(months) == 0, noMonthlyData)
	errs = append(errs, err)
	return sec, errors.Join(errs...)
}

func renderSlot(board *chart.Board, canvas string, cfg chart.Config, empty bool, notice string) (ChartSlot, error) {
	slot := ChartSlot{Canvas: canvas}
	if empty {
		board.Clear(canvas)
		slot.Notice = notice
		return slot, nil
	}
	if _, err := board.Render(canvas, cfg); err != nil {
		return slot, err
	}
	b, ok := board.Binding(canvas)
	if !ok {
		return slot, fmt.Errorf("chart %s: no binding after render", canvas)
	}
	slot.Binding = &b
	return slot, nil
}

// AnalyticsCards are the headline numbers of the analytics page.
type AnalyticsCards struct {
	TotalSpent  string
	Forecast    string
	TopMerchant string
}

// AnalyticsSection is the body of the analytics page apart from the
// prediction card, which has its own fetch.
type AnalyticsSection struct {
	Cards    AnalyticsCards
	Category ChartSlot
	Monthly  ChartSlot
}

// BuildAnalytics renders the analytics cards and charts on board. Chart
// failures are joined into the error; the cards are always filled.
func BuildAnalytics(a core.Analytics, board *chart.Board, sf Surface) (AnalyticsSection, error) {
	top := a.TopMerchant
	if top == "" {
		top = "N/A"
	}
	sec := AnalyticsSection{Cards: AnalyticsCards{
		TotalSpent:  sf.Formatter.Format(a.TotalSpent),
		Forecast:    sf.Formatter.Format(a.PredictionNextMonth),
		TopMerchant: top,
	}}

	labels := make([]string, len(a.SpendingByCategory))
	values := make([]decimal.Decimal, len(a.SpendingByCategory))
	for i, c := range a.SpendingByCategory {
		labels[i], values[i] = c.Category, c.TotalSpent
	}
	catCfg := chart.Category(labels, values, chart.Opts{Label: "Spending by Category", Palette: sf.Palette, Formatter: sf.Formatter, Legend: sf.Legend})

	months := make([]string, len(a.MonthlyTrend))
	totals := make([]decimal.Decimal, len(a.MonthlyTrend))
	for i, m := range a.MonthlyTrend {
		months[i], totals[i] = m.Month, m.TotalSpent
	}
	trendCfg := chart.Trend(sf.Trend, months, totals, chart.Opts{Label: "Total Spending", Palette: sf.Palette, Formatter: sf.Formatter})

	var errs []error
	var err error
	sec.Category, err = renderSlot(board, sf.Category, catCfg, len(labels) == 0, noCategoryData)
	errs = append(errs, err)
	sec.Monthly, err = renderSlot(board, sf.Monthly, trendCfg, len(months) == 0, noMonthlyData)
	errs = append(errs, err)
	return sec, errors.Join(errs...)
}

// PredictionText formats the prediction card, e.g. "₹300.00 (linear_regression)".
func PredictionText(p core.Prediction, f core.Formatter) string {
	method := p.Method
	if method == "" {
		method = "unknown"
	}
	return fmt.Sprintf("%s (%s)", f.Format(p.Prediction), method)
}
