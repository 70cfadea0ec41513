package view

import (
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// EmptyIncomeText is shown when no income has been recorded.
const EmptyIncomeText = "No income recorded yet."

// IncomeRow is one formatted line of the income list.
type IncomeRow struct {
	Date   string
	Source string
	Note   string
	Amount string
}

// IncomeList is the income list with its running total.
type IncomeList struct {
	Total string
	Rows  []IncomeRow
	Empty bool
}

// NewIncomeList formats items, kept in backend order, and sums them.
func NewIncomeList(items []core.Income, f core.Formatter) IncomeList {
	total := decimal.Zero
	rows := make([]IncomeRow, 0, len(items))
	for _, in := range items {
		total = total.Add(in.Amount)
		rows = append(rows, IncomeRow{
			Date:   in.Date,
			Source: in.Source,
			Note:   in.Note,
			Amount: f.Format(in.Amount),
		})
	}
	return IncomeList{Total: f.Format(total), Rows: rows, Empty: len(items) == 0}
}
