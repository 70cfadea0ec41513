// Package view turns backend data into the models the templates render.
package view

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// UnknownMonth is the bucket for expenses without a usable YYYY-MM date.
const UnknownMonth = "Unknown"

// EmptyListText is the single row of an empty expense list.
const EmptyListText = "No expenses yet."

// MonthGroup is one collapsible block of the expense list.
type MonthGroup struct {
	Key      string
	Label    string
	Expanded bool
	Total    decimal.Decimal
	Expenses []core.Expense
}

// ExpenseList is the month-grouped expense table.
type ExpenseList struct {
	Groups []MonthGroup
	Empty  bool
}

// Count is the number of expenses across groups.
func (l ExpenseList) Count() int {
	n := 0
	for _, g := range l.Groups {
		n += len(g.Expenses)
	}
	return n
}

// GroupByMonth sorts expenses newest first and buckets them by month.
// Groups are ordered by descending key; the newest real month starts
// expanded, or Unknown when it is the only group.
func GroupByMonth(items []core.Expense) ExpenseList {
	if len(items) == 0 {
		return ExpenseList{Empty: true}
	}

	sorted := append([]core.Expense(nil), items...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date > sorted[j].Date })

	index := map[string]int{}
	var groups []MonthGroup
	for _, e := range sorted {
		key, ok := core.MonthKey(e.Date)
		if !ok {
			key = UnknownMonth
		}
		i, seen := index[key]
		if !seen {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key, Label: monthLabel(key)})
		}
		groups[i].Expenses = append(groups[i].Expenses, e)
		groups[i].Total = groups[i].Total.Add(e.Amount)
	}

	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Key > groups[j].Key })

	expanded := -1
	for i := range groups {
		if groups[i].Key != UnknownMonth {
			expanded = i
			break
		}
	}
	if expanded < 0 {
		expanded = 0
	}
	groups[expanded].Expanded = true

	return ExpenseList{Groups: groups}
}

func monthLabel(key string) string {
	if key == UnknownMonth {
		return key
	}
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("January 2006")
}
