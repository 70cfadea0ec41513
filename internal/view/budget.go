package view

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// Ticket identifies one issued load.
type Ticket uint64

// Sequencer hands out increasing tickets so that only the newest response
// of a loader is applied.
type Sequencer struct {
	mu     sync.Mutex
	latest Ticket
}

// Next issues a ticket and makes it the latest.
func (s *Sequencer) Next() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest++
	return s.latest
}

// IsLatest reports whether no ticket was issued after t.
func (s *Sequencer) IsLatest(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return t == s.latest
}

// BudgetState caches the last budget seen by a session.
type BudgetState struct {
	seq Sequencer

	mu     sync.Mutex
	budget core.Budget
	loaded bool
}

// Begin issues a ticket for a budget load or set.
func (b *BudgetState) Begin() Ticket { return b.seq.Next() }

// IsLatest reports whether t is the newest load or set.
func (b *BudgetState) IsLatest(t Ticket) bool { return b.seq.IsLatest(t) }

// Apply stores budget if t is still the latest ticket and reports whether
// it did.
func (b *BudgetState) Apply(t Ticket, budget core.Budget) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.seq.IsLatest(t) {
		return false
	}
	b.budget = budget
	b.loaded = true
	return true
}

// Invalidate forgets the cached budget and supersedes every ticket in
// flight, so the next reader fetches from the backend.
func (b *BudgetState) Invalidate() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq.Next()
	b.budget = core.Budget{}
	b.loaded = false
}

// Current returns the cached budget; ok is false before the first load.
func (b *BudgetState) Current() (core.Budget, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.budget, b.loaded
}

// Amount is the cached budget amount, zero before the first load.
func (b *BudgetState) Amount() decimal.Decimal {
	cur, _ := b.Current()
	return cur.Amount
}

// BudgetWidget is the budget form section.
type BudgetWidget struct {
	Value  string
	Status string
	Error  string
}

// LoadedBudget shows a budget fetched from the backend.
func LoadedBudget(b core.Budget) BudgetWidget {
	return BudgetWidget{Value: b.Amount.String(), Status: "Month: " + b.Month}
}

// SavedBudget confirms a budget that was just set.
func SavedBudget(b core.Budget) BudgetWidget {
	return BudgetWidget{
		Value:  b.Amount.String(),
		Status: fmt.Sprintf("Set %s → %s", b.Month, b.Amount.StringFixed(2)),
	}
}

// FailedBudget keeps the typed value next to the error.
func FailedBudget(value, msg string) BudgetWidget {
	return BudgetWidget{Value: value, Error: "Unable to set budget: " + msg}
}

// BudgetProgress drives the progress bar and the alert line.
type BudgetProgress struct {
	Visible bool
	Width   int
	Percent int64
	Class   string
	Text    string
}

const (
	ClassOK   = "ok"
	ClassWarn = "warn"
)

// NewBudgetProgress compares total spending against budget. A budget of
// zero or less hides the alert.
func NewBudgetProgress(total, budget decimal.Decimal) BudgetProgress {
	if !budget.IsPositive() {
		return BudgetProgress{}
	}
	pct := total.Div(budget).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	width := pct
	if width < 0 {
		width = 0
	}
	if width > 100 {
		width = 100
	}
	p := BudgetProgress{Visible: true, Width: int(width), Percent: pct}
	if total.GreaterThan(budget) {
		p.Class = ClassWarn
		p.Text = fmt.Sprintf("Budget exceeded by %s (%d%%)", total.Sub(budget).StringFixed(2), pct)
	} else {
		p.Class = ClassOK
		p.Text = fmt.Sprintf("%d%% of budget used", pct)
	}
	return p
}
