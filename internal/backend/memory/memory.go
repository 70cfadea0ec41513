// Package memory is an in-process SpendWise backend for demo mode and
// tests. It computes the same aggregates the REST API serves.
package memory

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/core"
)

const tokenPrefix = "mem:"

type account struct {
	email    string
	password string
	expenses []core.Expense
	income   []core.Income
	budgets  map[string]decimal.Decimal
}

type Store struct {
	mu     sync.Mutex
	now    func() time.Time
	nextID int
	users  map[string]*account
}

func New() *Store {
	return &Store{now: time.Now, users: make(map[string]*account)}
}

// WithClock fixes the clock used for the current budget month.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// Seed adds expenses for username, bypassing auth.
func (s *Store) Seed(username string, items ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accountLocked(username)
	for _, e := range items {
		if e.ID == "" {
			s.nextID++
			e.ID = fmt.Sprintf("%d", s.nextID)
		}
		acc.expenses = append(acc.expenses, e)
	}
}

var _ backend.Backend = (*Store)(nil)

// Login accepts a username or a signed-up email. Accounts that never signed
// up are created on first login; signed-up accounts check the password.
func (s *Store) Login(_ context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", &backend.APIError{Status: 400, Message: "credentials required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name, acc := s.lookupLocked(username)
	if acc == nil {
		s.accountLocked(username)
		return tokenPrefix + username, nil
	}
	if acc.password != "" && acc.password != password {
		return "", backend.ErrUnauthorized
	}
	return tokenPrefix + name, nil
}

func (s *Store) Signup(_ context.Context, in core.Signup) error {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)
	if username == "" || email == "" || in.Password == "" {
		return &backend.APIError{Status: 400, Message: "username, email and password required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, acc := s.lookupLocked(username); acc != nil {
		return &backend.APIError{Status: 409, Message: "user already exists"}
	}
	if _, acc := s.lookupLocked(email); acc != nil {
		return &backend.APIError{Status: 409, Message: "user already exists"}
	}
	acc := s.accountLocked(username)
	acc.email = email
	acc.password = in.Password
	return nil
}

func (s *Store) ListExpenses(ctx context.Context, ac auth.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return nil, err
	}
	return append([]core.Expense(nil), acc.expenses...), nil
}

func (s *Store) AddExpense(ctx context.Context, ac auth.Context, in core.NewExpense) error {
	amount := decimal.Zero
	if strings.TrimSpace(in.Amount) != "" {
		d, err := core.ParseAmount(in.Amount)
		if err != nil {
			return &backend.APIError{Status: 400, Message: "invalid amount"}
		}
		amount = d
	}
	date := in.Date
	if date == "" {
		date = s.now().UTC().Format("2006-01-02")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return err
	}
	s.nextID++
	acc.expenses = append(acc.expenses, core.Expense{
		ID:       fmt.Sprintf("%d", s.nextID),
		Amount:   amount,
		Category: in.Category,
		Note:     in.Note,
		Date:     date,
	})
	return nil
}

func (s *Store) UpdateExpense(ctx context.Context, ac auth.Context, id string, p core.ExpensePatch) error {
	if p.IsEmpty() {
		return core.ErrEmptyPatch
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return err
	}
	for i := range acc.expenses {
		if acc.expenses[i].ID != id {
			continue
		}
		if p.Amount != nil {
			acc.expenses[i].Amount = *p.Amount
		}
		if p.Category != nil {
			acc.expenses[i].Category = *p.Category
		}
		if p.Note != nil {
			acc.expenses[i].Note = *p.Note
		}
		return nil
	}
	return &backend.APIError{Status: 404, Message: "not found"}
}

func (s *Store) DeleteExpense(ctx context.Context, ac auth.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return err
	}
	for i := range acc.expenses {
		if acc.expenses[i].ID == id {
			acc.expenses = append(acc.expenses[:i], acc.expenses[i+1:]...)
			return nil
		}
	}
	return &backend.APIError{Status: 404, Message: "not found"}
}

func (s *Store) GetBudget(ctx context.Context, ac auth.Context) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return core.Budget{}, err
	}
	month := s.currentMonth()
	return core.Budget{Month: month, Amount: acc.budgets[month]}, nil
}

func (s *Store) SetBudget(ctx context.Context, ac auth.Context, amount decimal.Decimal) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return core.Budget{}, err
	}
	month := s.currentMonth()
	acc.budgets[month] = amount
	return core.Budget{Month: month, Amount: amount}, nil
}

func (s *Store) GetSummary(ctx context.Context, ac auth.Context) (core.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return core.Summary{}, err
	}

	sum := core.Summary{Total: decimal.Zero}
	byCat := map[string]decimal.Decimal{}
	byMerchant := map[string]decimal.Decimal{}
	for _, e := range acc.expenses {
		sum.Total = sum.Total.Add(e.Amount)
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
		if e.Note != "" {
			byMerchant[e.Note] = byMerchant[e.Note].Add(e.Amount)
		}
	}
	for cat, total := range byCat {
		sum.ByCategory = append(sum.ByCategory, core.CategoryTotal{Category: cat, Total: total})
	}
	sort.Slice(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Total.GreaterThan(sum.ByCategory[j].Total)
	})
	for _, m := range monthlyTotals(acc.expenses) {
		sum.Monthly = append(sum.Monthly, core.MonthTotal{Month: m.Month, Total: m.TotalSpent})
	}
	for merchant, total := range byMerchant {
		sum.TopMerchants = append(sum.TopMerchants, core.MerchantTotal{Merchant: merchant, Total: total})
	}
	sort.Slice(sum.TopMerchants, func(i, j int) bool {
		return sum.TopMerchants[i].Total.GreaterThan(sum.TopMerchants[j].Total)
	})
	if len(sum.TopMerchants) > 10 {
		sum.TopMerchants = sum.TopMerchants[:10]
	}
	return sum, nil
}

func (s *Store) GetAnalytics(ctx context.Context, ac auth.Context) (core.Analytics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return core.Analytics{}, err
	}
	out := core.Analytics{TopMerchant: "N/A"}
	if len(acc.expenses) == 0 {
		return out, nil
	}

	byCat := map[string]decimal.Decimal{}
	byMerchant := map[string]decimal.Decimal{}
	var order []string
	for _, e := range acc.expenses {
		out.TotalSpent = out.TotalSpent.Add(e.Amount)
		if _, ok := byCat[e.Category]; !ok {
			order = append(order, e.Category)
		}
		byCat[e.Category] = byCat[e.Category].Add(e.Amount)
		merchant := e.Note
		if merchant == "" {
			merchant = "Unknown"
		}
		byMerchant[merchant] = byMerchant[merchant].Add(e.Amount)
	}
	for _, cat := range order {
		out.SpendingByCategory = append(out.SpendingByCategory, core.CategorySpend{Category: cat, TotalSpent: byCat[cat]})
	}
	out.MonthlyTrend = monthlyTotals(acc.expenses)

	best := decimal.Zero
	for merchant, total := range byMerchant {
		if out.TopMerchant == "N/A" || total.GreaterThan(best) || (total.Equal(best) && merchant < out.TopMerchant) {
			out.TopMerchant, best = merchant, total
		}
	}

	months := int64(len(out.MonthlyTrend))
	if months < 1 {
		months = 1
	}
	out.PredictionNextMonth = out.TotalSpent.Div(decimal.NewFromInt(months)).Round(2)
	return out, nil
}

// GetPrediction fits a least-squares line over monthly totals; with fewer
// than two months it falls back to the last total.
func (s *Store) GetPrediction(ctx context.Context, ac auth.Context) (core.Prediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return core.Prediction{}, err
	}
	monthly := monthlyTotals(acc.expenses)
	n := len(monthly)
	if n < 2 {
		p := core.Prediction{Method: "fallback"}
		if n == 1 {
			p.Prediction = monthly[0].TotalSpent
		}
		return p, nil
	}

	var xMean, yMean float64
	ys := make([]float64, n)
	for i, m := range monthly {
		ys[i] = core.Float(m.TotalSpent)
		xMean += float64(i)
		yMean += ys[i]
	}
	xMean /= float64(n)
	yMean /= float64(n)
	var num, den float64
	for i := range ys {
		num += (float64(i) - xMean) * (ys[i] - yMean)
		den += (float64(i) - xMean) * (float64(i) - xMean)
	}
	slope := 0.0
	if den != 0 {
		slope = num / den
	}
	pred := yMean - slope*xMean + slope*float64(n)
	return core.Prediction{
		Prediction: decimal.NewFromFloat(pred).Round(2),
		Method:     "linear_regression",
		NPoints:    n,
	}, nil
}

// Report renders the CSV exports: "expenses" or "summary".
func (s *Store) Report(ctx context.Context, ac auth.Context, kind string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	switch kind {
	case "expenses":
		_ = w.Write([]string{"id", "date", "amount", "category", "note"})
		items := append([]core.Expense(nil), acc.expenses...)
		sort.SliceStable(items, func(i, j int) bool { return items[i].Date > items[j].Date })
		for _, e := range items {
			_ = w.Write([]string{e.ID, e.Date, e.Amount.String(), e.Category, e.Note})
		}
	case "summary":
		_ = w.Write([]string{"year_month", "total"})
		for _, m := range monthlyTotals(acc.expenses) {
			_ = w.Write([]string{m.Month, m.TotalSpent.String()})
		}
	default:
		return nil, &backend.APIError{Status: 400, Message: "unknown report type"}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func (s *Store) ListIncome(ctx context.Context, ac auth.Context) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return nil, err
	}
	out := append([]core.Income(nil), acc.income...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func (s *Store) AddIncome(ctx context.Context, ac auth.Context, in core.NewIncome) error {
	if in.Missing() {
		return &backend.APIError{Status: 400, Message: "Missing fields"}
	}
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return &backend.APIError{Status: 400, Message: "invalid amount"}
	}
	if _, err := time.Parse("2006-01-02", in.Date); err != nil {
		return &backend.APIError{Status: 400, Message: "invalid date"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.resolve(ctx, ac)
	if err != nil {
		return err
	}
	acc.income = append(acc.income, core.Income{Amount: amount, Source: in.Source, Note: in.Note, Date: in.Date})
	return nil
}

func (s *Store) resolve(ctx context.Context, ac auth.Context) (*account, error) {
	if ac.Tokens == nil {
		return nil, backend.ErrUnauthorized
	}
	tok, err := ac.Tokens.Token(ctx)
	if err != nil || !strings.HasPrefix(tok, tokenPrefix) {
		return nil, backend.ErrUnauthorized
	}
	acc, ok := s.users[strings.TrimPrefix(tok, tokenPrefix)]
	if !ok {
		return nil, backend.ErrUnauthorized
	}
	return acc, nil
}

// lookupLocked finds an account by username or email.
func (s *Store) lookupLocked(id string) (string, *account) {
	if acc, ok := s.users[id]; ok {
		return id, acc
	}
	for name, acc := range s.users {
		if acc.email != "" && acc.email == id {
			return name, acc
		}
	}
	return "", nil
}

func (s *Store) accountLocked(username string) *account {
	acc, ok := s.users[username]
	if !ok {
		acc = &account{budgets: make(map[string]decimal.Decimal)}
		s.users[username] = acc
	}
	return acc
}

func (s *Store) currentMonth() string {
	return s.now().UTC().Format("2006-01")
}

// monthlyTotals groups by the first 7 characters of the date, ascending.
func monthlyTotals(items []core.Expense) []core.MonthSpend {
	totals := map[string]decimal.Decimal{}
	for _, e := range items {
		month := e.Date
		if len(month) >= 7 {
			month = month[:7]
		}
		totals[month] = totals[month].Add(e.Amount)
	}
	out := make([]core.MonthSpend, 0, len(totals))
	for m, t := range totals {
		out = append(out, core.MonthSpend{Month: m, TotalSpent: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}
