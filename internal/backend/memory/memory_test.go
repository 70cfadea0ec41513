package memory

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/core"
)

func fixedClock() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }

func login(t *testing.T, s *Store, user string) auth.Context {
	t.Helper()
	tok, err := s.Login(context.Background(), user, "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return auth.Context{Tokens: auth.StaticToken(tok)}
}

func exp(amount int64, cat, note, date string) core.Expense {
	return core.Expense{Amount: decimal.NewFromInt(amount), Category: cat, Note: note, Date: date}
}

func TestRequiresToken(t *testing.T) {
	s := New()
	if _, err := s.ListExpenses(context.Background(), auth.Context{}); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	ac := auth.Context{Tokens: auth.StaticToken("mem:nobody")}
	if _, err := s.GetBudget(context.Background(), ac); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestAddUpdateDelete(t *testing.T) {
	s := New().WithClock(fixedClock)
	ac := login(t, s, "ana")
	ctx := context.Background()

	if err := s.AddExpense(ctx, ac, core.NewExpense{Amount: "12,50", Category: "Food"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	items, _ := s.ListExpenses(ctx, ac)
	if len(items) != 1 || items[0].Date != "2024-03-15" || items[0].Amount.StringFixed(2) != "12.50" {
		t.Fatalf("unexpected items: %+v", items)
	}

	p, _ := core.ParseExpensePatch("", "Travel", "")
	if err := s.UpdateExpense(ctx, ac, items[0].ID, p); err != nil {
		t.Fatalf("update: %v", err)
	}
	items, _ = s.ListExpenses(ctx, ac)
	if items[0].Category != "Travel" || items[0].Amount.StringFixed(2) != "12.50" {
		t.Fatalf("patch applied wrong fields: %+v", items[0])
	}

	var apiErr *backend.APIError
	if err := s.DeleteExpense(ctx, ac, "missing"); !errors.As(err, &apiErr) || apiErr.Status != 404 {
		t.Fatalf("expected 404, got %v", err)
	}
	if err := s.DeleteExpense(ctx, ac, items[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	items, _ = s.ListExpenses(ctx, ac)
	if len(items) != 0 {
		t.Fatalf("expected empty list, got %v", items)
	}
}

func TestUsersAreIsolated(t *testing.T) {
	s := New()
	ana := login(t, s, "ana")
	bob := login(t, s, "bob")
	_ = s.AddExpense(context.Background(), ana, core.NewExpense{Amount: "1", Category: "Food", Date: "2024-01-01"})

	items, _ := s.ListExpenses(context.Background(), bob)
	if len(items) != 0 {
		t.Fatalf("bob sees ana's expenses: %v", items)
	}
}

func TestBudgetDefaultsToCurrentMonth(t *testing.T) {
	s := New().WithClock(fixedClock)
	ac := login(t, s, "ana")

	b, err := s.GetBudget(context.Background(), ac)
	if err != nil || b.Month != "2024-03" || !b.Amount.IsZero() {
		t.Fatalf("unexpected default budget: %+v err=%v", b, err)
	}
	if _, err := s.SetBudget(context.Background(), ac, decimal.NewFromInt(100)); err != nil {
		t.Fatalf("set: %v", err)
	}
	b, _ = s.GetBudget(context.Background(), ac)
	if b.Amount.StringFixed(2) != "100.00" {
		t.Fatalf("budget not stored: %+v", b)
	}
}

func TestSummary(t *testing.T) {
	s := New()
	ac := login(t, s, "ana")
	s.Seed("ana",
		exp(10, "Food", "Cafe", "2024-03-02"),
		exp(30, "Rent", "", "2024-02-01"),
		exp(5, "Food", "Cafe", "2024-03-09"),
	)

	sum, err := s.GetSummary(context.Background(), ac)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.Total.StringFixed(2) != "45.00" {
		t.Errorf("total = %s", sum.Total)
	}
	if len(sum.ByCategory) != 2 || sum.ByCategory[0].Category != "Rent" {
		t.Errorf("by_category not sorted by total desc: %+v", sum.ByCategory)
	}
	if len(sum.Monthly) != 2 || sum.Monthly[0].Month != "2024-02" {
		t.Errorf("monthly not ascending: %+v", sum.Monthly)
	}
	if top, ok := sum.TopMerchant(); !ok || top.Merchant != "Cafe" {
		t.Errorf("top merchant = %+v", top)
	}
}

func TestAnalytics(t *testing.T) {
	s := New()
	ac := login(t, s, "ana")

	a, err := s.GetAnalytics(context.Background(), ac)
	if err != nil || a.TopMerchant != "N/A" || !a.TotalSpent.IsZero() {
		t.Fatalf("unexpected empty analytics: %+v err=%v", a, err)
	}

	s.Seed("ana",
		exp(100, "Food", "Market", "2024-01-05"),
		exp(50, "Fuel", "", "2024-02-05"),
	)
	a, _ = s.GetAnalytics(context.Background(), ac)
	if a.TopMerchant != "Market" {
		t.Errorf("top merchant = %q", a.TopMerchant)
	}
	if a.PredictionNextMonth.StringFixed(2) != "75.00" {
		t.Errorf("prediction = %s, want 75.00", a.PredictionNextMonth)
	}
	if len(a.MonthlyTrend) != 2 || len(a.SpendingByCategory) != 2 {
		t.Errorf("unexpected breakdowns: %+v", a)
	}
}

func TestPrediction(t *testing.T) {
	s := New()
	ac := login(t, s, "ana")

	p, _ := s.GetPrediction(context.Background(), ac)
	if p.Method != "fallback" || !p.Prediction.IsZero() {
		t.Fatalf("empty prediction = %+v", p)
	}

	s.Seed("ana", exp(100, "Food", "", "2024-01-05"))
	p, _ = s.GetPrediction(context.Background(), ac)
	if p.Method != "fallback" || p.Prediction.StringFixed(2) != "100.00" {
		t.Fatalf("single month prediction = %+v", p)
	}

	s.Seed("ana", exp(200, "Food", "", "2024-02-05"))
	p, _ = s.GetPrediction(context.Background(), ac)
	if p.Method != "linear_regression" || p.NPoints != 2 || p.Prediction.StringFixed(2) != "300.00" {
		t.Fatalf("regression prediction = %+v", p)
	}
}

func TestReport(t *testing.T) {
	s := New()
	ac := login(t, s, "ana")
	s.Seed("ana", exp(7, "Food", "Cafe", "2024-03-02"))

	data, err := s.Report(context.Background(), ac, "expenses")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 || lines[0] != "id,date,amount,category,note" {
		t.Fatalf("unexpected csv: %q", data)
	}

	var apiErr *backend.APIError
	if _, err := s.Report(context.Background(), ac, "pdf"); !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestLoginRequiresCredentials(t *testing.T) {
	if _, err := New().Login(context.Background(), " ", ""); err == nil {
		t.Fatal("expected error for blank credentials")
	}
}

func TestSignupThenLogin(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Signup(ctx, core.Signup{Username: "bob", Email: "bob@example.com", Password: "secret"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	var apiErr *backend.APIError
	err := s.Signup(ctx, core.Signup{Username: "robert", Email: "bob@example.com", Password: "x"})
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("duplicate email: %v", err)
	}
	if err := s.Signup(ctx, core.Signup{Username: "carol"}); !errors.As(err, &apiErr) || apiErr.Status != 400 {
		t.Fatalf("missing fields: %v", err)
	}

	if _, err := s.Login(ctx, "bob", "wrong"); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("wrong password: %v", err)
	}
	tok, err := s.Login(ctx, "bob@example.com", "secret")
	if err != nil || tok != "mem:bob" {
		t.Fatalf("login by email: tok=%q err=%v", tok, err)
	}
}

func TestIncomeAddAndList(t *testing.T) {
	s := New()
	ac := login(t, s, "ana")
	ctx := context.Background()

	var apiErr *backend.APIError
	if err := s.AddIncome(ctx, ac, core.NewIncome{Amount: "10", Source: "Gift"}); !errors.As(err, &apiErr) || apiErr.Message != "Missing fields" {
		t.Fatalf("missing date: %v", err)
	}
	for _, in := range []core.NewIncome{
		{Amount: "2500", Source: "Salary", Date: "2024-02-01"},
		{Amount: "120,50", Source: "Freelance", Note: "logo", Date: "2024-03-04"},
	} {
		if err := s.AddIncome(ctx, ac, in); err != nil {
			t.Fatalf("add %s: %v", in.Source, err)
		}
	}

	items, err := s.ListIncome(ctx, ac)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].Source != "Freelance" || items[0].Amount.StringFixed(2) != "120.50" {
		t.Fatalf("income newest first: %+v", items)
	}
	if _, err := s.ListIncome(ctx, auth.Context{}); !errors.Is(err, backend.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
