package backend

import (
	"context"

	"github.com/shopspring/decimal"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

// Ports consumed by the HTTP handlers. Every call carries the caller's
// auth context.
type (
	ExpenseAPI interface {
		ListExpenses(ctx context.Context, ac auth.Context) ([]core.Expense, error)
		AddExpense(ctx context.Context, ac auth.Context, e core.NewExpense) error
		UpdateExpense(ctx context.Context, ac auth.Context, id string, p core.ExpensePatch) error
		DeleteExpense(ctx context.Context, ac auth.Context, id string) error
	}

	BudgetAPI interface {
		GetBudget(ctx context.Context, ac auth.Context) (core.Budget, error)
		SetBudget(ctx context.Context, ac auth.Context, amount decimal.Decimal) (core.Budget, error)
	}

	SummaryAPI interface {
		GetSummary(ctx context.Context, ac auth.Context) (core.Summary, error)
	}

	AnalyticsAPI interface {
		GetAnalytics(ctx context.Context, ac auth.Context) (core.Analytics, error)
		GetPrediction(ctx context.Context, ac auth.Context) (core.Prediction, error)
	}

	ReportAPI interface {
		// Report returns a CSV export; kind is "expenses" or "summary".
		Report(ctx context.Context, ac auth.Context, kind string) ([]byte, error)
	}

	IncomeAPI interface {
		// ListIncome returns income newest first.
		ListIncome(ctx context.Context, ac auth.Context) ([]core.Income, error)
		AddIncome(ctx context.Context, ac auth.Context, in core.NewIncome) error
	}

	AccountAPI interface {
		// Login exchanges credentials for a bearer token. username may
		// also be the account email.
		Login(ctx context.Context, username, password string) (string, error)
		// Signup registers an account; a taken username or email is a 409.
		Signup(ctx context.Context, in core.Signup) error
	}
)

// Backend represents a unified backend interface that provides all necessary operations
type Backend interface {
	ExpenseAPI
	BudgetAPI
	SummaryAPI
	AnalyticsAPI
	ReportAPI
	IncomeAPI
	AccountAPI
}

// Type selects the backend implementation.
type Type string

const (
	HTTPBackend   Type = "http"
	MemoryBackend Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the backend type is valid
func (t Type) IsValid() bool {
	switch t {
	case HTTPBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
