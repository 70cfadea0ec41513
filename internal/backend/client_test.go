package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 0)
}

func TestListExpensesSendsBearer(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/get-expenses", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[{"id":"1","amount":10,"category":"Food","note":null,"date":"2024-03-02"}]`)
	})

	items, err := c.ListExpenses(context.Background(), auth.Context{Tokens: auth.StaticToken("tok")})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "2024-03-02", items[0].Date)
	assert.True(t, items[0].Amount.Equal(decimal.NewFromInt(10)))
}

func TestUnauthorizedIsClassified(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"not authenticated"}`)
	})

	_, err := c.GetBudget(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.GetSummary(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.GetAnalytics(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.GetPrediction(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAPIErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"error field", `{"error":"invalid amount"}`, "invalid amount"},
		{"message field", `{"message":"quota exceeded"}`, "quota exceeded"},
		{"no json", `oops`, "request failed (400)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := c.SetBudget(context.Background(), auth.Context{}, decimal.NewFromInt(1))
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.want, apiErr.Message)
			assert.Equal(t, tt.want, Message(err, "fallback"))
		})
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, 0).ListExpenses(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrNetwork)
	assert.Equal(t, "Network error", Message(err, "fallback"))
}

func TestUpdateExpenseSendsOnlyPatchFields(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/expense/abc", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"message":"updated"}`)
	})

	p, err := core.ParseExpensePatch("12.5", "", "")
	require.NoError(t, err)
	require.NoError(t, c.UpdateExpense(context.Background(), auth.Context{}, "abc", p))
	assert.Equal(t, map[string]any{"amount": 12.5}, got)
}

func TestUpdateExpenseEmptyPatchIssuesNoRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	err := c.UpdateExpense(context.Background(), auth.Context{}, "abc", core.ExpensePatch{})
	assert.ErrorIs(t, err, core.ErrEmptyPatch)
	assert.False(t, called)
}

func TestSetBudgetDecodesResult(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 100.0, body["amount"])
		_, _ = io.WriteString(w, `{"month":"2024-03","amount":100}`)
	})

	b, err := c.SetBudget(context.Background(), auth.Context{}, decimal.NewFromInt(100))
	require.NoError(t, err)
	assert.Equal(t, "2024-03", b.Month)
	assert.Equal(t, "100.00", b.Amount.StringFixed(2))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"message":"login successful","token":"signed"}`)
	})

	tok, err := c.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	assert.Equal(t, "signed", tok)
}

func TestDecodeError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"total": [}`)
	})
	_, err := c.GetSummary(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReportReturnsRawCSV(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reports", r.URL.Path)
		assert.Equal(t, "summary", r.URL.Query().Get("type"))
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = io.WriteString(w, "year_month,total\n2024-03,10\n")
	})

	data, err := c.Report(context.Background(), auth.Context{}, "summary")
	require.NoError(t, err)
	assert.Equal(t, "year_month,total\n2024-03,10\n", string(data))
}

func TestAddIncomePostsForm(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/add-income", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "2500", r.PostForm.Get("amount"))
		assert.Equal(t, "Salary", r.PostForm.Get("source"))
		assert.Equal(t, "2024-03-01", r.PostForm.Get("date"))
		http.Redirect(w, r, "/add-income", http.StatusFound)
	})

	err := c.AddIncome(context.Background(), auth.Context{Tokens: auth.StaticToken("tok")},
		core.NewIncome{Amount: "2500", Source: "Salary", Date: "2024-03-01"})
	assert.NoError(t, err)
}

func TestAddIncomeMissingFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, "Missing fields")
	})

	err := c.AddIncome(context.Background(), auth.Context{}, core.NewIncome{Amount: "1"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestListIncome(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/view-income", r.URL.Path)
		_, _ = io.WriteString(w, `[{"amount":2500.5,"source":"Salary","note":"","date":"2024-03-01"}]`)
	})

	items, err := c.ListIncome(context.Background(), auth.Context{})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Salary", items[0].Source)
	assert.True(t, items[0].Amount.Equal(decimal.RequireFromString("2500.5")))
}

func TestReadRedirectIsUnauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	})

	_, err := c.ListIncome(context.Background(), auth.Context{})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestSignup(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"created", http.StatusCreated, `{"message":"signup successful"}`, ""},
		{"duplicate", http.StatusConflict, `{"error":"user already exists"}`, "user already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/signup", r.URL.Path)
				var in core.Signup
				require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
				assert.Equal(t, "bob@example.com", in.Email)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			err := c.Signup(context.Background(), core.Signup{Username: "bob", Email: "bob@example.com", Password: "pw"})
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.want, Message(err, "fallback"))
		})
	}
}
