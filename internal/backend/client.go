package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"spendwise/internal/auth"
	"spendwise/internal/core"
)

const maxBodyBytes = 4 << 20

// rawBody receives a non-JSON success body verbatim.
type rawBody []byte

// Client talks to the SpendWise REST API. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for baseURL. A zero timeout means requests
// wait for the backend indefinitely. Redirects are not followed: form
// endpoints answer a POST with one, and a read that redirects was sent to
// the backend's login page.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (c *Client) ListExpenses(ctx context.Context, ac auth.Context) ([]core.Expense, error) {
	var out []core.Expense
	if err := c.do(ctx, ac, http.MethodGet, "/get-expenses", nil, &out); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return out, nil
}

func (c *Client) AddExpense(ctx context.Context, ac auth.Context, e core.NewExpense) error {
	if err := c.do(ctx, ac, http.MethodPost, "/add-expense", e, nil); err != nil {
		return fmt.Errorf("add expense: %w", err)
	}
	return nil
}

func (c *Client) UpdateExpense(ctx context.Context, ac auth.Context, id string, p core.ExpensePatch) error {
	if p.IsEmpty() {
		return core.ErrEmptyPatch
	}
	if err := c.do(ctx, ac, http.MethodPut, "/api/expense/"+url.PathEscape(id), p, nil); err != nil {
		return fmt.Errorf("update expense %s: %w", id, err)
	}
	return nil
}

func (c *Client) DeleteExpense(ctx context.Context, ac auth.Context, id string) error {
	if err := c.do(ctx, ac, http.MethodDelete, "/api/expense/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

func (c *Client) GetBudget(ctx context.Context, ac auth.Context) (core.Budget, error) {
	var b core.Budget
	if err := c.do(ctx, ac, http.MethodGet, "/api/budget", nil, &b); err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (c *Client) SetBudget(ctx context.Context, ac auth.Context, amount decimal.Decimal) (core.Budget, error) {
	body := struct {
		Amount decimal.Decimal `json:"amount"`
	}{Amount: amount}
	var b core.Budget
	if err := c.do(ctx, ac, http.MethodPost, "/api/budget", body, &b); err != nil {
		return core.Budget{}, fmt.Errorf("set budget: %w", err)
	}
	return b, nil
}

func (c *Client) GetSummary(ctx context.Context, ac auth.Context) (core.Summary, error) {
	var s core.Summary
	if err := c.do(ctx, ac, http.MethodGet, "/api/summary", nil, &s); err != nil {
		return core.Summary{}, fmt.Errorf("get summary: %w", err)
	}
	return s, nil
}

func (c *Client) GetAnalytics(ctx context.Context, ac auth.Context) (core.Analytics, error) {
	var a core.Analytics
	if err := c.do(ctx, ac, http.MethodGet, "/api/analytics", nil, &a); err != nil {
		return core.Analytics{}, fmt.Errorf("get analytics: %w", err)
	}
	return a, nil
}

func (c *Client) GetPrediction(ctx context.Context, ac auth.Context) (core.Prediction, error) {
	var p core.Prediction
	if err := c.do(ctx, ac, http.MethodGet, "/api/predict", nil, &p); err != nil {
		return core.Prediction{}, fmt.Errorf("get prediction: %w", err)
	}
	return p, nil
}

func (c *Client) Report(ctx context.Context, ac auth.Context, kind string) ([]byte, error) {
	q := url.Values{"type": {kind}, "format": {"csv"}}
	var raw rawBody
	if err := c.do(ctx, ac, http.MethodGet, "/api/reports?"+q.Encode(), nil, &raw); err != nil {
		return nil, fmt.Errorf("report %s: %w", kind, err)
	}
	return raw, nil
}

func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	body := map[string]string{"username": username, "password": password}
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, auth.Context{}, http.MethodPost, "/api/login", body, &out); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("login: %w: empty token", ErrDecode)
	}
	return out.Token, nil
}

func (c *Client) ListIncome(ctx context.Context, ac auth.Context) ([]core.Income, error) {
	var out []core.Income
	if err := c.do(ctx, ac, http.MethodGet, "/view-income", nil, &out); err != nil {
		return nil, fmt.Errorf("list income: %w", err)
	}
	return out, nil
}

// AddIncome posts the income form; the backend reads form fields here, not
// JSON.
func (c *Client) AddIncome(ctx context.Context, ac auth.Context, in core.NewIncome) error {
	form := url.Values{
		"amount": {in.Amount},
		"source": {in.Source},
		"note":   {in.Note},
		"date":   {in.Date},
	}
	if err := c.do(ctx, ac, http.MethodPost, "/add-income", form, nil); err != nil {
		return fmt.Errorf("add income: %w", err)
	}
	return nil
}

func (c *Client) Signup(ctx context.Context, in core.Signup) error {
	if err := c.do(ctx, auth.Context{}, http.MethodPost, "/api/signup", in, nil); err != nil {
		return fmt.Errorf("signup: %w", err)
	}
	return nil
}

// do performs one call and classifies the outcome. out may be nil.
func (c *Client) do(ctx context.Context, ac auth.Context, method, path string, body, out any) error {
	opts, err := ac.Options(ctx, method, body)
	if err != nil {
		return err
	}
	req, err := opts.NewRequest(ctx, c.baseURL+path)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.ErrorContext(ctx, "Backend request failed",
			"error", err,
			"method", method,
			"path", path,
			"component", "backend")
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	slog.DebugContext(ctx, "Backend request completed",
		"method", method,
		"path", path,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
		"credentials", string(opts.Credentials),
		"component", "backend")

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		if method == http.MethodGet {
			return ErrUnauthorized
		}
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if raw, ok := out.(*rawBody); ok {
		*raw = data
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Join(ErrDecode, err)
	}
	return nil
}
