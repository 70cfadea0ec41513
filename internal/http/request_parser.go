// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing form and JSON request bodies
// into the payloads the SpendWise API expects.

package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]interface{}
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

const maxBodyBytes = 64 << 10

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	// Try JSON first if content looks like JSON
	if p.body[0] == '{' {
		p.jsonData = make(map[string]interface{})
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	return sanitizeInput(p.raw(key))
}

// Secret returns the value untouched, for passwords.
func (p *RequestBodyParser) Secret(key string) string {
	return p.raw(key)
}

func (p *RequestBodyParser) raw(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return stringValue(val)
		}
		return ""
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts an interface{} to string.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// ParseBodyOrFail parses the request body and returns an error response on
// failure.
func ParseBodyOrFail(r *http.Request) (*RequestBodyParser, *HTMXResponseBuilder) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, BadRequestError("Invalid request format")
	}
	return p, nil
}

// NewExpenseFromBody reads the add-expense form. The amount is passed on as
// typed; the backend owns its validation.
func NewExpenseFromBody(p *RequestBodyParser) core.NewExpense {
	return core.NewExpense{
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
		Date:     p.Get("date"),
	}
}

// PatchFromBody reads the edit form. Blank fields are left out of the
// patch.
func PatchFromBody(p *RequestBodyParser) (core.ExpensePatch, error) {
	return core.ParseExpensePatch(p.Get("amount"), p.Get("category"), p.Get("note"))
}

// BudgetFromBody returns the raw budget input and its amount; anything that
// is not a number counts as 0.
func BudgetFromBody(p *RequestBodyParser) (string, decimal.Decimal) {
	raw := p.Get("amount")
	return raw, core.ParseBudgetAmount(raw)
}

// CredentialsFromBody reads the login form.
func CredentialsFromBody(p *RequestBodyParser) (username, password string) {
	return strings.TrimSpace(p.Get("username")), p.Secret("password")
}

// NewIncomeFromBody reads the add-income form.
func NewIncomeFromBody(p *RequestBodyParser) core.NewIncome {
	return core.NewIncome{
		Amount: p.Get("amount"),
		Source: p.Get("source"),
		Note:   p.Get("note"),
		Date:   p.Get("date"),
	}
}

// SignupFromBody reads the signup form.
func SignupFromBody(p *RequestBodyParser) core.Signup {
	return core.Signup{
		Username: p.Get("username"),
		Email:    p.Get("email"),
		Password: p.Secret("password"),
	}
}
