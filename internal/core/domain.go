package core

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type (
	// Expense as returned by the backend. Note and Date may be null on the
	// wire and decode to "".
	Expense struct {
		ID       string          `json:"id"`
		Amount   decimal.Decimal `json:"amount"`
		Category string          `json:"category"`
		Note     string          `json:"note"`
		Date     string          `json:"date"`
	}

	// NewExpense is the add-expense form payload. Amount keeps the raw user
	// input; the backend owns the parsing.
	NewExpense struct {
		Amount   string `json:"amount"`
		Category string `json:"category"`
		Note     string `json:"note"`
		Date     string `json:"date"`
	}

	// ExpensePatch is a partial update: nil fields are left unchanged.
	ExpensePatch struct {
		Amount   *decimal.Decimal `json:"amount,omitempty"`
		Category *string          `json:"category,omitempty"`
		Note     *string          `json:"note,omitempty"`
	}

	Budget struct {
		Month  string          `json:"month"`
		Amount decimal.Decimal `json:"amount"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyPatch    = errors.New("nothing to update")
)

// IsEmpty reports whether the patch would change nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Amount == nil && p.Category == nil && p.Note == nil
}

// ParseExpensePatch builds a patch from edit-form fields. Blank fields are
// dropped; a non-blank amount must parse as a decimal.
func ParseExpensePatch(amount, category, note string) (ExpensePatch, error) {
	var p ExpensePatch
	if v := strings.TrimSpace(amount); v != "" {
		d, err := ParseAmount(v)
		if err != nil {
			return ExpensePatch{}, err
		}
		p.Amount = &d
	}
	if v := strings.TrimSpace(category); v != "" {
		p.Category = &v
	}
	if v := strings.TrimSpace(note); v != "" {
		p.Note = &v
	}
	return p, nil
}

// MonthKey returns the YYYY-MM prefix of an ISO date, or ok=false when the
// date is too short or not shaped like a month.
func MonthKey(date string) (string, bool) {
	if len(date) < 7 {
		return "", false
	}
	key := date[:7]
	for i := 0; i < 7; i++ {
		c := key[i]
		if i == 4 {
			if c != '-' {
				return "", false
			}
			continue
		}
		if c < '0' || c > '9' {
			return "", false
		}
	}
	return key, true
}
