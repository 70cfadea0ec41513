// Package core provides the SpendWise domain types and money handling.
//
// Amounts travel as decimals end to end. Display goes through a Formatter so
// that a rendered surface uses exactly one currency style.
package core

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

func init() {
	// The backend expects JSON numbers for amounts.
	decimal.MarshalJSONWithoutQuotes = true
}

// ParseAmount parses a decimal amount. A lone comma is the decimal
// separator ("1,5"); with a dot present, or with several commas, commas
// group thousands ("1,234.50").
func ParseAmount(s string) (decimal.Decimal, error) {
	s = normalizeAmount(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

func normalizeAmount(s string) string {
	s = strings.TrimSpace(s)
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		return strings.Replace(s, ",", ".", 1)
	}
	return strings.ReplaceAll(s, ",", "")
}

// ParseBudgetAmount reads the budget input the way a lenient number parser
// does: the longest numeric prefix counts ("12abc" is 12) and anything
// without one is 0.
func ParseBudgetAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(numericPrefix(normalizeAmount(s)))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// numericPrefix returns the leading [sign]digits[.digits] of s.
func numericPrefix(s string) string {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j > i+1 || digits > 0 {
			digits += j - i - 1
			i = j
		}
	}
	if digits == 0 {
		return ""
	}
	return strings.TrimSuffix(s[:i], ".")
}

// Formatter renders a monetary amount for display.
type Formatter interface {
	Format(d decimal.Decimal) string
	// Currency is the ISO code used for chart tick hints, "" for plain.
	Currency() string
}

// PlainFormatter prints two fixed decimals without a symbol.
type PlainFormatter struct{}

func (PlainFormatter) Format(d decimal.Decimal) string { return d.StringFixed(2) }
func (PlainFormatter) Currency() string                { return "" }

// INRFormatter prints Indian rupees with symbol and grouping, e.g. ₹1,234.50.
type INRFormatter struct{}

func (INRFormatter) Format(d decimal.Decimal) string {
	paise := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(paise, money.INR).Display()
}

func (INRFormatter) Currency() string { return money.INR }

// Float converts for chart payloads; never use the result for arithmetic.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
