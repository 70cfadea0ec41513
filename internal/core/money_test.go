package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"1,234.50", "1234.5", true},
		{"1,234,567", "1234567", true},
		{" 2.50 ", "2.5", true},
		{"-4", "-4", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseBudgetAmountDefaultsToZero(t *testing.T) {
	if got := ParseBudgetAmount("not a number"); !got.IsZero() {
		t.Fatalf("expected 0, got %s", got)
	}
	if got := ParseBudgetAmount(""); !got.IsZero() {
		t.Fatalf("expected 0 for blank, got %s", got)
	}
	if got := ParseBudgetAmount("250.5"); !got.Equal(decimal.RequireFromString("250.5")) {
		t.Fatalf("expected 250.5, got %s", got)
	}
}

func TestParseBudgetAmountKeepsNumericPrefix(t *testing.T) {
	cases := map[string]string{
		"12abc":     "12",
		"-3.5kg":    "-3.5",
		".5":        "0.5",
		"7.":        "7",
		"1,234.5 $": "1234.5",
		"+":         "0",
		"-.":        "0",
	}
	for in, want := range cases {
		if got := ParseBudgetAmount(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseBudgetAmount(%q) = %s want %s", in, got, want)
		}
	}
}

func TestPlainFormatter(t *testing.T) {
	f := PlainFormatter{}
	if got := f.Format(decimal.RequireFromString("50")); got != "50.00" {
		t.Fatalf("got %q", got)
	}
	if got := f.Format(decimal.RequireFromString("12.345")); got != "12.35" {
		t.Fatalf("got %q", got)
	}
	if f.Currency() != "" {
		t.Fatalf("plain formatter must not carry a currency")
	}
}

func TestINRFormatter(t *testing.T) {
	f := INRFormatter{}
	got := f.Format(decimal.RequireFromString("1234.5"))
	if got != "₹1,234.50" {
		t.Fatalf("got %q", got)
	}
	if f.Currency() != "INR" {
		t.Fatalf("currency = %q", f.Currency())
	}
}
