package core

import (
	"encoding/json"
	"testing"
)

func TestMonthKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-02", "2024-03", true},
		{"2024-03", "2024-03", true},
		{"2024-3-1", "", false},
		{"", "", false},
		{"Tue, 02 Mar 2024", "", false},
		{"abcd-ef", "", false},
	}
	for _, tc := range cases {
		got, ok := MonthKey(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("MonthKey(%q) = %q,%v want %q,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseExpensePatchDropsBlankFields(t *testing.T) {
	p, err := ParseExpensePatch("  ", "Food", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Amount != nil || p.Note != nil {
		t.Fatalf("blank fields must stay nil: %+v", p)
	}
	if p.Category == nil || *p.Category != "Food" {
		t.Fatalf("category not captured: %+v", p)
	}

	body, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(body) != `{"category":"Food"}` {
		t.Fatalf("patch body = %s", body)
	}
}

func TestParseExpensePatchEmptyAndInvalid(t *testing.T) {
	p, err := ParseExpensePatch("", "", "")
	if err != nil || !p.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v err=%v", p, err)
	}
	if _, err := ParseExpensePatch("ten", "", ""); err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestExpenseDecodesNullFields(t *testing.T) {
	var e Expense
	if err := json.Unmarshal([]byte(`{"id":"a1","amount":12.5,"category":"Food","note":null,"date":null}`), &e); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if e.Note != "" || e.Date != "" {
		t.Fatalf("null fields should decode empty: %+v", e)
	}
	if e.Amount.String() != "12.5" {
		t.Fatalf("amount = %s", e.Amount)
	}
}
