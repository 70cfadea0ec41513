package http

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"spendwise/internal/events"
	"spendwise/internal/view"
)

func TestIncomePageAndList(t *testing.T) {
	env := newMemoryEnv(t)
	cookie := env.login(t)

	rr := env.do(t, http.MethodGet, "/income", nil, cookie, false)
	if rr.Code != http.StatusOK {
		t.Fatalf("page status=%d", rr.Code)
	}
	mustContain(t, rr.Body.String(), `id="incomeForm"`, `hx-get="/ui/income"`, "income:changed from:body")

	rr = env.do(t, http.MethodGet, "/ui/income", nil, cookie, true)
	mustContain(t, rr.Body.String(), view.EmptyIncomeText, `id="totalIncome">0.00`)
}

func TestCreateIncome(t *testing.T) {
	env := newMemoryEnv(t)
	cookie := env.login(t)

	tests := []struct {
		name       string
		form       url.Values
		wantStatus int
		wantBody   string
	}{
		{"missing source", url.Values{"amount": {"10"}, "date": {"2024-03-01"}}, http.StatusUnprocessableEntity, "required"},
		{"invalid amount", url.Values{"amount": {"ten"}, "source": {"Gift"}, "date": {"2024-03-01"}}, http.StatusUnprocessableEntity, "Invalid amount"},
		{"backend rejects date", url.Values{"amount": {"10"}, "source": {"Gift"}, "date": {"March"}}, http.StatusUnprocessableEntity, "invalid date"},
		{"salary", url.Values{"amount": {"2500"}, "source": {"Salary"}, "date": {"2024-03-01"}}, http.StatusOK, "Added"},
		{"freelance", url.Values{"amount": {"1,234.50"}, "source": {"Freelance"}, "note": {"logo"}, "date": {"2024-03-05"}}, http.StatusOK, "Added"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/ui/income", tt.form, cookie, true)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status=%d want %d body=%s", rr.Code, tt.wantStatus, rr.Body.String())
			}
			mustContain(t, rr.Body.String(), tt.wantBody)
			if tt.wantStatus == http.StatusOK {
				mustContain(t, rr.Header().Get("HX-Trigger"), EventIncomeChanged, EventFormReset, "Income added")
			}
		})
	}

	recorded := env.events.Events()
	if len(recorded) != 2 || recorded[0].Type != events.IncomeCreated || recorded[0].Month != "2024-03" {
		t.Fatalf("events=%+v", recorded)
	}

	rr := env.do(t, http.MethodGet, "/ui/income", nil, cookie, true)
	body := rr.Body.String()
	mustContain(t, body, `id="totalIncome">3734.50`, "Salary", "1234.50", "logo")
	if strings.Index(body, "Freelance") > strings.Index(body, "Salary") {
		t.Fatal("income is listed newest first")
	}
}

func TestIncomeRequiresLogin(t *testing.T) {
	env := newMemoryEnv(t)

	rr := env.do(t, http.MethodGet, "/ui/income", nil, nil, true)
	if rr.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("list: HX-Redirect=%q", rr.Header().Get("HX-Redirect"))
	}
	rr = env.do(t, http.MethodPost, "/ui/income", url.Values{"amount": {"1"}, "source": {"Gift"}, "date": {"2024-03-01"}}, nil, true)
	if rr.Header().Get("HX-Redirect") != "/login" {
		t.Fatalf("create: HX-Redirect=%q", rr.Header().Get("HX-Redirect"))
	}
	if len(env.events.Events()) != 0 {
		t.Fatal("failed mutations publish nothing")
	}
}
