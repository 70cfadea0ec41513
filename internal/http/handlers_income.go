package http

import (
	"errors"
	"net/http"
	"time"

	"spendwise/internal/backend"
	"spendwise/internal/core"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/view"
)

type incomeData struct {
	Title string
	Today string
}

const incomeLoader = "income"

// handleIncomePage renders the income page; the list loads on its own.
func (s *Server) handleIncomePage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "income.html", incomeData{
		Title: "Income",
		Today: time.Now().Format("2006-01-02"),
	})
}

// handleListIncome renders the income list with its total.
func (s *Server) handleListIncome(w http.ResponseWriter, r *http.Request) {
	page := s.page(r)
	ticket := page.Income.Next()

	items, err := s.backend.ListIncome(r.Context(), s.authContext(r))
	if !page.Income.IsLatest(ticket) {
		s.stale(w, r, incomeLoader)
		return
	}
	if s.backendFailure(w, r, err, applog.OpList, "Unable to load income") {
		return
	}
	s.render(w, r, http.StatusOK, "income_list", view.NewIncomeList(items, core.PlainFormatter{}))
}

// handleCreateIncome records one income entry. Amount, source and date are
// required before anything is sent.
func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	in := NewIncomeFromBody(p)
	if in.Missing() {
		UnprocessableEntityError("Amount, source and date are required").Write(w)
		return
	}
	if _, err := core.ParseAmount(in.Amount); err != nil {
		UnprocessableEntityError("Invalid amount").Write(w)
		return
	}

	err := s.backend.AddIncome(ctx, s.authContext(r), in)
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpCreate)
		ErrorResponse(failureStatus(err), "Error: "+backend.Message(err, "failed to add income")).Write(w)
		return
	}
	s.sl.LogMutation(ctx, applog.OpCreate, "", in.Source, in.Amount)

	e := events.New(events.IncomeCreated, sessionID(r))
	e.Month, _ = core.MonthKey(in.Date)
	s.publish(r, e)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerIncomeChanged().
		TriggerSuccessNotification("Income added").
		BodyHTML(`<div class="status">Added</div>`).
		Write(w)
}
