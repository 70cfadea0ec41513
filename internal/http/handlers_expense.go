package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/backend"
	"spendwise/internal/core"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/tabs"
	"spendwise/internal/view"
)

// handleListExpenses renders the month-grouped expense list.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	page := s.page(r)
	ticket := page.Expenses.Next()

	items, err := s.backend.ListExpenses(r.Context(), s.authContext(r))
	if !page.Expenses.IsLatest(ticket) {
		s.stale(w, r, string(tabs.LoadExpenses))
		return
	}
	if s.backendFailure(w, r, err, applog.OpList, "Unable to load expenses") {
		return
	}
	s.render(w, r, http.StatusOK, "expense_list", view.GroupByMonth(items))
}

// handleCreateExpense submits the add form. On success the form resets and
// the view tab is shown with the refreshed list.
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	in := NewExpenseFromBody(p)

	err := s.backend.AddExpense(ctx, s.authContext(r), in)
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpCreate)
		ErrorResponse(failureStatus(err), "Error: "+backend.Message(err, "failed to add expense")).Write(w)
		return
	}
	s.sl.LogMutation(ctx, applog.OpCreate, "", in.Category, in.Amount)

	e := events.New(events.ExpenseCreated, sessionID(r))
	e.Month, _ = core.MonthKey(in.Date)
	s.publish(r, e)

	NewHTMXResponse().
		TriggerFormReset().
		TriggerExpensesChanged().
		TriggerShowTab(string(tabs.View)).
		BodyHTML(`<div class="status">Added</div>`).
		Write(w)
}

// handleEditExpense returns the edit form row with the current values as
// placeholders.
func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	items, err := s.backend.ListExpenses(r.Context(), s.authContext(r))
	if s.backendFailure(w, r, err, applog.OpRead, "Unable to load expense") {
		return
	}
	for _, e := range items {
		if e.ID == id {
			s.render(w, r, http.StatusOK, "expense_edit", e)
			return
		}
	}
	NotFoundError("Expense not found").Write(w)
}

// handleUpdateExpense applies the edit form as a partial update. A form
// with every field blank is a no-op.
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	patch, err := PatchFromBody(p)
	if err != nil {
		UnprocessableEntityError("Invalid amount").
			TriggerErrorNotification("Invalid amount").
			Write(w)
		return
	}
	if patch.IsEmpty() {
		NoContent().Write(w)
		return
	}

	err = s.backend.UpdateExpense(ctx, s.authContext(r), id, patch)
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpUpdate)
		msg := backend.Message(err, "Update failed")
		ErrorResponse(failureStatus(err), msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	amount := ""
	if patch.Amount != nil {
		amount = patch.Amount.String()
	}
	s.sl.LogMutation(ctx, applog.OpUpdate, id, "", amount)

	e := events.New(events.ExpenseUpdated, sessionID(r))
	e.ExpenseID = id
	s.publish(r, e)

	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerSuccessNotification("Expense updated").
		Write(w)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	err := s.backend.DeleteExpense(ctx, s.authContext(r), id)
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpDelete)
		msg := backend.Message(err, "Delete failed")
		ErrorResponse(failureStatus(err), msg).TriggerErrorNotification(msg).Write(w)
		return
	}
	s.sl.LogMutation(ctx, applog.OpDelete, id, "", "")

	e := events.New(events.ExpenseDeleted, sessionID(r))
	e.ExpenseID = id
	s.publish(r, e)

	NewHTMXResponse().
		TriggerExpensesChanged().
		TriggerSuccessNotification("Expense deleted").
		Write(w)
}
