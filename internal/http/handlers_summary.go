package http

import (
	"errors"
	"net/http"

	"golang.org/x/sync/errgroup"

	"spendwise/internal/backend"
	"spendwise/internal/core"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/tabs"
	"spendwise/internal/view"
)

// handleSummary renders total, charts and budget progress for the surface
// named by ?surface=. The budget is fetched alongside the summary when the
// session has not loaded it yet.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := s.page(r)
	ac := s.authContext(r)
	sf := view.SurfaceByName(r.URL.Query().Get("surface"))
	ticket := page.Summary.Next()

	budget, haveBudget := page.Budget.Current()
	var (
		g                 errgroup.Group
		summary           core.Summary
		sumErr, budgetErr error
	)
	g.Go(func() error {
		var err error
		summary, err = s.backend.GetSummary(ctx, ac)
		return unauthorizedOnly(err, &sumErr)
	})
	if !haveBudget {
		g.Go(func() error {
			var err error
			budget, err = s.backend.GetBudget(ctx, ac)
			return unauthorizedOnly(err, &budgetErr)
		})
	}
	err := g.Wait()

	if !page.Summary.IsLatest(ticket) {
		s.stale(w, r, string(tabs.LoadSummary))
		return
	}
	if err == nil {
		err = sumErr
	}
	if s.backendFailure(w, r, err, applog.OpRead, "Unable to load summary") {
		return
	}
	if budgetErr != nil {
		s.logger.WarnContext(ctx, "Budget unavailable for progress bar", applog.FieldError, budgetErr)
		budget = core.Budget{}
	}

	sec, err := view.BuildSummary(summary, budget.Amount, page.Board(sf), sf)
	if err != nil {
		s.sl.LogError(ctx, "Chart render failed", err, applog.ComponentChart, applog.OpRender,
			applog.NewFields().WithComponent(applog.ComponentChart))
	}
	s.render(w, r, http.StatusOK, "summary", sec)
}

// handleLoadBudget fills the budget widget from the backend.
func (s *Server) handleLoadBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := s.page(r)
	ticket := page.Budget.Begin()

	b, err := s.backend.GetBudget(ctx, s.authContext(r))
	if !page.Budget.IsLatest(ticket) {
		s.stale(w, r, string(tabs.LoadBudget))
		return
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpRead)
		s.render(w, r, http.StatusOK, "budget_widget", view.BudgetWidget{
			Error: "Unable to load budget: " + backend.Message(err, "request failed"),
		})
		return
	}
	if !page.Budget.Apply(ticket, b) {
		s.stale(w, r, string(tabs.LoadBudget))
		return
	}
	s.render(w, r, http.StatusOK, "budget_widget", view.LoadedBudget(b))
}

// handleSetBudget saves the month's budget and refreshes the summary so
// the progress bar compares against the new amount. Once the backend has
// accepted the write it is always logged, published and announced, even
// when a newer load superseded this request.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	raw, amount := BudgetFromBody(p)
	page := s.page(r)
	ticket := page.Budget.Begin()

	b, err := s.backend.SetBudget(ctx, s.authContext(r), amount)
	if errors.Is(err, backend.ErrUnauthorized) {
		redirect(w, r, "/login")
		return
	}
	if err != nil {
		s.logBackendError(r, err, applog.OpSetBudget)
		s.render(w, r, http.StatusOK, "budget_widget", view.FailedBudget(raw, backend.Message(err, "request failed")))
		return
	}
	s.sl.LogMutation(ctx, applog.OpSetBudget, "", "", b.Amount.String())

	e := events.New(events.BudgetSet, sessionID(r))
	e.Month = b.Month
	s.publish(r, e)

	// A load issued while the set was in flight may hold the old amount.
	// The write stands; drop the cache and let the widget refetch.
	if !page.Budget.Apply(ticket, b) {
		page.Budget.Invalidate()
		s.logger.DebugContext(ctx, "Budget set superseded by a newer load",
			applog.FieldLoader, string(tabs.LoadBudget))
		NoContent().
			TriggerBudgetReload().
			TriggerSummaryRefresh().
			TriggerBudgetRefresh().
			Write(w)
		return
	}

	html, ok := s.partial(w, r, "budget_widget", view.SavedBudget(b))
	if !ok {
		return
	}
	NewHTMXResponse().
		TriggerSummaryRefresh().
		TriggerBudgetRefresh().
		BodyHTML(html).
		Write(w)
}
