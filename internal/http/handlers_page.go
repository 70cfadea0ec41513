package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"spendwise/internal/backend"
	"spendwise/internal/core"
	applog "spendwise/internal/log"
	"spendwise/internal/tabs"
	"spendwise/internal/view"
)

// TabPartial is the content of one tab: placeholders for its loaders and,
// on the add tab, the expense form.
type TabPartial struct {
	Tab     tabs.Tab
	Loaders map[string]bool
	Surface string
}

func newTabPartial(t tabs.Tab, loaders []tabs.Loader) TabPartial {
	p := TabPartial{Tab: t, Loaders: make(map[string]bool, len(loaders)), Surface: view.DashboardSurface.Name}
	for _, l := range loaders {
		p.Loaders[string(l)] = true
	}
	if t == tabs.View {
		p.Surface = view.ExpenseSurface.Name
	}
	return p
}

type shellData struct {
	Title  string
	Active tabs.Tab
	Tab    TabPartial
}

// handleIndex renders the single-page shell with ?tab= active. Without
// ?tab= the session's last shown tab is restored.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page := s.page(r)
	t := page.Tabs.Active()
	if q := r.URL.Query().Get("tab"); q != "" {
		t = tabs.Parse(q)
	}
	loaders := page.Tabs.Show(t)
	s.render(w, r, http.StatusOK, "index.html", shellData{
		Title:  t.Label(),
		Active: t,
		Tab:    newTabPartial(t, loaders),
	})
}

// handleTab switches the session's active tab and returns its partial.
func (s *Server) handleTab(w http.ResponseWriter, r *http.Request) {
	page := s.page(r)
	t := tabs.Parse(chi.URLParam(r, "tab"))
	loaders := page.Tabs.Show(t)
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Tab shown",
		applog.FieldTab, string(t),
		applog.FieldLoader, len(loaders))
	s.render(w, r, http.StatusOK, "tab", newTabPartial(t, loaders))
}

type analyticsData struct {
	Title      string
	Loaded     bool
	Section    view.AnalyticsSection
	Prediction string
	Errors     []string
}

// handleAnalytics fetches analytics and the prediction concurrently. Each
// fetch owns its section; a 401 from either redirects to login.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ac := s.authContext(r)
	sf := view.AnalyticsSurface

	var (
		g          errgroup.Group
		analytics  core.Analytics
		prediction core.Prediction
		aErr, pErr error
	)
	g.Go(func() error {
		var err error
		analytics, err = s.backend.GetAnalytics(ctx, ac)
		return unauthorizedOnly(err, &aErr)
	})
	g.Go(func() error {
		var err error
		prediction, err = s.backend.GetPrediction(ctx, ac)
		return unauthorizedOnly(err, &pErr)
	})
	if err := g.Wait(); err != nil {
		s.backendFailure(w, r, err, applog.OpRead, "")
		return
	}

	data := analyticsData{Title: "Analytics"}
	if aErr != nil {
		s.logBackendError(r, aErr, applog.OpRead)
		data.Errors = append(data.Errors, "Unable to load analytics: "+backend.Message(aErr, "request failed"))
	} else {
		sec, err := view.BuildAnalytics(analytics, s.page(r).Board(sf), sf)
		if err != nil {
			s.sl.LogError(ctx, "Chart render failed", err, applog.ComponentChart, applog.OpRender, nil)
			data.Errors = append(data.Errors, chartErrors(err)...)
		}
		data.Loaded = true
		data.Section = sec
	}
	if pErr != nil {
		s.logBackendError(r, pErr, applog.OpRead)
		data.Prediction = "Unavailable"
	} else {
		data.Prediction = view.PredictionText(prediction, sf.Formatter)
	}

	s.render(w, r, http.StatusOK, "analytics.html", data)
}

// unauthorizedOnly lets a 401 abort the group; any other error is recorded
// for its own section.
func unauthorizedOnly(err error, section *error) error {
	if errors.Is(err, backend.ErrUnauthorized) {
		return err
	}
	*section = err
	return nil
}

func chartErrors(err error) []string {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, "Chart error: "+e.Error())
		}
		return out
	}
	return []string{"Chart error: " + err.Error()}
}
