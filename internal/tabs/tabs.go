// Package tabs tracks which top-level section of the single page is shown
// and which loaders a switch triggers.
package tabs

import (
	"strings"
	"sync"
)

type Tab string

const (
	Dashboard Tab = "dashboard"
	Add       Tab = "add"
	View      Tab = "view"
)

// All lists tabs in navigation order.
var All = []Tab{Dashboard, Add, View}

// Loader names a data section refreshed on tab activation.
type Loader string

const (
	LoadBudget   Loader = "budget"
	LoadSummary  Loader = "summary"
	LoadExpenses Loader = "expenses"
)

var loaders = map[Tab][]Loader{
	View:      {LoadBudget, LoadSummary, LoadExpenses},
	Dashboard: {LoadBudget, LoadSummary},
	Add:       nil,
}

// Parse accepts tab names and their section element ids, e.g.
// "viewSection". Anything else maps to Dashboard.
func Parse(s string) Tab {
	s = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(s)), "section")
	switch Tab(s) {
	case Add:
		return Add
	case View:
		return View
	default:
		return Dashboard
	}
}

// SectionID is the DOM id of the tab's section.
func (t Tab) SectionID() string { return string(t) + "Section" }

// Label is the navigation text of t.
func (t Tab) Label() string {
	switch t {
	case Add:
		return "Add Expense"
	case View:
		return "View Expenses"
	default:
		return "Dashboard"
	}
}

// Loaders returns the sections to refresh when t becomes active.
func (t Tab) Loaders() []Loader {
	return append([]Loader(nil), loaders[t]...)
}

// Controller holds the active tab. The zero value is not usable; call New.
type Controller struct {
	mu     sync.Mutex
	active Tab
}

// New returns a controller showing Dashboard.
func New() *Controller {
	return &Controller{active: Dashboard}
}

// Show activates t and returns the loaders to run.
func (c *Controller) Show(t Tab) []Loader {
	c.mu.Lock()
	c.active = Parse(string(t))
	active := c.active
	c.mu.Unlock()
	return active.Loaders()
}

// Active is the last tab shown.
func (c *Controller) Active() Tab {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}
