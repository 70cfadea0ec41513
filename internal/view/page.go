package view

import (
	"sync"

	"spendwise/internal/chart"
	"spendwise/internal/tabs"
)

// Page is the per-session state of the single-page UI.
type Page struct {
	Budget   BudgetState
	Summary  Sequencer
	Expenses Sequencer
	Income   Sequencer
	Tabs     *tabs.Controller

	mu     sync.Mutex
	boards map[string]*chart.Board
}

func NewPage() *Page {
	return &Page{Tabs: tabs.New(), boards: make(map[string]*chart.Board)}
}

// Board returns the chart board of surface, creating it on first use.
func (p *Page) Board(sf Surface) *chart.Board {
	p.mu.Lock()
	defer p.mu.Unlock()
	b, ok := p.boards[sf.Name]
	if !ok {
		b = chart.NewBoard(sf.Canvases()...)
		p.boards[sf.Name] = b
	}
	return b
}

// Live counts chart instances across all surfaces.
func (p *Page) Live() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, b := range p.boards {
		n += b.Live()
	}
	return n
}
