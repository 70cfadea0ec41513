package chart

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var ErrNoCanvas = errors.New("chart canvas not found")

// Instance is one chart bound to a canvas.
type Instance struct {
	ID        uint64
	Canvas    string
	Config    Config
	destroyed atomic.Bool
}

// Destroyed reports whether the instance was replaced or cleared.
func (i *Instance) Destroyed() bool { return i.destroyed.Load() }

// Binding is what a template needs to mount a chart: the canvas id and the
// encoded config.
type Binding struct {
	Canvas string
	JSON   string
}

// Board owns the chart instances of one surface. Canvases are declared up
// front; at most one live instance exists per canvas.
type Board struct {
	mu     sync.Mutex
	slots  map[string]*Instance
	nextID uint64
}

func NewBoard(canvases ...string) *Board {
	b := &Board{slots: make(map[string]*Instance, len(canvases))}
	for _, c := range canvases {
		b.slots[c] = nil
	}
	return b
}

// Render destroys whatever lives on canvas and binds cfg in its place.
func (b *Board) Render(canvas string, cfg Config) (*Instance, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev, ok := b.slots[canvas]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoCanvas, canvas)
	}
	if prev != nil {
		prev.destroyed.Store(true)
	}
	b.nextID++
	inst := &Instance{ID: b.nextID, Canvas: canvas, Config: cfg}
	b.slots[canvas] = inst
	return inst, nil
}

// Clear destroys the chart on canvas, leaving the slot empty.
func (b *Board) Clear(canvas string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev := b.slots[canvas]; prev != nil {
		prev.destroyed.Store(true)
		b.slots[canvas] = nil
	}
}

// Live counts canvases that currently hold a chart.
func (b *Board) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, inst := range b.slots {
		if inst != nil && !inst.destroyed.Load() {
			n++
		}
	}
	return n
}

// Binding returns the binding for a single canvas.
func (b *Board) Binding(canvas string) (Binding, bool) {
	b.mu.Lock()
	inst := b.slots[canvas]
	b.mu.Unlock()
	if inst == nil {
		return Binding{}, false
	}
	data, err := json.Marshal(inst.Config)
	if err != nil {
		return Binding{}, false
	}
	return Binding{Canvas: canvas, JSON: string(data)}, true
}
