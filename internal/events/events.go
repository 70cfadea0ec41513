// Package events describes the UI-side changes other replicas care about.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type Type string

const (
	ExpenseCreated Type = "expense.created"
	ExpenseUpdated Type = "expense.updated"
	ExpenseDeleted Type = "expense.deleted"
	BudgetSet      Type = "budget.set"
	IncomeCreated  Type = "income.created"
)

// Event is published after a successful mutation. Session is the frontend
// session id whose cached page state became stale.
type Event struct {
	Type      Type      `json:"type"`
	Session   string    `json:"session"`
	ExpenseID string    `json:"expense_id,omitempty"`
	Month     string    `json:"month,omitempty"`
	At        time.Time `json:"at"`
	// Origin is the replica that published the event.
	Origin string `json:"origin,omitempty"`
}

func New(t Type, session string) Event {
	return Event{Type: t, Session: session, At: time.Now().UTC()}
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func FromJSON(data []byte) (Event, error) {
	var e Event
	err := json.Unmarshal(data, &e)
	return e, err
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
