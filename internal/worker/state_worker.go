// Package worker runs the background jobs of the frontend: dropping cached
// page state when another replica reports a mutation, and purging expired
// sessions.
package worker

import (
	"context"
	"errors"
	"fmt"

	"spendwise/internal/cache"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/storage"
	"spendwise/internal/view"
)

// Consumer delivers events until ctx ends.
type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, events.Event) error) error
}

// StateWorker keeps per-session page state consistent across replicas.
type StateWorker struct {
	pages    cache.Cache[*view.Page]
	sessions storage.SessionStore
	logger   *applog.Logger
}

func NewStateWorker(pages cache.Cache[*view.Page], sessions storage.SessionStore, logger *applog.Logger) *StateWorker {
	return &StateWorker{
		pages:    pages,
		sessions: sessions,
		logger:   logger.WithComponent(applog.ComponentEvents),
	}
}

// HandleEvent drops the cached page of the event's session. The next request
// of that session starts from fresh loaders.
func (w *StateWorker) HandleEvent(ctx context.Context, e events.Event) error {
	if e.Session == "" {
		return fmt.Errorf("event %s without session", e.Type)
	}
	w.pages.Delete(e.Session)
	w.logger.DebugContext(ctx, "Dropped page state",
		applog.FieldEventType, string(e.Type),
		applog.FieldExpenseID, e.ExpenseID,
		applog.FieldMonth, e.Month)
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *StateWorker) Run(ctx context.Context, c Consumer) error {
	w.logger.InfoContext(ctx, "Page state worker started")
	err := c.Consume(ctx, w.HandleEvent)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// PurgeSessions deletes expired sessions and reports how many went.
func (w *StateWorker) PurgeSessions(ctx context.Context) int {
	n, err := w.sessions.PurgeExpired(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to purge sessions", applog.FieldError, err)
		return 0
	}
	return n
}

// SessionCleaner adapts PurgeSessions for cache.Manager.
func (w *StateWorker) SessionCleaner() cache.Cleaner {
	return cache.CleanerFunc(func() int {
		return w.PurgeSessions(context.Background())
	})
}

// StartupCheck purges sessions that expired while the process was down.
func (w *StateWorker) StartupCheck(ctx context.Context) {
	if n := w.PurgeSessions(ctx); n > 0 {
		w.logger.InfoContext(ctx, "Purged expired sessions on startup", "count", n)
	}
}
