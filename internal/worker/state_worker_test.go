package worker

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/cache"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/storage"
	"spendwise/internal/view"
)

type fakeConsumer struct {
	events []events.Event
	err    error
}

func (f fakeConsumer) Consume(ctx context.Context, handler func(context.Context, events.Event) error) error {
	for _, e := range f.events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return f.err
}

func newWorker(t *testing.T) (*StateWorker, *cache.LRUCache[*view.Page], *storage.MemoryStore) {
	t.Helper()
	pages := cache.NewLRUCache[*view.Page](10, time.Hour)
	sessions := storage.NewMemoryStore()
	logger := applog.New(applog.Config{Output: &bytes.Buffer{}})
	return NewStateWorker(pages, sessions, logger), pages, sessions
}

func TestHandleEventDropsPage(t *testing.T) {
	w, pages, _ := newWorker(t)
	pages.Set("s1", view.NewPage())
	pages.Set("s2", view.NewPage())

	require.NoError(t, w.HandleEvent(context.Background(), events.New(events.BudgetSet, "s1")))

	_, ok := pages.Get("s1")
	assert.False(t, ok)
	_, ok = pages.Get("s2")
	assert.True(t, ok)
}

func TestHandleEventRequiresSession(t *testing.T) {
	w, _, _ := newWorker(t)
	assert.Error(t, w.HandleEvent(context.Background(), events.Event{Type: events.ExpenseCreated}))
}

func TestRunTreatsCancelAsClean(t *testing.T) {
	w, pages, _ := newWorker(t)
	pages.Set("s1", view.NewPage())

	err := w.Run(context.Background(), fakeConsumer{
		events: []events.Event{events.New(events.ExpenseDeleted, "s1")},
		err:    context.Canceled,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, pages.Size())
}

func TestSessionCleaner(t *testing.T) {
	w, _, sessions := newWorker(t)
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	sessions.WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, sessions.Put(ctx, "old", "tok", time.Minute))
	require.NoError(t, sessions.Put(ctx, "new", "tok", time.Hour))
	now = now.Add(10 * time.Minute)

	m := cache.NewManager(nil)
	m.Register("sessions", w.SessionCleaner())
	assert.Equal(t, 1, m.RunOnce(ctx))

	_, err := sessions.Get(ctx, "old")
	assert.ErrorIs(t, err, storage.ErrSessionNotFound)
}
