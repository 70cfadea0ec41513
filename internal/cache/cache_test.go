package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Get("a")
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("least recently used entry should be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size() = %d, want 2", c.Size())
	}
}

func TestLRUCacheSlidingTTL(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[string](10, time.Minute).WithClock(clk.now)
	c.Set("s", "page")

	clk.t = clk.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("entry expired too early")
	}
	clk.t = clk.t.Add(50 * time.Second)
	if _, ok := c.Get("s"); !ok {
		t.Fatal("read should have refreshed the TTL")
	}
	clk.t = clk.t.Add(2 * time.Minute)
	if _, ok := c.Get("s"); ok {
		t.Fatal("entry should expire after idle TTL")
	}
}

func TestGetOrCreate(t *testing.T) {
	c := NewLRUCache[*int](10, time.Hour)
	calls := 0
	create := func() *int { calls++; v := calls; return &v }

	first := c.GetOrCreate("k", create)
	second := c.GetOrCreate("k", create)
	if first != second || calls != 1 {
		t.Errorf("GetOrCreate created %d values, want 1", calls)
	}
	c.Delete("k")
	if third := c.GetOrCreate("k", create); third == first {
		t.Error("GetOrCreate after Delete should create a new value")
	}
}

func TestCleanExpiredAndManager(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	c := NewLRUCache[int](10, time.Minute).WithClock(clk.now)
	c.Set("a", 1)
	c.Set("b", 2)
	clk.t = clk.t.Add(2 * time.Minute)
	c.Set("c", 3)

	purged := 0
	m := NewManager(nil)
	m.Register("pages", c)
	m.Register("sessions", CleanerFunc(func() int { purged++; return 4 }))

	if got := m.RunOnce(context.Background()); got != 6 {
		t.Errorf("RunOnce() = %d, want 6", got)
	}
	if c.Size() != 1 || purged != 1 {
		t.Errorf("Size() = %d, purged = %d", c.Size(), purged)
	}

	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	NewManager(nil).Stop()
}
