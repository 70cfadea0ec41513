package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentBackend, Output: &buf})

	l.Info("hello", "k", "v")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec[FieldComponent] != ComponentBackend || rec["k"] != "v" {
		t.Errorf("unexpected record: %v", rec)
	}
}

func TestWithComponentDoesNotDuplicate(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Format: "text", Output: &buf}).WithComponent(ComponentChart)
	l.Warn("x")

	if got := strings.Count(buf.String(), "component="); got != 1 {
		t.Errorf("component logged %d times: %q", got, buf.String())
	}
	if !strings.Contains(buf.String(), "component=chart") {
		t.Errorf("missing component: %q", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Error("FromContext without logger should fall back to the default")
	}

	l := New(DefaultConfig())
	var got *Logger
	h := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if got != l {
		t.Error("Middleware should place the logger in the request context")
	}
}

func TestLogHTTPEndLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Format: "text", Output: &buf}))
	r := httptest.NewRequest(http.MethodGet, "/ui/summary", nil)
	r.Header.Set("HX-Request", "true")

	sl.LogHTTPEnd(context.Background(), r, 503, 12, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=ERROR") || !strings.Contains(buf.String(), "htmx=true") {
		t.Errorf("unexpected output: %q", buf.String())
	}

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("bad"), ComponentView, OpRender, nil)
	if !strings.Contains(buf.String(), "error=bad") || !strings.Contains(buf.String(), "operation=render") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWithExpenseSkipsEmpty(t *testing.T) {
	f := NewFields().WithExpense("42", "", "")
	if _, ok := f[FieldCategory]; ok {
		t.Error("empty category should be skipped")
	}
	if f[FieldExpenseID] != "42" {
		t.Errorf("expense id = %v", f[FieldExpenseID])
	}
}
