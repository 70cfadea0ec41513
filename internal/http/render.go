package http

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/shopspring/decimal"

	"spendwise/internal/core"
	"spendwise/internal/tabs"
)

// Renderer executes the embedded templates. Output is buffered so a failing
// template never leaves a half-written response.
type Renderer struct {
	templates *template.Template
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"plain": func(d decimal.Decimal) string { return core.PlainFormatter{}.Format(d) },
		"tabs":  func() []tabs.Tab { return tabs.All },
		"sectionID": func(t tabs.Tab) string {
			return t.SectionID()
		},
	}
}

// NewRenderer parses templates/*.html from fsys.
func NewRenderer(fsys fs.FS) (*Renderer, error) {
	t, err := template.New("").Funcs(funcMap()).ParseFS(fsys, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: t}, nil
}

// RenderToString renders a template to a string
func (r *Renderer) RenderToString(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Render writes template name as an HTML response with status.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
	return nil
}

// Has reports whether a template with this name is defined.
func (r *Renderer) Has(name string) bool {
	return r.templates.Lookup(name) != nil
}
