// Package web holds the page templates and the browser adapter.
package web

import "embed"

// TemplatesFS embeds the page shell, the HTMX partials and the login page.
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS embeds app.js and app.css.
//go:embed static/*
var StaticFS embed.FS
