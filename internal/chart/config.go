// Package chart builds Chart.js configurations server-side and tracks which
// canvas holds which chart instance.
package chart

import (
	"github.com/shopspring/decimal"

	"spendwise/internal/core"
)

// Kind is a Chart.js chart type.
type Kind string

const (
	Doughnut Kind = "doughnut"
	Line     Kind = "line"
	Bar      Kind = "bar"
)

// Config is the JSON handed to `new Chart(canvas, config)`.
type Config struct {
	Type    Kind    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
	// TickCurrency asks the browser adapter to format y ticks in this ISO
	// currency. Empty means plain numbers.
	TickCurrency string `json:"tickCurrency,omitempty"`
}

// Data holds the labels and the series of a chart.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one series; colors are per point for doughnuts.
type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor any       `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

// Options is the subset of Chart.js options the builders set.
type Options struct {
	Responsive          bool            `json:"responsive"`
	MaintainAspectRatio bool            `json:"maintainAspectRatio"`
	Plugins             Plugins         `json:"plugins"`
	Scales              map[string]Axis `json:"scales,omitempty"`
}

type Plugins struct {
	Legend Legend `json:"legend"`
}

type Legend struct {
	Display  bool   `json:"display"`
	Position string `json:"position,omitempty"`
}

type Axis struct {
	BeginAtZero bool `json:"beginAtZero"`
}

// Opts tune a chart built by Category or Trend.
type Opts struct {
	Label     string
	Palette   Palette
	Formatter core.Formatter
	// Legend position; "" hides the legend.
	Legend string
}

const uncategorized = "Uncategorized"

// Category builds the spending-by-category doughnut.
func Category(labels []string, values []decimal.Decimal, o Opts) Config {
	out := make([]string, len(labels))
	for i, l := range labels {
		if l == "" {
			l = uncategorized
		}
		out[i] = l
	}
	pal := o.Palette
	if len(pal) == 0 {
		pal = DefaultPalette
	}
	return Config{
		Type: Doughnut,
		Data: Data{
			Labels: out,
			Datasets: []Dataset{{
				Label:           o.Label,
				Data:            floats(values),
				BackgroundColor: pal.Colors(len(values)),
			}},
		},
		Options: Options{
			Responsive: true,
			Plugins:    Plugins{Legend: legend(o.Legend)},
		},
		TickCurrency: currency(o.Formatter),
	}
}

// Trend builds a single-series line or bar chart over months.
func Trend(kind Kind, labels []string, values []decimal.Decimal, o Opts) Config {
	pal := o.Palette
	if len(pal) == 0 {
		pal = DefaultPalette
	}
	ds := Dataset{Label: o.Label, Data: floats(values)}
	switch kind {
	case Line:
		ds.BorderColor = pal.At(0)
		ds.BackgroundColor = pal.Fill(0)
		ds.Fill = true
		ds.Tension = 0.3
	default:
		kind = Bar
		ds.BackgroundColor = pal.At(0)
	}
	return Config{
		Type: kind,
		Data: Data{
			Labels:   append([]string{}, labels...),
			Datasets: []Dataset{ds},
		},
		Options: Options{
			Responsive: true,
			Plugins:    Plugins{Legend: legend(o.Legend)},
			Scales:     map[string]Axis{"y": {BeginAtZero: true}},
		},
		TickCurrency: currency(o.Formatter),
	}
}

func legend(pos string) Legend {
	if pos == "" {
		return Legend{Display: false}
	}
	return Legend{Display: true, Position: pos}
}

func currency(f core.Formatter) string {
	if f == nil {
		return ""
	}
	return f.Currency()
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = core.Float(v)
	}
	return out
}
