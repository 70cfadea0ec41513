package chart

import "strings"

// Palette is an ordered colour list that repeats when exhausted.
type Palette []string

var DefaultPalette = Palette{
	"#4f46e5", "#06b6d4", "#f59e0b", "#10b981", "#ef4444",
	"#8b5cf6", "#ec4899", "#06b6d4", "#f97316", "#ecd1de42",
}

var AnalyticsPalette = Palette{
	"rgb(63, 81, 181)", "rgb(255, 152, 0)", "rgb(244, 67, 54)", "rgb(76, 175, 80)",
	"rgb(0, 188, 212)", "rgb(255, 193, 7)", "rgb(121, 85, 72)", "rgb(158, 158, 158)",
}

// Colors returns n colours, cycling through the palette.
func (p Palette) Colors(n int) []string {
	if n <= 0 || len(p) == 0 {
		return []string{}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = p[i%len(p)]
	}
	return out
}

func (p Palette) At(i int) string {
	if len(p) == 0 {
		return ""
	}
	return p[i%len(p)]
}

// Fill is a translucent variant of At(i) for area fills. Only rgb() entries
// are converted; hex entries are returned as is.
func (p Palette) Fill(i int) string {
	c := p.At(i)
	if strings.HasPrefix(c, "rgb(") {
		return "rgba(" + strings.TrimSuffix(strings.TrimPrefix(c, "rgb("), ")") + ", 0.2)"
	}
	return c
}
