package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
)

const cell = "██"

// Range returns the smallest and largest finite value in grid.
func Range(grid [][]float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, row := range grid {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if lo > hi {
		return 0, 0
	}
	return lo, hi
}

// Heatmap renders grid with one two-character block per cell. Values are
// scaled between lo and hi; NaN cells are drawn as dots.
func Heatmap(grid [][]float64, lo, hi float64, theme Theme) string {
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var b strings.Builder
	for _, row := range grid {
		for _, v := range row {
			if math.IsNaN(v) {
				b.WriteString(Subtle.Render("··"))
				continue
			}
			style := lipgloss.NewStyle().Foreground(theme.Color((v - lo) / span))
			b.WriteString(style.Render(cell))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Legend renders a width-cell colour bar labelled with lo and hi.
func Legend(lo, hi float64, width int, theme Theme) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%6.1f ", lo))
	for i := 0; i < width; i++ {
		frac := float64(i) / float64(max(width-1, 1))
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Color(frac)).Render("█"))
	}
	b.WriteString(fmt.Sprintf(" %.1f", hi))
	return b.String()
}

// ResidualPlot charts the residual history. Long histories are resampled to
// width points by asciigraph.
func ResidualPlot(residuals []float64, width, height int) string {
	if len(residuals) == 0 {
		return ""
	}
	data := residuals
	if len(data) == 1 {
		data = []float64{data[0], data[0]}
	}
	return asciigraph.Plot(data,
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.Precision(3),
		asciigraph.Caption("max |Δu| per iteration"))
}
