// Package export writes plates and residual histories as standalone SVG.
package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/haloplate/internal/viz"
)

// GridToSVG draws one square of side cell per grid value, coloured by
// theme between lo and hi. NaN cells are left transparent.
func GridToSVG(grid [][]float64, lo, hi float64, theme viz.Theme, cell float64) string {
	if len(grid) == 0 {
		return ""
	}
	cols := 0
	for _, row := range grid {
		cols = max(cols, len(row))
	}

	width := float64(cols) * cell
	height := float64(len(grid)) * cell
	span := hi - lo
	if span == 0 {
		span = 1
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))

	for i, row := range grid {
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>(%d,%d) %.4f</title></rect>
`, float64(j)*cell, float64(i)*cell, cell, cell, string(theme.Color((v-lo)/span)), i, j, v))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ResidualsToSVG plots the residual history on a log scale. Non-positive
// residuals are clamped to the smallest positive one.
func ResidualsToSVG(residuals []float64, width, height int, strokeColor string) string {
	if len(residuals) < 2 {
		return ""
	}

	floor := math.Inf(1)
	for _, r := range residuals {
		if r > 0 {
			floor = math.Min(floor, r)
		}
	}
	if math.IsInf(floor, 1) {
		floor = 1
	}

	ys := make([]float64, len(residuals))
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i, r := range residuals {
		ys[i] = math.Log10(math.Max(r, floor))
		minY = math.Min(minY, ys[i])
		maxY = math.Max(maxY, ys[i])
	}

	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2
	rangeX := float64(len(residuals) - 1)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, y := range ys {
		px := float64(i) / rangeX * float64(width)
		py := float64(height) - (y-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", px, py))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", px, py))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
