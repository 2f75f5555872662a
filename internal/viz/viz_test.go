package viz

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestRange(t *testing.T) {
	lo, hi := Range([][]float64{{3, math.NaN()}, {-1, 8}})
	if lo != -1 || hi != 8 {
		t.Errorf("expected [-1, 8], got [%f, %f]", lo, hi)
	}

	lo, hi = Range([][]float64{{math.NaN()}})
	if lo != 0 || hi != 0 {
		t.Errorf("expected empty range, got [%f, %f]", lo, hi)
	}
}

func TestHeatmapShape(t *testing.T) {
	grid := [][]float64{{0, 50, 100}, {100, math.NaN(), 0}}
	out := Heatmap(grid, 0, 100, ThemeThermal)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[1], "··") {
		t.Error("expected NaN cell marker")
	}
	if strings.Count(lines[0], cell) != 3 {
		t.Errorf("expected 3 cells in first row: %q", lines[0])
	}
}

func TestThemeColor(t *testing.T) {
	th := ThemeMono
	if th.Color(-1) != th.Cold || th.Color(2) != th.Hot {
		t.Error("expected clamping to palette ends")
	}
	if got := th.Color(0.5); got != lipgloss.Color("#808080") {
		t.Errorf("expected mid colour, got %s", got)
	}
	if got := th.Color(0.25); got != lipgloss.Color("#404040") {
		t.Errorf("expected #404040, got %s", got)
	}
}

func TestGetTheme(t *testing.T) {
	if GetTheme("ocean").Name != "ocean" {
		t.Error("expected ocean theme")
	}
	if GetTheme("missing").Name != "thermal" {
		t.Error("expected fallback to thermal")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}

func TestResidualPlot(t *testing.T) {
	if ResidualPlot(nil, 20, 4) != "" {
		t.Error("expected empty plot for no data")
	}
	out := ResidualPlot([]float64{12.5, 6.25, 3.1, 1.5}, 20, 4)
	if !strings.Contains(out, "per iteration") {
		t.Errorf("missing caption:\n%s", out)
	}
	if out := ResidualPlot([]float64{1}, 10, 3); out == "" {
		t.Error("expected plot for single point")
	}
}

func TestSparklineAndProgress(t *testing.T) {
	if got := Sparkline(nil, 5); got != "─────" {
		t.Errorf("unexpected empty sparkline %q", got)
	}
	if got := Sparkline([]float64{1, 2, 3}, 10); strings.Count(got, "▁")+strings.Count(got, "█")+strings.Count(got, "▄") != 3 {
		t.Errorf("unexpected sparkline %q", got)
	}
	bar := ProgressBar(0.5, 10)
	if strings.Count(bar, "█") != 5 || strings.Count(bar, "░") != 5 {
		t.Errorf("unexpected bar %q", bar)
	}
}
