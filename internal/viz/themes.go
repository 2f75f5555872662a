package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines the heat palette and accent colours.
type Theme struct {
	Name   string
	Cold   lipgloss.Color
	Mid    lipgloss.Color
	Hot    lipgloss.Color
	Accent lipgloss.Color
	Muted  lipgloss.Color
}

var (
	ThemeThermal = Theme{
		Name:   "thermal",
		Cold:   lipgloss.Color("#1a237e"),
		Mid:    lipgloss.Color("#ffeb3b"),
		Hot:    lipgloss.Color("#d50000"),
		Accent: lipgloss.Color("#00ffff"),
		Muted:  lipgloss.Color("#666688"),
	}

	ThemeInferno = Theme{
		Name:   "inferno",
		Cold:   lipgloss.Color("#000004"),
		Mid:    lipgloss.Color("#bc3754"),
		Hot:    lipgloss.Color("#fcffa4"),
		Accent: lipgloss.Color("#f98e09"),
		Muted:  lipgloss.Color("#57106e"),
	}

	ThemeOcean = Theme{
		Name:   "ocean",
		Cold:   lipgloss.Color("#001a33"),
		Mid:    lipgloss.Color("#0077be"),
		Hot:    lipgloss.Color("#e0f0ff"),
		Accent: lipgloss.Color("#ffd700"),
		Muted:  lipgloss.Color("#4488aa"),
	}

	ThemeMono = Theme{
		Name:   "mono",
		Cold:   lipgloss.Color("#000000"),
		Mid:    lipgloss.Color("#808080"),
		Hot:    lipgloss.Color("#ffffff"),
		Accent: lipgloss.Color("#0088ff"),
		Muted:  lipgloss.Color("#888888"),
	}

	Themes = []Theme{
		ThemeThermal,
		ThemeInferno,
		ThemeOcean,
		ThemeMono,
	}
)

// GetTheme returns a theme by name, falling back to thermal.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeThermal
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// Color maps frac in [0, 1] onto the theme's cold, mid and hot colours.
func (t Theme) Color(frac float64) lipgloss.Color {
	switch {
	case frac <= 0:
		return t.Cold
	case frac >= 1:
		return t.Hot
	case frac < 0.5:
		return lerp(t.Cold, t.Mid, frac*2)
	default:
		return lerp(t.Mid, t.Hot, (frac-0.5)*2)
	}
}
