package config

import (
	"sort"

	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/plate"
)

var Presets = map[string]*Config{
	"heated-plate": DefaultConfig(),
	"cold-plate": {
		Rows: 4, Cols: 16, Iterations: 18, Ranks: 4,
		Boundary: plate.Boundary{Top: 100, Bottom: 0, Left: 0, Right: 0},
	},
	"cylinder": {
		Rows: 8, Cols: 24, Iterations: 100, Ranks: 4, Topology: plate.Periodic,
		Boundary: plate.Boundary{Top: 0, Bottom: 100},
	},
	"hot-edges": {
		Rows: 16, Cols: 32, Iterations: 200, Ranks: 4,
		Boundary: plate.Boundary{Top: 0, Bottom: 0, Left: 100, Right: 100},
	},
	"large": {
		Rows: 256, Cols: 512, Iterations: 500, Ranks: 8, Strategy: halo.NonBlocking,
		Boundary: plate.Boundary{Top: 0, Bottom: 100, Left: 100, Right: 100},
	},
	"halo-demo": {
		Rows: 4, Cols: 8, Iterations: 0, Ranks: 4, Diagnostic: true,
	},
}

// GetPreset returns a copy of the named preset, or nil when it is unknown.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	return &c
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
