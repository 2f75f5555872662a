package storage

import (
	"encoding/json"
	"io"
	"math"
	"os"

	"github.com/san-kum/haloplate/internal/config"
	"github.com/san-kum/haloplate/internal/metrics"
	"github.com/san-kum/haloplate/internal/solver"
)

// ExportData is a self-contained JSON description of one run.
type ExportData struct {
	Config    *config.Config     `json:"config"`
	Widths    []int              `json:"widths"`
	Residuals []float64          `json:"residuals"`
	Grid      [][]*float64       `json:"grid"`
	Metrics   map[string]float64 `json:"metrics"`
}

func ExportJSON(w io.Writer, cfg *config.Config, result *solver.Result) error {
	data := ExportData{
		Config:    cfg,
		Widths:    result.Widths,
		Residuals: result.Residuals,
		Grid:      nullable(result.Grid),
		Metrics:   metrics.Summarize(result.Grid),
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// nullable maps cells that JSON cannot carry, such as unreceived halos,
// to null.
func nullable(grid [][]float64) [][]*float64 {
	out := make([][]*float64, len(grid))
	for i, row := range grid {
		out[i] = make([]*float64, len(row))
		for j := range row {
			if math.IsNaN(row[j]) || math.IsInf(row[j], 0) {
				continue
			}
			out[i][j] = &row[j]
		}
	}
	return out
}

// ExportJSONFile writes the export to path, or to stdout when path is "-".
func ExportJSONFile(path string, cfg *config.Config, result *solver.Result) error {
	if path == "-" {
		return ExportJSON(os.Stdout, cfg, result)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return ExportJSON(file, cfg, result)
}
