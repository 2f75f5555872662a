package storage

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/haloplate/internal/config"
	"github.com/san-kum/haloplate/internal/metrics"
	"github.com/san-kum/haloplate/internal/plate"
	"github.com/san-kum/haloplate/internal/solver"
)

const (
	metadataFile = "metadata.json"
	gridFile     = "grid.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Timestamp  time.Time          `json:"timestamp"`
	Rows       int                `json:"rows"`
	Cols       int                `json:"cols"`
	Ranks      int                `json:"ranks"`
	Iterations int                `json:"iterations"`
	Topology   string             `json:"topology"`
	Strategy   string             `json:"strategy"`
	Mode       string             `json:"mode"`
	Boundary   plate.Boundary     `json:"boundary"`
	Widths     []int              `json:"widths"`
	Residuals  []float64          `json:"residuals"`
	Elapsed    time.Duration      `json:"elapsed_ns"`
	Metrics    map[string]float64 `json:"metrics"`
}

// FinalResidual returns the residual of the last iteration, or 0 for a run
// without iterations.
func (m *RunMetadata) FinalResidual() float64 {
	if len(m.Residuals) == 0 {
		return 0
	}
	return m.Residuals[len(m.Residuals)-1]
}

// Save writes the run description and the gathered grid under a fresh run ID.
// Nothing is left on disk when a write fails.
func (s *Store) Save(cfg *config.Config, result *solver.Result) (string, error) {
	runID := fmt.Sprintf("plate_%dx%d_%s", cfg.Rows, cfg.Cols, uuid.NewString()[:8])

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  time.Now(),
		Rows:       cfg.Rows,
		Cols:       cfg.Cols,
		Ranks:      cfg.Ranks,
		Iterations: result.Iterations,
		Topology:   cfg.Topology.String(),
		Strategy:   cfg.Strategy.String(),
		Mode:       cfg.Mode().String(),
		Boundary:   cfg.Boundary,
		Widths:     result.Widths,
		Residuals:  result.Residuals,
		Elapsed:    result.Elapsed,
		Metrics:    metrics.Summarize(result.Grid),
	}

	metaData, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", err
	}
	gridData, err := encodeGrid(result.Grid)
	if err != nil {
		return "", err
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, metadataFile), metaData, 0644); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := os.WriteFile(filepath.Join(runDir, gridFile), gridData, 0644); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

// encodeGrid renders grid as CSV. Unreceived halo cells are written as NaN
// and parse back as NaN.
func encodeGrid(grid [][]float64) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range grid {
		record := make([]string, len(row))
		for j, v := range row {
			record[j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadGrid(runID string) ([][]float64, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, gridFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	grid := make([][]float64, 0, len(records))
	for i, record := range records {
		row := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("storage: %s row %d col %d: %w", gridFile, i, j, err)
			}
			row[j] = v
		}
		grid = append(grid, row)
	}
	return grid, nil
}
