package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/haloplate/internal/collect"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/plate"
)

const (
	DefaultRows       = 4
	DefaultCols       = 16
	DefaultIterations = 18
	DefaultRanks      = 4
	DefaultHot        = 100.0
	DefaultCold       = 0.0
)

// Config is the on-disk description of a run.
type Config struct {
	Rows       int            `yaml:"rows" json:"rows"`
	Cols       int            `yaml:"cols" json:"cols"`
	Iterations int            `yaml:"iterations" json:"iterations"`
	Ranks      int            `yaml:"ranks" json:"ranks"`
	Workers    int            `yaml:"workers" json:"workers"`
	Topology   plate.Topology `yaml:"topology" json:"topology"`
	Strategy   halo.Strategy  `yaml:"strategy" json:"strategy"`
	Diagnostic bool           `yaml:"diagnostic" json:"diagnostic"`
	Boundary   plate.Boundary `yaml:"boundary" json:"boundary"`
}

func DefaultConfig() *Config {
	return &Config{
		Rows:       DefaultRows,
		Cols:       DefaultCols,
		Iterations: DefaultIterations,
		Ranks:      DefaultRanks,
		Topology:   plate.Open,
		Strategy:   halo.SendRecv,
		Boundary: plate.Boundary{
			Top:    DefaultCold,
			Bottom: DefaultHot,
			Left:   DefaultHot,
			Right:  DefaultHot,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Plate returns the physical problem described by c.
func (c *Config) Plate() plate.Config {
	return plate.Config{
		Rows:       c.Rows,
		Cols:       c.Cols,
		Iterations: c.Iterations,
		Boundary:   c.Boundary,
		Topology:   c.Topology,
	}
}

func (c *Config) Mode() collect.Mode {
	if c.Diagnostic {
		return collect.Diagnostic
	}
	return collect.Core
}

func (c *Config) Validate() error {
	if c.Ranks < 1 {
		return plate.Configf("ranks", "must be at least 1, got %d", c.Ranks)
	}
	if c.Workers < 0 {
		return plate.Configf("workers", "must not be negative, got %d", c.Workers)
	}
	return c.Plate().Validate()
}
