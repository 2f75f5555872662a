package plate

import (
	"fmt"
	"strings"
)

// Topology selects how the left and right edges of the plate behave.
type Topology int

const (
	// Open treats the outermost columns of the first and last rank as fixed
	// physical edges. Those ranks have no neighbour on the outer side.
	Open Topology = iota
	// Periodic wraps the ranks into a ring: rank 0's left neighbour is the
	// last rank. The plate becomes a cylinder without left or right edges.
	Periodic
)

func (t Topology) String() string {
	switch t {
	case Open:
		return "open"
	case Periodic:
		return "periodic"
	}
	return fmt.Sprintf("topology(%d)", int(t))
}

// ParseTopology accepts "open" or "periodic".
func ParseTopology(s string) (Topology, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open":
		return Open, nil
	case "periodic", "ring", "wrap":
		return Periodic, nil
	}
	return Open, Configf("topology", "unknown topology %q", s)
}

func (t Topology) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Topology) UnmarshalText(b []byte) error {
	v, err := ParseTopology(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Boundary holds the fixed values of the physical edges.
type Boundary struct {
	Top    float64 `yaml:"top" json:"top"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
	Right  float64 `yaml:"right" json:"right"`
}

// Config describes one solver run.
type Config struct {
	Rows       int
	Cols       int
	Iterations int
	Boundary   Boundary
	Topology   Topology
}

// HeatedPlate returns the classic 4x16 plate: top edge at 0, the other
// three edges at 100, 18 iterations.
func HeatedPlate() Config {
	return Config{
		Rows:       4,
		Cols:       16,
		Iterations: 18,
		Boundary:   Boundary{Top: 0, Bottom: 100, Left: 100, Right: 100},
		Topology:   Open,
	}
}

func (c Config) Validate() error {
	if c.Rows < 2 {
		return Configf("rows", "need at least 2 rows, got %d", c.Rows)
	}
	if c.Cols < 1 {
		return Configf("cols", "need at least 1 column, got %d", c.Cols)
	}
	if c.Iterations < 0 {
		return Configf("iterations", "must not be negative, got %d", c.Iterations)
	}
	if c.Topology != Open && c.Topology != Periodic {
		return Configf("topology", "unknown topology %d", int(c.Topology))
	}
	return nil
}

// BoundaryMean is the perimeter-weighted mean of the physical edge values,
// used as the initial guess for every interior cell. Corner cells count in
// the perimeter length but not in the sum.
func (c Config) BoundaryMean() float64 {
	b := c.Boundary
	if c.Topology == Periodic {
		return (b.Top + b.Bottom) / 2
	}
	perimeter := 2*c.Rows + 2*c.Cols - 4
	if perimeter <= 0 {
		return 0
	}
	sum := float64(max(c.Rows-2, 0))*(b.Left+b.Right) + float64(max(c.Cols-2, 0))*(b.Top+b.Bottom)
	return sum / float64(perimeter)
}
