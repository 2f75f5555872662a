package collect

import (
	"fmt"
	"io"
	"strings"
)

// MatrixSink assembles rows into a dense matrix.
type MatrixSink struct {
	Rows [][]float64
}

func (m *MatrixSink) WriteRow(row int, segments [][]float64) error {
	var out []float64
	for _, s := range segments {
		out = append(out, s...)
	}
	for len(m.Rows) <= row {
		m.Rows = append(m.Rows, nil)
	}
	m.Rows[row] = out
	return nil
}

// TextSink prints each row as it arrives, one value per cell. When
// Separate is set an extra space is written after every rank's segment.
type TextSink struct {
	W        io.Writer
	Format   string
	Separate bool
}

// NewTextSink uses the layout of the solver's plain text output.
func NewTextSink(w io.Writer, mode Mode) *TextSink {
	if mode == Diagnostic {
		return &TextSink{W: w, Format: "%2.1f ", Separate: true}
	}
	return &TextSink{W: w, Format: "%6.2f "}
}

func (t *TextSink) WriteRow(_ int, segments [][]float64) error {
	var b strings.Builder
	for _, s := range segments {
		for _, v := range s {
			fmt.Fprintf(&b, t.Format, v)
		}
		if t.Separate {
			b.WriteByte(' ')
		}
	}
	b.WriteByte('\n')
	_, err := io.WriteString(t.W, b.String())
	return err
}

// Tee forwards every row to each sink in turn.
type Tee []RowSink

func (t Tee) WriteRow(row int, segments [][]float64) error {
	for _, s := range t {
		if err := s.WriteRow(row, segments); err != nil {
			return err
		}
	}
	return nil
}
