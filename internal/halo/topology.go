package halo

import (
	"fmt"
	"strings"

	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/plate"
)

// Neighbors returns the left and right neighbour of rank. On an open plate
// the outermost ranks get comm.ProcNull on their outer side.
func Neighbors(rank, size int, topo plate.Topology) (left, right int) {
	left = (rank + size - 1) % size
	right = (rank + 1) % size
	if topo == plate.Open {
		if rank == 0 {
			left = comm.ProcNull
		}
		if rank == size-1 {
			right = comm.ProcNull
		}
	}
	return left, right
}

// Strategy selects the primitive each shift is built on.
type Strategy int

const (
	// SendRecv uses the combined send-receive primitive.
	SendRecv Strategy = iota
	// NonBlocking posts Irecv and Isend and waits for both.
	NonBlocking
)

func (s Strategy) String() string {
	switch s {
	case SendRecv:
		return "sendrecv"
	case NonBlocking:
		return "nonblocking"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// ParseStrategy accepts "sendrecv" or "nonblocking".
func ParseStrategy(s string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sendrecv":
		return SendRecv, nil
	case "nonblocking", "isend":
		return NonBlocking, nil
	}
	return SendRecv, plate.Configf("strategy", "unknown exchange strategy %q", s)
}

func (s Strategy) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Strategy) UnmarshalText(b []byte) error {
	v, err := ParseStrategy(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
