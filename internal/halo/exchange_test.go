package halo_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/haloplate/internal/comm"
	"github.com/san-kum/haloplate/internal/grid"
	"github.com/san-kum/haloplate/internal/halo"
	"github.com/san-kum/haloplate/internal/plate"
)

// label gives every core cell a value that identifies rank, row and column.
func label(rank, i, j int) float64 {
	return float64(rank*1000 + i*10 + j)
}

func labelledGrid(rows, width, rank int) *grid.Local {
	g, err := grid.New(rows, width)
	Expect(err).NotTo(HaveOccurred())
	for i := 0; i < rows; i++ {
		row := g.Row(i)
		for j := 1; j <= width; j++ {
			row[j] = label(rank, i, j)
		}
	}
	return g
}

// exchangeAll runs one exchange on every rank concurrently and aborts the
// cohort on the first failure.
func exchangeAll(cohort *comm.Cohort, grids []*grid.Local, topo plate.Topology, strategy halo.Strategy) []error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	errs := make([]error, len(grids))
	var wg sync.WaitGroup
	for r := range grids {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			c := cohort.Comm(rank)
			x := halo.NewExchanger(c, topo, strategy)
			if err := x.Exchange(ctx, grids[rank], 0); err != nil {
				errs[rank] = err
				c.Abort(1)
			}
		}(r)
	}
	wg.Wait()
	return errs
}

var _ = Describe("Neighbors", func() {
	DescribeTable("ring arithmetic",
		func(rank, size int, topo plate.Topology, left, right int) {
			l, r := halo.Neighbors(rank, size, topo)
			Expect(l).To(Equal(left))
			Expect(r).To(Equal(right))
		},
		Entry("open first rank", 0, 4, plate.Open, comm.ProcNull, 1),
		Entry("open middle rank", 2, 4, plate.Open, 1, 3),
		Entry("open last rank", 3, 4, plate.Open, 2, comm.ProcNull),
		Entry("open single rank", 0, 1, plate.Open, comm.ProcNull, comm.ProcNull),
		Entry("periodic first rank", 0, 4, plate.Periodic, 3, 1),
		Entry("periodic last rank", 3, 4, plate.Periodic, 2, 0),
		Entry("periodic single rank", 0, 1, plate.Periodic, 0, 0),
	)
})

var _ = Describe("Exchange", func() {
	const rows = 4
	widths := []int{4, 3, 5, 2}

	for _, strategy := range []halo.Strategy{halo.SendRecv, halo.NonBlocking} {
		strategy := strategy

		Context("with the "+strategy.String()+" strategy", func() {
			It("mirrors neighbour core columns on an open plate", func() {
				size := len(widths)
				cohort := comm.NewLocal(size)
				grids := make([]*grid.Local, size)
				for r, w := range widths {
					grids[r] = labelledGrid(rows, w, r)
				}

				errs := exchangeAll(cohort, grids, plate.Open, strategy)
				for _, err := range errs {
					Expect(err).NotTo(HaveOccurred())
				}

				for r, g := range grids {
					Expect(g.HalosValid()).To(BeTrue())
					for i := 0; i < rows; i++ {
						if r < size-1 {
							Expect(g.At(i, widths[r]+1)).To(Equal(label(r+1, i, 1)))
						}
						if r > 0 {
							Expect(g.At(i, 0)).To(Equal(label(r-1, i, widths[r-1])))
						}
					}
				}
				Expect(math.IsNaN(grids[0].At(1, 0))).To(BeTrue(), "open left edge has no neighbour")
				Expect(math.IsNaN(grids[size-1].At(1, widths[size-1]+1))).To(BeTrue(), "open right edge has no neighbour")
			})

			It("wraps around a periodic ring", func() {
				size := len(widths)
				cohort := comm.NewLocal(size)
				grids := make([]*grid.Local, size)
				for r, w := range widths {
					grids[r] = labelledGrid(rows, w, r)
				}

				errs := exchangeAll(cohort, grids, plate.Periodic, strategy)
				for _, err := range errs {
					Expect(err).NotTo(HaveOccurred())
				}

				for r, g := range grids {
					right := (r + 1) % size
					left := (r + size - 1) % size
					for i := 0; i < rows; i++ {
						Expect(g.At(i, widths[r]+1)).To(Equal(label(right, i, 1)))
						Expect(g.At(i, 0)).To(Equal(label(left, i, widths[left])))
					}
				}
			})

			It("exchanges with itself when a single rank wraps", func() {
				cohort := comm.NewLocal(1)
				g := labelledGrid(rows, 3, 0)

				errs := exchangeAll(cohort, []*grid.Local{g}, plate.Periodic, strategy)
				Expect(errs[0]).NotTo(HaveOccurred())

				for i := 0; i < rows; i++ {
					Expect(g.At(i, 4)).To(Equal(label(0, i, 1)))
					Expect(g.At(i, 0)).To(Equal(label(0, i, 3)))
				}
			})

			It("leaves core cells untouched", func() {
				cohort := comm.NewLocal(2)
				grids := []*grid.Local{labelledGrid(rows, 2, 0), labelledGrid(rows, 2, 1)}

				errs := exchangeAll(cohort, grids, plate.Periodic, strategy)
				Expect(errs).To(HaveEach(BeNil()))

				for r, g := range grids {
					for i := 0; i < rows; i++ {
						for j := 1; j <= 2; j++ {
							Expect(g.At(i, j)).To(Equal(label(r, i, j)))
						}
					}
				}
			})
		})
	}

	It("reports a size mismatch as a communication error and aborts the cohort", func() {
		cohort := comm.NewLocal(3)
		grids := []*grid.Local{
			labelledGrid(rows, 2, 0),
			labelledGrid(rows-1, 2, 1),
			labelledGrid(rows, 2, 2),
		}

		errs := exchangeAll(cohort, grids, plate.Open, halo.SendRecv)

		failed := 0
		for _, err := range errs {
			if err == nil {
				continue
			}
			failed++
			Expect(errors.Is(err, plate.ErrCommunication)).To(BeTrue())
			var ce *plate.CommunicationError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Iteration).To(Equal(0))
		}
		Expect(failed).To(BeNumerically(">=", 1))
		Expect(errors.Is(errs[1], comm.ErrSizeMismatch) || errors.Is(errs[1], comm.ErrAborted)).To(BeTrue())
		Expect(cohort.Err()).To(MatchError(comm.ErrAborted))
	})
})

var _ = Describe("ParseStrategy", func() {
	It("accepts known names", func() {
		Expect(halo.ParseStrategy("sendrecv")).To(Equal(halo.SendRecv))
		Expect(halo.ParseStrategy("NonBlocking")).To(Equal(halo.NonBlocking))
	})

	It("rejects unknown names", func() {
		_, err := halo.ParseStrategy("rma")
		Expect(err).To(MatchError(plate.ErrConfiguration))
	})
})
