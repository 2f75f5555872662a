// Package solver drives the distributed heated-plate computation.
//
// Each rank runs the same sequence: partition the columns, allocate and
// initialise its subdomain, alternate halo exchange and stencil update for a
// fixed number of iterations, then take part in collecting the result at
// the root. Any failure aborts the whole cohort; no rank continues on its
// own.
//
// # Example
//
//	res, err := solver.Run(ctx, plate.HeatedPlate(), 4, solver.Options{})
//
// # Thread Safety
//
// Observers are called from every rank's goroutine and must be safe for
// concurrent use.
package solver
