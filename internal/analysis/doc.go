// Package analysis inspects residual histories.
//
// Jacobi iteration on the plate converges geometrically once the fastest
// modes have died out: each iteration multiplies the error by roughly the
// spectral radius of the iteration matrix. The helpers here estimate that
// factor from the tail of a residual history and extrapolate from it.
package analysis
