// Package plate provides the core types shared by the heated-plate solver.
//
// A plate is an R x C grid of real-valued cells held at fixed values along
// its physical edges. The solver never materialises the whole plate in one
// place: each rank of a cohort owns a contiguous range of columns and keeps
// it in sync with its neighbours through halo exchange.
//
//   - [Config]: grid dimensions, iteration count, edge values and topology
//   - [Boundary]: fixed values for the top, bottom, left and right edges
//   - [Topology]: whether the left and right edges are physical or wrap around
//
// # Errors
//
// Two failure classes exist. [ConfigurationError] is reported before any
// communication takes place. [CommunicationError] is fatal for the whole
// cohort; no rank tries to continue on its own.
package plate
