// Package viz renders plate temperatures and convergence in the terminal.
//
//   - [Heatmap]: one coloured block per cell, cold to hot
//   - [ResidualPlot]: asciigraph line chart of the per-iteration residual
//   - Themes select the heat palette
//
// Output is plain text when stdout is not a terminal, so everything here is
// safe to pipe.
package viz
