// Package halo keeps the halo columns of neighbouring subdomains in sync.
//
// Each exchange is made of two shifts. In the leftward shift every rank
// sends its first core column to its left neighbour and receives its right
// neighbour's first core column into its right halo. The rightward shift
// mirrors it. Because every rank performs the same shift at the same time
// and each shift is a single simultaneous send and receive, every send is
// met by a receive that is already posted: the protocol cannot deadlock,
// whether or not the ring wraps around.
package halo
