// Package comm is the message-passing runtime used by the solver.
//
// It offers an MPI-like surface over a fixed-size cohort of ranks: size and
// rank queries, blocking point-to-point Send and Recv, a combined Sendrecv,
// non-blocking Isend and Irecv completed with Waitall, and a cohort-wide
// Abort.
//
// [NewLocal] builds an in-process cohort in which every rank is driven by
// its own goroutine. Ranks share no memory: every payload is copied on send
// and copied again into the receiver's buffer. Channels are unbuffered, so a
// Send completes only once the matching Recv has taken the message.
//
// Sending to or receiving from [ProcNull] completes immediately without
// transferring anything, which lets edge ranks run the same code as
// interior ranks.
package comm
