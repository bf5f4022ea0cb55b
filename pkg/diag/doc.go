// Package diag implements a periodic "is actual state consistent with
// what it should be" pass over the event pool and module table, run
// synchronously from the main loop's idle point rather than off a
// ticker goroutine, since there is exactly one thread of control to
// check against.
package diag
