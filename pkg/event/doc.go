// Package event implements the fixed-capacity event descriptor pool and
// its three queues: free, runnable, and isr. Rather than buffered
// channels and goroutines, the pool holds a single fixed-capacity slot
// array and moves indices between intrusive lists (pkg/list) under an
// explicit interrupt-disable critical section, per spec §4.5/§5.
package event
