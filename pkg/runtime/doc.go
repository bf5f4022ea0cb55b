/*
Package runtime sequences the main loop described in spec §4.10 (C10):
boot the module table, then forever drain the dispatcher, check
diagnostics, collect metrics, and suspend the core until woken by an
interrupt — a single-threaded boot-then-loop over pkg/dispatch,
pkg/diag, and pkg/metrics.

# Usage

	pool := event.NewPool(a, capacity, sim)
	table := module.NewTable(a, 2)
	// ... table.Register(...) for every module ...
	d := dispatch.New(pool, table, sim, strict)
	rt := runtime.New(pool, table, d, broker, sim, nil)

	if err := rt.Boot(); err != nil {
		log.Fatal(err.Error())
	}
	rt.Run(nil) // never returns on real hardware

A harness that wants a bounded run (tests, cmd/fwsim scenarios) closes
a stop channel instead of passing nil, and can call Step directly to
drive the loop one iteration at a time without suspending.
*/
package runtime
