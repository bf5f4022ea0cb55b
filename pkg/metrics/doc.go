/*
Package metrics instruments the event pool, module table, and
notification broker with Prometheus metrics: package-level metric vars
registered at init, a Collector that snapshots gauge-shaped state, and a
Timer helper for histograms. Collect is called once per main-loop idle
point (spec §4.10) rather than off a ticker goroutine — there is no
background collection loop in a single-threaded runtime.

# Metrics catalog

Pool:

	corefw_pool_slots{queue}           Gauge   slots in free/runnable/isr
	corefw_pool_capacity                Gauge   fixed pool capacity
	corefw_cookies_issued_total          Counter cookies assigned by put_event
	corefw_delayed_responses_outstanding Gauge   slots parked on a delayed list

Dispatch:

	corefw_dispatched_events_total{code} Counter events processed, by result code
	corefw_dispatch_duration_seconds     Histogram time per process_next_event call

Module lifecycle:

	corefw_modules_registered                Gauge     table size
	corefw_bind_round_duration_seconds{round} Histogram time per bind round
	corefw_boot_duration_seconds              Histogram time for Table.Boot

Notification broker:

	corefw_notify_subscriptions           Gauge   active subscriptions
	corefw_notify_fanout_total{notification} Counter notify() dispatch count

Diagnostics:

	corefw_diag_violations_total Counter diag.Check failures

# Usage

	c := metrics.NewCollector(pool, table, broker)
	// ... each idle point:
	c.Collect()

	timer := metrics.NewTimer()
	err := table.Boot()
	timer.ObserveDuration(metrics.BootDuration)

	http.Handle("/metrics", metrics.Handler())
*/
package metrics
