// Package runtime drives the C10 main loop (spec §4.10): boot the
// module table, then forever run the dispatcher to empty, check
// diagnostics, collect metrics, and suspend the core until the next
// interrupt once the log has drained. Everything it ties together —
// pool, table, dispatcher, broker, arch — is owned by the caller;
// Runtime only sequences the calls spec §4.10 requires in order.
package runtime

import (
	"strconv"
	"time"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/scpfw/corefw/pkg/diag"
	"github.com/scpfw/corefw/pkg/dispatch"
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/log"
	"github.com/scpfw/corefw/pkg/metrics"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/scpfw/corefw/pkg/notify"
)

// LogFlusher reports whether buffered log output has fully drained.
// Suspend must only be called once this holds (spec §4.10); zerolog's
// ConsoleWriter/JSON writers write straight through to their
// io.Writer with no internal buffering, so the default flusher always
// reports true. A harness that wraps log output in a bufio.Writer
// should supply one that checks Buffered() == 0.
type LogFlusher func() bool

func alwaysFlushed() bool { return true }

// Runtime owns one boot-to-suspend cycle of the main loop over a
// dispatcher, its pool/table, and an optional notification broker.
type Runtime struct {
	Pool       *event.Pool
	Table      *module.Table
	Dispatcher *dispatch.Dispatcher
	Broker     *notify.Broker
	Arch       arch.Interface

	collector  *metrics.Collector
	logFlushed LogFlusher
}

// New returns a Runtime ready to Boot and Run. broker may be nil for a
// table that uses no notifications. flusher may be nil to use the
// default (always-drained) flusher.
func New(pool *event.Pool, table *module.Table, d *dispatch.Dispatcher, broker *notify.Broker, ar arch.Interface, flusher LogFlusher) *Runtime {
	if flusher == nil {
		flusher = alwaysFlushed
	}
	if broker != nil {
		broker.SetNotifyObserver(metrics.RecordNotify)
	}
	return &Runtime{
		Pool:       pool,
		Table:      table,
		Dispatcher: d,
		Broker:     broker,
		Arch:       ar,
		collector:  metrics.NewCollector(pool, table, broker),
		logFlushed: flusher,
	}
}

// Boot runs the module table's lifecycle phases and publishes the
// health/readiness signal the spec's ambient monitoring surface needs.
// A fatal hook failure is reported as a returned error, never a direct
// process exit — the caller (cmd/fwsim, or a test) decides how the
// process actually terminates.
func (r *Runtime) Boot() error {
	r.Table.SetBindRoundObserver(func(round int, elapsed time.Duration) {
		metrics.BindRoundDuration.WithLabelValues(strconv.Itoa(round)).Observe(elapsed.Seconds())
	})

	timer := metrics.NewTimer()
	err := r.Table.Boot()
	timer.ObserveDuration(metrics.BootDuration)

	metrics.RegisterComponent("arch", r.Arch != nil, "")
	if err != nil {
		metrics.RegisterComponent("module_table", false, err.Error())
		return err
	}
	metrics.RegisterComponent("module_table", true, "")
	metrics.RegisterComponent("dispatcher", true, "")
	return nil
}

// Step runs one iteration of the loop body: drain both event queues,
// check the structural invariants, and snapshot metrics. It reports
// whether the core is now idle (both queues empty) and therefore
// eligible to suspend.
func (r *Runtime) Step() bool {
	r.Dispatcher.RunUntilEmpty()

	if err := diag.Check(r.Pool, r.Table); err != nil {
		metrics.DiagViolationsTotal.Inc()
		log.Logger.Error().Err(err).Msg("runtime: diagnostics reported a violation")
	}

	r.collector.Collect()
	return r.Pool.RunnableCount() == 0 && r.Pool.ISRCount() == 0
}

// Run repeats Step forever, suspending the core between iterations
// once the log has drained, until stop is closed. A firmware build
// passes a nil stop and never returns; cmd/fwsim and tests pass a
// channel they close to end a bounded scenario run.
func (r *Runtime) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		default:
		}

		idle := r.Step()
		if idle && r.logFlushed() && r.Arch != nil {
			r.Arch.Suspend()
		}
	}
}
