package metrics

import (
	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/module"
	"github.com/scpfw/corefw/pkg/notify"
)

// Collector snapshots gauge-shaped state from the pool, module table, and
// notification broker into the registered Prometheus metrics. Unlike the
// teacher's ticker-driven Collector, Collect is called synchronously from
// the main loop's idle point (spec §4.10) — there is no background
// goroutine to own, since the whole runtime is single-threaded.
type Collector struct {
	pool   *event.Pool
	table  *module.Table
	broker *notify.Broker
}

// NewCollector returns a Collector over pool, table, and broker. broker
// may be nil if the runtime being collected doesn't use notifications.
func NewCollector(pool *event.Pool, table *module.Table, broker *notify.Broker) *Collector {
	return &Collector{pool: pool, table: table, broker: broker}
}

// Collect takes one snapshot and updates every gauge this package owns.
func (c *Collector) Collect() {
	c.collectPool()
	c.collectModules()
	c.collectNotify()
}

func (c *Collector) collectPool() {
	PoolCapacity.Set(float64(c.pool.Capacity()))
	PoolSlotsByQueue.WithLabelValues("free").Set(float64(c.pool.FreeCount()))
	PoolSlotsByQueue.WithLabelValues("runnable").Set(float64(c.pool.RunnableCount()))
	PoolSlotsByQueue.WithLabelValues("isr").Set(float64(c.pool.ISRCount()))

	outstanding := 0
	for i := 0; i < c.table.ModuleCount(); i++ {
		ctx := c.table.Module(i)
		if ctx == nil {
			continue
		}
		outstanding += c.pool.DelayedLen(&ctx.Delayed)
		for ei := range ctx.Elements {
			outstanding += c.pool.DelayedLen(&ctx.Elements[ei].Delayed)
		}
	}
	DelayedResponsesOutstanding.Set(float64(outstanding))
}

func (c *Collector) collectModules() {
	ModulesRegistered.Set(float64(c.table.ModuleCount()))
}

func (c *Collector) collectNotify() {
	if c.broker == nil {
		return
	}
	NotifySubscriptionsTotal.Set(float64(c.broker.SubscriptionCount()))
}

// RecordNotify reports one Notify call's fan-out count for a given
// notification name, for NotifyFanOutTotal.
func RecordNotify(notificationName string, count int) {
	NotifyFanOutTotal.WithLabelValues(notificationName).Add(float64(count))
}
