// Package diag implements the runtime self-checks spec §8's testable
// properties describe: structural invariants a healthy runtime must
// never violate, checked synchronously at each main-loop idle point
// rather than on a ticker (there is no background goroutine to run one).
package diag

import (
	"fmt"

	"github.com/scpfw/corefw/pkg/event"
	"github.com/scpfw/corefw/pkg/log"
	"github.com/scpfw/corefw/pkg/module"
)

// Check runs every structural invariant this package knows how to
// verify against pool and tbl's current state, logging each violation
// at critical severity. It returns the first violation found, if any;
// callers decide whether a violation is fatal.
func Check(pool *event.Pool, tbl *module.Table) error {
	if err := checkPoolPartition(pool, tbl); err != nil {
		log.Logger.Error().Err(err).Msg("diag: pool partition invariant violated")
		return err
	}
	return nil
}

// checkPoolPartition verifies spec §8 property 1: every descriptor is on
// exactly one of {free, runnable, isr, some delayed-response list}, so
// the four counts must sum to the pool's fixed capacity.
func checkPoolPartition(pool *event.Pool, tbl *module.Table) error {
	total := pool.FreeCount() + pool.RunnableCount() + pool.ISRCount()

	for i := 0; i < tbl.ModuleCount(); i++ {
		ctx := tbl.Module(i)
		if ctx == nil {
			continue
		}
		total += pool.DelayedLen(&ctx.Delayed)
		for ei := range ctx.Elements {
			total += pool.DelayedLen(&ctx.Elements[ei].Delayed)
		}
	}

	if total != pool.Capacity() {
		return fmt.Errorf("diag: pool slot count mismatch: counted %d, capacity %d", total, pool.Capacity())
	}
	return nil
}
