// Package arch defines the abstract platform surface the core requires,
// per spec §4.4/§6: global interrupt enable/disable, per-IRQ control,
// ISR binding, an interrupt-context query, and CPU suspend. Real
// firmware binds this to CMSIS/board code; this repository ships only
// Sim, a software stand-in used by the demo harness and tests to drive
// the dispatcher's interrupt-posting path without real hardware.
package arch

import (
	"fmt"
	"sync"
)

// IRQ identifies an interrupt line.
type IRQ int

// ISRFunc is a handler bound to an IRQ. It runs in interrupt context:
// per spec §5, it must not block, and the only structures it may touch
// are the ones C5 explicitly shares with interrupt context.
type ISRFunc func(irq IRQ)

// State is the opaque "prior interrupt enabled" token GlobalDisable
// returns and GlobalEnable consumes. Callers must treat it as opaque.
type State uint8

// Interface is the contract the core requires from the platform. Arch
// exceptions are state errors, never panics (spec §4.4); the core
// decides whether a given failure is fatal.
type Interface interface {
	// GlobalDisable disables interrupts globally and returns the prior
	// enabled state, for a matching GlobalEnable.
	GlobalDisable() State
	// GlobalEnable restores the state captured by a matching GlobalDisable.
	GlobalEnable(prior State)

	// IsInInterruptContext reports whether the caller is currently
	// executing in an ISR.
	IsInInterruptContext() bool
	// CurrentInterrupt returns the IRQ currently being serviced. It is
	// an error to call this outside interrupt context.
	CurrentInterrupt() (IRQ, error)

	EnableIRQ(irq IRQ) error
	DisableIRQ(irq IRQ) error
	PendIRQ(irq IRQ) error
	ClearIRQ(irq IRQ) error
	SetPriority(irq IRQ, priority uint8) error

	// SetISR binds fn as the handler for irq.
	SetISR(irq IRQ, fn ISRFunc) error

	// Suspend halts the calling (main-loop) context until the next
	// interrupt. It must only be called when both event queues are
	// empty and the log has drained (spec §4.10).
	Suspend()
}

// Guard disables interrupts globally for the lifetime of a scoped
// critical section and restores them on every exit path, per spec §9's
// design note calling for an explicit, minimal, always-restoring
// critical section around the free list and isr queue.
type Guard struct {
	a     Interface
	prior State
	done  bool
}

// Enter begins a critical section.
func Enter(a Interface) *Guard {
	return &Guard{a: a, prior: a.GlobalDisable()}
}

// Exit ends the critical section. Exit is safe to call more than once;
// only the first call has effect, so a deferred Exit composes with an
// early explicit Exit on a hot path.
func (g *Guard) Exit() {
	if g.done {
		return
	}
	g.done = true
	g.a.GlobalEnable(g.prior)
}

var errNotInInterrupt = fmt.Errorf("arch: not in interrupt context")

// Sim is a software arch.Interface for tests and the cmd/fwsim harness.
// Global disable is modeled as a mutex so that a concurrently-running
// "interrupt" goroutine genuinely serializes against the main context,
// the same shared-resource boundary spec §5 draws between ISR and main
// context.
type Sim struct {
	mu sync.Mutex

	irqMu     sync.Mutex
	enabled   map[IRQ]bool
	pending   map[IRQ]bool
	priority  map[IRQ]uint8
	handlers  map[IRQ]ISRFunc
	inIRQ     bool
	activeIRQ IRQ

	wake chan struct{}
}

// NewSim returns a ready Sim.
func NewSim() *Sim {
	return &Sim{
		enabled:  make(map[IRQ]bool),
		pending:  make(map[IRQ]bool),
		priority: make(map[IRQ]uint8),
		handlers: make(map[IRQ]ISRFunc),
		wake:     make(chan struct{}, 1),
	}
}

func (s *Sim) GlobalDisable() State {
	s.mu.Lock()
	return 1
}

func (s *Sim) GlobalEnable(State) {
	s.mu.Unlock()
}

func (s *Sim) IsInInterruptContext() bool {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	return s.inIRQ
}

func (s *Sim) CurrentInterrupt() (IRQ, error) {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	if !s.inIRQ {
		return 0, errNotInInterrupt
	}
	return s.activeIRQ, nil
}

func (s *Sim) EnableIRQ(irq IRQ) error {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	s.enabled[irq] = true
	return nil
}

func (s *Sim) DisableIRQ(irq IRQ) error {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	s.enabled[irq] = false
	return nil
}

func (s *Sim) PendIRQ(irq IRQ) error {
	s.irqMu.Lock()
	s.pending[irq] = true
	s.irqMu.Unlock()
	s.Wake()
	return nil
}

func (s *Sim) ClearIRQ(irq IRQ) error {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	delete(s.pending, irq)
	return nil
}

func (s *Sim) SetPriority(irq IRQ, priority uint8) error {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	s.priority[irq] = priority
	return nil
}

func (s *Sim) SetISR(irq IRQ, fn ISRFunc) error {
	s.irqMu.Lock()
	defer s.irqMu.Unlock()
	s.handlers[irq] = fn
	return nil
}

// Wake unblocks a pending Suspend without delivering an interrupt — used
// by the main loop's own bookkeeping (e.g. a test that wants to observe
// an idle point) and by Inject after posting work.
func (s *Sim) Wake() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Suspend blocks until Wake or Inject is called.
func (s *Sim) Suspend() {
	<-s.wake
}

// Inject simulates irq firing: it marks interrupt context, invokes the
// bound handler (synchronously, standing in for real hardware's
// preemption of the main context), leaves interrupt context and clears
// the pending flag, then wakes any blocked Suspend. Call this from a separate goroutine in tests that
// want to exercise genuine interleaving with the main loop.
func (s *Sim) Inject(irq IRQ) error {
	s.irqMu.Lock()
	fn, bound := s.handlers[irq]
	s.inIRQ = true
	s.activeIRQ = irq
	s.irqMu.Unlock()

	if bound {
		fn(irq)
	}

	s.irqMu.Lock()
	s.inIRQ = false
	delete(s.pending, irq)
	s.irqMu.Unlock()

	s.Wake()
	if !bound {
		return fmt.Errorf("arch: no ISR bound for irq %d", irq)
	}
	return nil
}
