package arch_test

import (
	"testing"

	"github.com/scpfw/corefw/pkg/arch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentInterruptOutsideISRErrors(t *testing.T) {
	s := arch.NewSim()
	_, err := s.CurrentInterrupt()
	assert.Error(t, err)
}

func TestInjectRunsBoundHandlerInInterruptContext(t *testing.T) {
	s := arch.NewSim()
	var sawInInterrupt bool
	var sawIRQ arch.IRQ
	require.NoError(t, s.SetISR(3, func(irq arch.IRQ) {
		sawInInterrupt = s.IsInInterruptContext()
		sawIRQ = irq
	}))

	require.NoError(t, s.Inject(3))
	assert.True(t, sawInInterrupt)
	assert.Equal(t, arch.IRQ(3), sawIRQ)
	assert.False(t, s.IsInInterruptContext())
}

func TestGuardRestoresOnExit(t *testing.T) {
	s := arch.NewSim()
	g := arch.Enter(s)
	done := make(chan struct{})
	go func() {
		g2 := arch.Enter(s)
		g2.Exit()
		close(done)
	}()
	g.Exit()
	<-done
}

func TestSuspendUnblocksOnWake(t *testing.T) {
	s := arch.NewSim()
	done := make(chan struct{})
	go func() {
		s.Suspend()
		close(done)
	}()
	s.Wake()
	<-done
}
