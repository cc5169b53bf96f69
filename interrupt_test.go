package pintos

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterruptGateDisableRestore(t *testing.T) {
	g := NewInterruptGate()
	assert.Equal(t, IntrOn, g.Level())

	old := g.Disable()
	assert.Equal(t, IntrOn, old)
	assert.Equal(t, IntrOff, g.Level())

	g.Restore(old)
	assert.Equal(t, IntrOn, g.Level())
}

func TestInterruptGateReentrantSameGoroutine(t *testing.T) {
	g := NewInterruptGate()

	old1 := g.Disable()
	assert.Equal(t, IntrOn, old1)

	old2 := g.Disable() // same goroutine, already disabled
	assert.Equal(t, IntrOff, old2)

	g.Restore(old2) // no-op
	assert.Equal(t, IntrOff, g.Level())

	g.Restore(old1) // releases for real
	assert.Equal(t, IntrOn, g.Level())
}

func TestGuardEnterExit(t *testing.T) {
	g := NewInterruptGate()
	guard := g.Enter()
	assert.Equal(t, IntrOff, g.Level())
	guard.Exit()
	assert.Equal(t, IntrOn, g.Level())
}

func TestInterruptGateDisabledByOtherGoroutineBlocks(t *testing.T) {
	g := NewInterruptGate()
	locked := make(chan struct{})
	release := make(chan struct{})
	order := make(chan string, 2)

	go func() {
		g.Disable()
		close(locked)
		<-release
		order <- "first-restore"
		g.Restore(IntrOn)
	}()

	<-locked
	go func() {
		g.Disable() // blocks until first-restore has happened
		order <- "second-acquire"
	}()

	close(release)
	assert.Equal(t, "first-restore", <-order)
	assert.Equal(t, "second-acquire", <-order)
}
