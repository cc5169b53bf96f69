package pintos

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphoreDownBlocksUntilUp(t *testing.T) {
	k := newTestKernel(t)
	sem := NewSemaphore(0)

	var mu sync.Mutex
	var order []string
	record := func(s string) { mu.Lock(); order = append(order, s); mu.Unlock() }

	_, err := k.Create("waiter", DefaultPriority, func(any) {
		record("before-down")
		k.Down(sem)
		record("after-down")
	}, nil)
	require.NoError(t, err)

	// Equal priority: waiter does not preempt boot on creation, so boot
	// yields to it. Waiter runs "before-down" then blocks on sem, and control
	// returns to boot without running "after-down" yet.
	k.Yield()
	assert.Equal(t, []string{"before-down"}, order)

	k.Up(sem)
	// waiter is now READY but boot hasn't yielded; give it the CPU.
	k.Yield()
	assert.Equal(t, []string{"before-down", "after-down"}, order)
}

// S3: single-level priority donation. A and B only ever coordinate through
// kernel primitives (Acquire/Release/Yield) — no raw channel is used to
// park either thread, since a plain channel receive would stall a
// goroutine without telling the scheduler the logical CPU is free, which
// deadlocks the whole kernel (nothing else would ever hand back control).
func TestSingleLevelPriorityDonation(t *testing.T) {
	k := newTestKernel(t)
	l := NewLock()

	var mu sync.Mutex
	var order []string
	record := func(s string) { mu.Lock(); order = append(order, s); mu.Unlock() }

	_, err := k.Create("A", 31, func(any) {
		k.Acquire(l)
		record("A-acquired")
		// Give boot (and whatever it creates) a chance to contend for l
		// while still holding it.
		k.Yield()
		k.Release(l)
		record("A-released")
	}, nil)
	require.NoError(t, err)

	// A and boot are equal priority: A does not run until boot yields.
	assert.Empty(t, order)

	k.Yield() // hand off to A: it acquires l, then yields back, still holding it
	assert.Equal(t, []string{"A-acquired"}, order)
	require.NotNil(t, l.Holder())
	assert.Equal(t, 31, l.Holder().EffectivePriority())

	_, err = k.Create("B", 40, func(any) {
		k.Acquire(l) // blocks on l; donates its priority to A
		record("B-acquired")
		k.Release(l)
	}, nil)
	require.NoError(t, err)

	// Creating B (higher priority) preempts boot immediately. B contends for
	// l, donates to A, and blocks; A resumes (from its own Yield above),
	// releases l mid-call — which immediately hands the CPU to B since B
	// now outranks A's restored base priority — so B finishes and exits
	// before A's Release call itself returns to record "A-released".
	assert.Equal(t, []string{"A-acquired", "B-acquired"}, order)

	k.Yield() // let A resume past its Release call and finish
	assert.Equal(t, []string{"A-acquired", "B-acquired", "A-released"}, order)
}
