package pintos

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertPriorityInvariant checks P3: every live thread's effective priority
// is at least its base priority, for every thread in all_list.
func assertPriorityInvariant(t *testing.T, k *Kernel) {
	t.Helper()
	k.ForEachThread(func(th *Thread) {
		assert.GreaterOrEqual(t, th.EffectivePriority(), th.BasePriority(),
			"%s: effective priority below base", th.Name())
	})
}

// assertExactlyOneRunning checks P4: among all live threads, exactly one has
// status RUNNING, and it is the thread the kernel itself reports as current.
func assertExactlyOneRunning(t *testing.T, k *Kernel) {
	t.Helper()
	cur := k.CurrentThread()
	running := 0
	k.ForEachThread(func(th *Thread) {
		if th.Status() == Running {
			running++
			assert.Same(t, cur, th, "more than one RUNNING thread, or CurrentThread mismatch")
		}
	})
	assert.Equal(t, 1, running)
}

// P4: exactly one thread is RUNNING at every point boot can observe, through
// a round-robin of three equal-priority threads.
func TestExactlyOneRunningThreadAtATime(t *testing.T) {
	k := newTestKernel(t)
	assertExactlyOneRunning(t, k)

	rounds := 2
	body := func() EntryFunc {
		return func(any) {
			for i := 0; i < rounds; i++ {
				k.Yield()
			}
		}
	}
	for _, name := range []string{"X", "Y", "Z"} {
		_, err := k.Create(name, DefaultPriority, body(), nil)
		require.NoError(t, err)
	}
	assertExactlyOneRunning(t, k)

	for i := 0; i < 4*(rounds+1); i++ {
		k.Yield()
		assertExactlyOneRunning(t, k)
	}
}

// P1: the ready list always yields threads in strictly descending priority
// order. Four threads below boot's priority are created (so none preempts
// on creation, and they all sit on ready_list together); boot then blocks
// itself out of contention entirely so pickNext has to choose among them,
// and the lowest-priority one hands control back when it finishes.
func TestReadyListDescendingPriorityOrder(t *testing.T) {
	k := newTestKernel(t)
	boot := k.CurrentThread()

	var order []string
	record := func(s string) { order = append(order, s) }

	type spec struct {
		name     string
		priority int
	}
	threads := []spec{{"P25", 25}, {"P10", 10}, {"P20", 20}, {"P5", 5}}
	for _, s := range threads {
		s := s
		_, err := k.Create(s.name, s.priority, func(any) {
			record(s.name)
			if s.priority == 5 {
				// Lowest priority runs last; hand the CPU back to boot,
				// which is otherwise parked with nothing to wake it.
				k.Unblock(boot)
			}
		}, nil)
		require.NoError(t, err)
	}
	assert.Empty(t, order) // none outrank boot; they just queued up

	g := k.gate.Enter()
	k.Block()
	g.Exit()

	assert.Equal(t, []string{"P25", "P20", "P10", "P5"}, order)
}

// P3: donation only ever raises effective priority above base, checked at
// every interesting point of a nested-donation-like sequence.
func TestPriorityNeverBelowBase(t *testing.T) {
	k := newTestKernel(t)
	l := NewLock()
	gate := NewSemaphore(0)

	assertPriorityInvariant(t, k)

	_, err := k.Create("A", 31, func(any) {
		k.Acquire(l)
		k.Down(gate)
		k.Release(l)
	}, nil)
	require.NoError(t, err)
	k.Yield()
	assertPriorityInvariant(t, k)

	_, err = k.Create("B", 40, func(any) {
		k.Acquire(l)
	}, nil)
	require.NoError(t, err)
	assertPriorityInvariant(t, k)

	k.Up(gate)
	assertPriorityInvariant(t, k)

	k.Yield()
	assertPriorityInvariant(t, k)
}

// R1: a lock acquire/release round trip, under contention that donates and
// then releases, restores the holder's exact pre-acquisition effective
// priority — not some other value left over from the donation.
func TestLockRoundTripRestoresEffectivePriority(t *testing.T) {
	k := newTestKernel(t)
	l := NewLock()
	gate := NewSemaphore(0)

	_, err := k.Create("A", 31, func(any) {
		k.Acquire(l)
		k.Down(gate) // park while still holding l
		k.Release(l)
	}, nil)
	require.NoError(t, err)
	k.Yield()

	aThread := l.Holder()
	require.NotNil(t, aThread)
	require.Equal(t, "A", aThread.Name())
	assert.Equal(t, 31, aThread.EffectivePriority())
	assert.Equal(t, 31, aThread.BasePriority())

	_, err = k.Create("B", 40, func(any) {
		k.Acquire(l) // blocks: donates 40 to A
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, aThread.EffectivePriority())
	assert.Equal(t, 31, aThread.BasePriority())

	k.Up(gate) // A resumes, releases l — recompute finds no remaining donor
	k.Yield()  // let everything downstream (B acquiring, exiting) settle

	assert.Equal(t, 31, aThread.EffectivePriority())
	assert.Equal(t, 31, aThread.BasePriority())
}

// R2: set_priority while donated only changes base_priority — effective
// priority keeps reflecting the donation until the donating lock is
// released, at which point the *new* base takes over, not the original one.
func TestSetPriorityRoundTripAfterDonation(t *testing.T) {
	k := newTestKernel(t)
	l := NewLock()
	toLower := NewSemaphore(0)
	toRelease := NewSemaphore(0)

	_, err := k.Create("A", 31, func(any) {
		k.Acquire(l)
		k.Down(toLower) // let the test create a higher-priority waiter first
		k.SetPriority(10)
		k.Down(toRelease) // let the test observe the donation survives
		k.Release(l)
	}, nil)
	require.NoError(t, err)
	k.Yield()

	aThread := l.Holder()
	require.NotNil(t, aThread)

	_, err = k.Create("B", 40, func(any) {
		k.Acquire(l) // donates 40 to A
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, 40, aThread.EffectivePriority())
	assert.Equal(t, 31, aThread.BasePriority())

	k.Up(toLower)
	k.Yield()
	// A lowered its base priority to 10, but the donation from B still
	// outranks it — effective priority must not drop yet.
	assert.Equal(t, 10, aThread.BasePriority())
	assert.Equal(t, 40, aThread.EffectivePriority())

	k.Up(toRelease)
	k.Yield()
	// With l released and no donor left, effective priority falls all the
	// way to the newly-lowered base, not the original 31.
	assert.Equal(t, 10, aThread.BasePriority())
	assert.Equal(t, 10, aThread.EffectivePriority())
}
