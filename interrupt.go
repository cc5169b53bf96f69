package pintos

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// IntrLevel models the processor interrupt flag: on a single logical CPU,
// interrupts are either enabled (the timer tick can be delivered and threads
// can be preempted) or disabled (scheduler-internal state is being mutated
// and the tick is deferred until they're re-enabled).
type IntrLevel int

const (
	IntrOn IntrLevel = iota
	IntrOff
)

func (l IntrLevel) String() string {
	if l == IntrOff {
		return "off"
	}
	return "on"
}

// InterruptGate serializes access to scheduler-internal state the way a real
// CPU's interrupt-disable flag serializes access to per-CPU data: at most one
// logical thread of control may hold it disabled at a time, and a disable
// from whichever goroutine already holds it is a safe no-op rather than a
// deadlock, matching intr_disable's documented idempotence. A second,
// independent goroutine (the tick source) trying to disable while another
// holds it blocks until released, modelling a deferred timer interrupt.
type InterruptGate struct {
	mu    sync.Mutex
	owner atomic.Uint64 // goroutine id currently holding it disabled, 0 if on
}

// NewInterruptGate returns a gate in the enabled (IntrOn) state.
func NewInterruptGate() *InterruptGate {
	return &InterruptGate{}
}

// Disable disables interrupts and returns the previous level, for use with
// Restore. Reentrant: calling Disable again from the same goroutine while
// already disabled returns IntrOff and does not block.
func (g *InterruptGate) Disable() IntrLevel {
	gid := goroutineID()
	if g.owner.Load() == gid {
		return IntrOff
	}
	g.mu.Lock()
	g.owner.Store(gid)
	return IntrOn
}

// Restore sets the interrupt level back to old, the value a matching
// Disable call returned. Restoring to IntrOff is a no-op (the gate stays
// held by whichever call originally disabled it); restoring to IntrOn
// releases the gate.
func (g *InterruptGate) Restore(old IntrLevel) {
	if old == IntrOff {
		return
	}
	g.owner.Store(0)
	g.mu.Unlock()
}

// Transfer hands the currently-disabled gate off to a different goroutine,
// without unlocking the underlying mutex, modelling how the hardware
// interrupt-disable flag is a single CPU-wide register that simply carries
// over a context switch rather than being released and reacquired. Only
// valid to call while the current goroutine already holds the gate
// disabled; used exactly once per context switch, by Kernel.schedule.
func (g *InterruptGate) Transfer(toGoroutineID uint64) {
	g.owner.Store(toGoroutineID)
}

// Level reports the current interrupt level. Racy by nature (the level can
// change the instant after this returns) and intended only for diagnostics
// and assertions, not for control flow.
func (g *InterruptGate) Level() IntrLevel {
	if g.owner.Load() != 0 {
		return IntrOff
	}
	return IntrOn
}

// Guard wraps a Disable/Restore pair as a single value, standing in for the
// "proof that interrupts are off" token an internal-only scheduler routine
// can require as an argument, rather than re-deriving or re-checking the
// interrupt level itself.
type Guard struct {
	gate *InterruptGate
	old  IntrLevel
}

// Enter disables interrupts and returns a Guard that must be passed to Exit.
func (g *InterruptGate) Enter() Guard {
	return Guard{gate: g, old: g.Disable()}
}

// Exit restores the interrupt level captured by the matching Enter.
func (g Guard) Exit() {
	g.gate.Restore(g.old)
}

// goroutineID returns the current goroutine's runtime id, parsed out of the
// debug stack trace header. Used only to recognize reentrant calls to the
// same logical thread of control disabling interrupts twice; never treat it
// as a stable or efficient identifier elsewhere.
func goroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
