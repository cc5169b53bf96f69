package pintos

import "sync/atomic"

// KernelState is the lifecycle state of a Kernel as a whole — distinct from
// a Thread's own Status. Start moves it from KernelCreated to KernelRunning
// and refuses to run a second time; Create and Tick do not consult it.
type KernelState uint32

const (
	// KernelCreated: New returned but Start has not yet run the idle thread.
	KernelCreated KernelState = iota
	// KernelRunning: Start has run; the scheduler is live.
	KernelRunning
	// KernelStopped: terminal state. Nothing in this package sets it.
	KernelStopped
)

func (s KernelState) String() string {
	switch s {
	case KernelCreated:
		return "created"
	case KernelRunning:
		return "running"
	case KernelStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// fastState is a lock-free CAS state machine for KernelState, cache-line
// padded to avoid false sharing.
type fastState struct {
	_ [sizeOfCacheLine]byte
	v atomic.Uint32
	_ [sizeOfCacheLine - sizeOfAtomicUint32]byte
}

func newFastState() *fastState {
	s := &fastState{}
	s.v.Store(uint32(KernelCreated))
	return s
}

func (s *fastState) Load() KernelState { return KernelState(s.v.Load()) }

func (s *fastState) Store(state KernelState) { s.v.Store(uint32(state)) }

func (s *fastState) TryTransition(from, to KernelState) bool {
	return s.v.CompareAndSwap(uint32(from), uint32(to))
}
