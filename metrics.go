package pintos

import (
	"sync"
	"sync/atomic"
)

// Metrics tracks runtime statistics for a Kernel. Collection is optional
// (see WithMetrics) and all methods are safe for concurrent reads while the
// kernel is running.
//
// Thread safety: the tick-driven and scheduler-internal counters here are
// only ever mutated from inside an interrupt-disabled section (so no
// additional locking is needed there); LatencyMetrics guards its own
// p²-estimator state with a mutex since syscall dispatch latency is recorded
// from arbitrary thread goroutines.
type Metrics struct {
	// ContextSwitches counts every call to Kernel.schedule that actually
	// switched to a different thread.
	ContextSwitches atomic.Uint64
	// Preemptions counts time-slice-expiry preemptions (as opposed to
	// voluntary yields).
	Preemptions atomic.Uint64
	// IdleTicks, KernelTicks and UserTicks mirror thread.c's
	// idle_ticks/kernel_ticks/user_ticks statistics counters.
	IdleTicks   atomic.Uint64
	KernelTicks atomic.Uint64
	UserTicks   atomic.Uint64
	// DonationEvents counts every successful priority donation.
	DonationEvents atomic.Uint64
	// MaxDonationDepth is the deepest donation chain walk observed.
	MaxDonationDepth atomic.Uint64

	Latency *LatencyMetrics
}

// NewMetrics returns a Metrics with its latency estimator initialized to
// track p50/p95/p99 of syscall dispatch latency.
func NewMetrics() *Metrics {
	return &Metrics{
		Latency: NewLatencyMetrics(0.5, 0.95, 0.99),
	}
}

func (m *Metrics) recordDonation(depth int) {
	m.DonationEvents.Add(1)
	for {
		cur := m.MaxDonationDepth.Load()
		if uint64(depth) <= cur || m.MaxDonationDepth.CompareAndSwap(cur, uint64(depth)) {
			return
		}
	}
}

// LatencyMetrics tracks a streaming percentile estimate (p², see
// psquare.go) of observed durations, in nanoseconds.
type LatencyMetrics struct {
	mu          sync.Mutex
	percentiles []float64
	est         *pSquareMultiQuantile
}

// NewLatencyMetrics creates a LatencyMetrics tracking the given percentiles
// (each in [0,1]).
func NewLatencyMetrics(percentiles ...float64) *LatencyMetrics {
	return &LatencyMetrics{
		percentiles: percentiles,
		est:         newPSquareMultiQuantile(percentiles...),
	}
}

// Record adds an observed duration, in nanoseconds.
func (l *LatencyMetrics) Record(nanos float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.est.Update(nanos)
}

// Percentile returns the current estimate for the i-th configured
// percentile (matching the order passed to NewLatencyMetrics).
func (l *LatencyMetrics) Percentile(i int) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.est.Quantile(i)
}

// Count returns the number of observations recorded.
func (l *LatencyMetrics) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.est.Count()
}

// Mean returns the arithmetic mean of all recorded durations.
func (l *LatencyMetrics) Mean() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.est.Mean()
}

// Max returns the maximum recorded duration.
func (l *LatencyMetrics) Max() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.est.Max()
}
