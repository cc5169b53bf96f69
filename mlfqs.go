package pintos

// SetNice, GetNice, LoadAvg and RecentCpu are the documented MLFQS stub
// surface (spec §9 Design Notes, "-o mlfqs"): the scheduler remains
// strict-priority regardless of the WithMLFQS flag; these exist so an
// embedder's CLI surface has somewhere to route the flag without the
// scheduler itself implementing 4BSD-style feedback scheduling.

// SetNice records a nice value. A single value is stored for the whole
// Kernel, not one per thread, and the scheduler never consults it, since
// MLFQS is stubbed, not implemented.
func (k *Kernel) SetNice(nice int) {
	k.niceVal.Store(int64(nice))
}

// GetNice returns the value last passed to SetNice on this Kernel by any
// thread (0 if never set).
func (k *Kernel) GetNice() int {
	return int(k.niceVal.Load())
}

// LoadAvg returns the system load average, fixed-point scaled by 100.
// Always 0: a faithful MLFQS implementation would update this once per
// second from the ready-list length, but the scheduler this package
// implements is strict-priority only.
func (k *Kernel) LoadAvg() int {
	if !k.opts.mlfqs {
		return 0
	}
	return int(k.loadAvgBits.Load())
}

// RecentCpu returns the calling thread's recent-CPU estimate, fixed-point
// scaled by 100. Always 0, for the same reason as LoadAvg.
func (k *Kernel) RecentCpu() int {
	return 0
}
