package pintos

// SleepUntil blocks the calling thread until the kernel's tick counter
// reaches absoluteTick (spec §4.2, timer_sleep). Waking is a scheduling
// decision, not a best-effort nudge: a thread asked to wake at tick N is
// guaranteed to be READY no later than the Tick call that delivers N.
func (k *Kernel) SleepUntil(absoluteTick int64) {
	k.assertInterruptsOn("SleepUntil")
	g := k.gate.Enter()
	defer g.Exit()

	if absoluteTick <= k.ticks.Load() {
		return
	}

	cur := k.current
	cur.tickSleepUntil = absoluteTick
	k.sleep.InsertOrdered(cur)
	k.Block()
}

// Tick advances the kernel's tick counter to now and wakes every sleeper
// whose deadline has passed (spec §4.2, timer_interrupt). Tick must be
// called from the kernel's designated interrupt-context goroutine (the
// configured TickSource), never from a running kernel thread's own
// goroutine, and never reentrantly.
func (k *Kernel) Tick(now int64) {
	k.ticks.Store(now)

	g := k.gate.Enter()
	k.inInterrupt.Store(true)

	k.sweepSleepers(now)

	cur := k.current
	if cur != k.idle {
		k.sliceTicks++
		if k.Metrics != nil {
			k.Metrics.KernelTicks.Add(1)
		}
		if k.sliceTicks >= k.sliceLen {
			k.yieldOnReturn.Store(true)
			if k.Metrics != nil {
				k.Metrics.Preemptions.Add(1)
			}
		}
	} else if k.Metrics != nil {
		k.Metrics.IdleTicks.Add(1)
	}

	k.inInterrupt.Store(false)
	g.Exit()

	// The timer-interrupt return path: a slice expiry or a just-unblocked
	// higher-priority thread sets yieldOnReturn instead of yielding
	// synchronously from within interrupt context (spec §4.2/§5); the
	// caller of Tick is expected to act on it exactly like this, the way a
	// real return-from-interrupt checks the need-resched flag.
	if k.yieldOnReturn.CompareAndSwap(true, false) {
		k.Yield()
	}
}

// sweepSleepers removes and unblocks every sleeper due at or before now.
// Caller must hold the gate. Sleep list membership reuses readyLink's
// sibling slot (sleepLink), never ready_list itself (invariant I5).
func (k *Kernel) sweepSleepers(now int64) {
	var woken []*Thread
	for t := k.sleep.Front(); t != nil; {
		next := k.sleep.Next(t)
		if t.tickSleepUntil > now {
			t = next
			continue
		}
		k.sleep.Remove(t)
		t.tickSleepUntil = 0
		woken = append(woken, t)
		t = next
	}
	for _, t := range woken {
		k.Unblock(t)
	}
}
