package pintos

// maxDonationDepth caps the nested-donation chain walk (spec §4.4 "Nested
// donation"): A waits on B waits on C ... A lock-acquire graph deeper than
// this is treated as a contract violation rather than walked forever, since
// a well-formed program's lock order never nests this deep.
const maxDonationDepth = 8

// donate walks the chain of locks from waiter (who is about to block on l)
// through each successive holder, raising every thread in the chain's
// effective priority to at least waiter's, stopping at the first thread
// that already dominates or at maxDonationDepth, whichever comes first
// (spec §4.4 "Acquire", "Nested donation"). Caller must hold the gate.
func (k *Kernel) donate(waiter *Thread, l *Lock) {
	donor := waiter
	lock := l
	for depth := 0; depth < maxDonationDepth; depth++ {
		if lock == nil || lock.holder == nil {
			return
		}
		holder := lock.holder
		if donor.EffectivePriority() <= holder.EffectivePriority() {
			return
		}

		newPriority := donor.EffectivePriority()
		holder.priority = newPriority
		if holder.status == Ready {
			// Effective priority changed while queued: reposition in
			// ready_list to preserve its priority-sorted invariant (I3).
			k.ready.Remove(holder)
			k.ready.InsertOrdered(holder)
		}

		if k.Metrics != nil {
			k.Metrics.recordDonation(depth + 1)
		}
		k.logf(LevelDebug, "donation", "priority donated", Fields{
			"donor": int64(donor.tid), "holder": int64(holder.tid), "priority": newPriority, "depth": depth + 1,
		})

		if holder.waitingLock == nil {
			return
		}
		donor = holder
		lock = holder.waitingLock
	}
	violate("donate", "donation chain exceeds depth %d, likely a lock-order cycle", maxDonationDepth)
}

// recomputeDonatedPriority restores t's effective priority after it
// releases a lock (spec §4.4 "Release"): the new effective priority is the
// highest of t's own base priority and whatever any thread still waiting
// on t's remaining held locks would donate.
func (k *Kernel) recomputeDonatedPriority(t *Thread) {
	best := t.basePriority
	for held := range t.holdingLocks {
		if w := held.sem.waiters.Max(); w != nil && w.EffectivePriority() > best {
			best = w.EffectivePriority()
		}
	}
	t.priority = best
}
