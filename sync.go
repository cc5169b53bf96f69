package pintos

// Semaphore is a classic counting semaphore (spec §4.3): Down blocks while
// the count is zero; Up increments it and wakes the highest-priority
// waiter, if any. Waiters are not kept in priority order (effective
// priority can change while waiting, via donation), so Up scans for the
// maximum at wake time rather than trusting insertion order.
type Semaphore struct {
	value   int
	waiters *threadList
}

// NewSemaphore returns a semaphore initialized to value, which must be >= 0.
func NewSemaphore(value int) *Semaphore {
	if value < 0 {
		violate("NewSemaphore", "initial value must be >= 0, got %d", value)
	}
	return &Semaphore{
		value:   value,
		waiters: newThreadList(func(t *Thread) *listLink { return &t.readyLink }),
	}
}

// Down waits for the semaphore's value to become positive and then
// atomically decrements it (sema_down). Blocks the calling thread if the
// value is currently zero.
func (k *Kernel) Down(s *Semaphore) {
	k.assertInterruptsOn("Down")
	g := k.gate.Enter()
	for s.value == 0 {
		cur := k.current
		s.waiters.PushBack(cur)
		k.Block()
	}
	s.value--
	g.Exit()
}

// Up increments the semaphore's value and wakes the highest-priority
// waiter, if any (sema_up). Safe to call from interrupt context.
func (k *Kernel) Up(s *Semaphore) {
	g := k.gate.Enter()
	defer g.Exit()

	s.value++
	if w := s.waiters.Max(); w != nil {
		s.waiters.Remove(w)
		k.Unblock(w)
	}
}

// TryDown attempts Down without blocking; reports whether it succeeded.
func (k *Kernel) TryDown(s *Semaphore) bool {
	g := k.gate.Enter()
	defer g.Exit()
	if s.value == 0 {
		return false
	}
	s.value--
	return true
}

// Lock is a binary semaphore with an owner and priority-donation support
// (spec §4.3/§4.4). Not recursive: a thread must never Acquire a Lock it
// already holds.
type Lock struct {
	sem    *Semaphore
	holder *Thread
}

// NewLock returns an unheld lock.
func NewLock() *Lock {
	return &Lock{sem: NewSemaphore(1)}
}

// Holder returns the thread currently holding l, or nil if unheld. Racy by
// nature outside the gate; intended for diagnostics.
func (l *Lock) Holder() *Thread { return l.holder }

// Acquire takes l, blocking if another thread holds it. If l is held, the
// calling thread donates its effective priority along the holder chain
// (depth-capped nested donation, spec §4.4) before blocking, so the holder
// and everything it in turn waits on run at no less than the waiter's
// priority until released.
func (k *Kernel) Acquire(l *Lock) {
	k.assertInterruptsOn("Acquire")

	g := k.gate.Enter()
	cur := k.current
	if l.holder == cur {
		g.Exit()
		violate("Acquire", "thread %s already holds this lock", cur)
	}
	if l.holder != nil {
		cur.waitingLock = l
		k.donate(cur, l)
	}
	g.Exit()

	k.Down(l.sem)

	g = k.gate.Enter()
	cur.waitingLock = nil
	l.holder = cur
	cur.holdingLocks[l] = struct{}{}
	g.Exit()
}

// TryAcquire attempts Acquire without blocking or donating; reports
// whether it succeeded.
func (k *Kernel) TryAcquire(l *Lock) bool {
	if !k.TryDown(l.sem) {
		return false
	}
	g := k.gate.Enter()
	l.holder = k.current
	k.current.holdingLocks[l] = struct{}{}
	g.Exit()
	return true
}

// Release gives up l (spec §4.4 "Release"): the holder's effective
// priority is recomputed from its remaining held locks' waiters (donations
// from other locks survive), and the highest-priority waiter, if any, is
// woken.
func (k *Kernel) Release(l *Lock) {
	g := k.gate.Enter()
	cur := k.current
	if l.holder != cur {
		g.Exit()
		violate("Release", "thread %s does not hold this lock", cur)
	}
	l.holder = nil
	delete(cur.holdingLocks, l)
	k.recomputeDonatedPriority(cur)
	g.Exit()

	k.Up(l.sem)
}

// condWaiter is one condition-variable waiter: its own private one-shot
// semaphore, exactly mirroring the source's semaphore_elem list-of-
// semaphores design. Signal picks the highest-priority entry of
// cv.waiters and posts only that waiter's semaphore. condWaiters are kept
// in a plain slice rather than a threadList because a thread waiting on a
// condition variable is, at the same instant, also queued on its own
// semaphore's waiter list — both would need the same readyLink slot
// (invariant I5 already reserves that slot for a single membership).
type condWaiter struct {
	thread *Thread
	sem    *Semaphore
}

// CondVar is a condition variable associated with an external lock the
// caller holds around Wait/Signal/Broadcast (spec §4.3).
type CondVar struct {
	waiters []*condWaiter
}

// NewCondVar returns a condition variable with no waiters.
func NewCondVar() *CondVar {
	return &CondVar{}
}

// Wait atomically releases l and blocks until signalled, then reacquires l
// before returning (cond_wait). The caller must hold l.
func (k *Kernel) Wait(cv *CondVar, l *Lock) {
	k.assertInterruptsOn("Wait")

	sem := NewSemaphore(0)
	g := k.gate.Enter()
	cv.waiters = append(cv.waiters, &condWaiter{thread: k.current, sem: sem})
	g.Exit()

	k.Release(l)
	k.Down(sem)
	k.Acquire(l)
}

// Signal wakes the highest-priority thread waiting on cv, if any
// (cond_signal). The caller must hold the associated lock.
func (k *Kernel) Signal(cv *CondVar) {
	g := k.gate.Enter()
	idx, w := maxCondWaiter(cv.waiters)
	if w == nil {
		g.Exit()
		return
	}
	cv.waiters = append(cv.waiters[:idx], cv.waiters[idx+1:]...)
	g.Exit()

	k.Up(w.sem)
}

// Broadcast wakes every thread waiting on cv (cond_broadcast).
func (k *Kernel) Broadcast(cv *CondVar) {
	for {
		g := k.gate.Enter()
		empty := len(cv.waiters) == 0
		g.Exit()
		if empty {
			return
		}
		k.Signal(cv)
	}
}

// maxCondWaiter returns the index and waiter with the highest effective
// priority, earliest-inserted breaking ties; nil if waiters is empty.
func maxCondWaiter(waiters []*condWaiter) (int, *condWaiter) {
	best := -1
	for i, w := range waiters {
		if best == -1 || w.thread.EffectivePriority() > waiters[best].thread.EffectivePriority() {
			best = i
		}
	}
	if best == -1 {
		return -1, nil
	}
	return best, waiters[best]
}
