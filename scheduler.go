package pintos

import "runtime"

// spawnThread allocates a thread record and its backing goroutine, and
// blocks until the goroutine has recorded its own runtime goroutine id
// (required before the thread can ever be the target of a context switch).
// The thread is left in the Blocked status, inserted into all_list, and NOT
// placed on ready_list — callers decide whether/when to make it ready.
func (k *Kernel) spawnThread(name string, priority int, fn EntryFunc, arg any) (*Thread, error) {
	page := k.opts.pageAllocator.GetPage(true)
	if page == nil {
		return nil, &OutOfMemoryError{Name: name}
	}

	g := k.gate.Enter()
	t := k.newThreadRecord(name, priority)
	t.page = page
	t.fn = fn
	t.arg = arg
	k.threads.Insert(t)
	g.Exit()

	go k.threadMain(t)
	<-t.spawnAck

	return t, nil
}

// threadMain is the goroutine body for every non-boot thread: it is the Go
// analogue of the three bootstrap stack frames described in spec §4.1
// (kernel_thread / switch_entry / switch_threads) collapsed into "park until
// first scheduled, then run fn, then exit".
func (k *Kernel) threadMain(t *Thread) {
	t.goroutineID = goroutineID()
	close(t.spawnAck)

	<-t.resume
	k.afterSwitch(t)
	// The switch handed this goroutine the gate still disabled; re-enable
	// interrupts before running fn, as the bootstrap routine does.
	k.gate.Restore(IntrOn)

	t.fn(t.arg)
	// fn may already have terminated this thread in-band (a process's exit
	// syscall, or a fault, both route through Exit before fn returns); a
	// second Exit call here would fight over gate ownership already handed
	// to whatever schedule() transferred it to.
	if t.status != Dying {
		k.Exit()
	}
}

// Create allocates and starts a new kernel thread (spec §4.1 "Creation").
// The new thread is immediately made READY; if it outranks the calling
// thread, control transfers to it before Create returns (spec scenario S1).
func (k *Kernel) Create(name string, priority int, fn EntryFunc, arg any) (TID, error) {
	k.assertInterruptsOn("Create")

	t, err := k.spawnThread(name, priority, fn, arg)
	if err != nil {
		k.logf(LevelError, "lifecycle", "create failed: out of memory", Fields{"name": name})
		return InvalidTID, err
	}

	k.logf(LevelDebug, "lifecycle", "thread created", Fields{"tid": int64(t.tid), "name": name, "priority": priority})
	k.Unblock(t)
	return t.tid, nil
}

// Block transitions the current thread to BLOCKED and switches away. The
// caller is responsible for having already put the thread on whatever
// waiter list is appropriate (or none, for a pure voluntary suspend); Block
// itself only performs the status change and context switch, exactly
// mirroring thread_block's contract that interrupts are already off.
func (k *Kernel) Block() {
	k.assertInterruptsOff("Block")
	cur := k.current
	cur.assertValid()
	cur.status = Blocked
	k.schedule(cur)
}

// Unblock moves t from BLOCKED to READY and inserts it into ready_list in
// priority order. Safe to call from interrupt context (Tick's sleep sweep
// does); in that case the immediate-preemption branch is skipped in favor
// of the slice-expiry flag (spec §4.2). Reentrant with respect to the
// interrupt gate, so it may be called while the gate is already held.
func (k *Kernel) Unblock(t *Thread) {
	g := k.gate.Enter()
	defer g.Exit()

	t.assertValid()
	if t.status != Blocked {
		violate("Unblock", "thread %s is not BLOCKED", t)
	}
	t.status = Ready
	k.ready.InsertOrdered(t)

	cur := k.current
	if cur != nil && cur != k.idle && cur.status == Running && t.EffectivePriority() > cur.EffectivePriority() {
		if k.inInterrupt.Load() {
			k.yieldOnReturn.Store(true)
		} else {
			k.yield()
		}
	}
}

// Yield voluntarily gives up the CPU: the current thread goes back onto
// ready_list (unless it is idle) and the scheduler picks the next thread.
func (k *Kernel) Yield() {
	k.assertInterruptsOn("Yield")
	g := k.gate.Enter()
	k.yield()
	g.Exit()
}

// yield is Yield's body with interrupts already disabled: the current
// thread (unless it is idle, which never calls this) goes back onto
// ready_list and the scheduler picks the next thread. Shared by voluntary
// Yield and Unblock's synchronous-preemption branch — in both cases the
// outgoing thread is merely preempted, not blocked, so it must remain
// runnable.
func (k *Kernel) yield() {
	cur := k.current
	cur.assertValid()
	cur.status = Ready
	if cur != k.idle {
		k.ready.InsertOrdered(cur)
	}
	k.schedule(cur)
}

// Exit terminates the current thread: it is removed from all_list, marked
// DYING, and the scheduler switches away; the page is freed by whichever
// thread schedule() picks next. Exit must never be called from interrupt
// context. schedule() does return control here once it has handed the gate
// to whatever runs next — but that gate ownership was transferred away,
// not reacquired by this goroutine, so unlike every other caller of
// schedule, Exit must not pair its Enter with an Exit: doing so would
// release a gate this goroutine no longer owns out from under next.
func (k *Kernel) Exit() {
	k.assertInterruptsOn("Exit")
	if k.current == k.boot {
		violate("Exit", "boot thread must not exit")
	}
	k.gate.Enter()
	cur := k.current
	k.threads.Remove(cur)
	cur.status = Dying
	k.logf(LevelDebug, "lifecycle", "thread exiting", Fields{"tid": int64(cur.tid), "name": cur.name})
	k.schedule(cur)
	// This goroutine's job is done; it unwinds and exits without ever
	// restoring the gate it entered above.
}

// SetPriority implements the non-donation branch of explicit priority set
// (spec §4.4): assigns base_priority, and — if no donation is active, or the
// new base exceeds the donated priority — effective priority too, yielding
// if a now-outranking thread is ready.
func (k *Kernel) SetPriority(p int) {
	p = clampPriority(p)
	g := k.gate.Enter()
	cur := k.current
	donated := cur.IsDonated()
	cur.basePriority = p
	if !donated || p > cur.priority {
		cur.priority = p
	}
	outranked := !k.ready.Empty() && k.ready.Max().EffectivePriority() > cur.EffectivePriority()
	g.Exit()
	if outranked {
		k.Yield()
	}
}

// GetPriority returns the calling thread's effective priority.
func (k *Kernel) GetPriority() int {
	return k.current.EffectivePriority()
}

// pickNext returns the next thread to run: the highest-priority ready
// thread (FIFO among ties), or the idle thread if ready_list is empty.
// Caller must hold the gate.
func (k *Kernel) pickNext() *Thread {
	if t := k.ready.PopFront(); t != nil {
		return t
	}
	return k.idle
}

// schedule performs the context switch away from prev, which the caller has
// already moved out of RUNNING (status already updated to Ready/Blocked/
// Dying). Must be called with interrupts disabled. For a DYING prev it
// returns as soon as next has been signalled, without waiting to be resumed.
func (k *Kernel) schedule(prev *Thread) {
	k.assertInterruptsOff("schedule")

	next := k.pickNext()
	if next == prev {
		// Nothing else runnable besides the thread already running — the
		// idle-thread degenerate case where next_to_run trivially returns
		// idle again. No real handoff needed.
		prev.status = Running
		k.sliceTicks = 0
		return
	}

	if k.Metrics != nil {
		k.Metrics.ContextSwitches.Add(1)
	}

	dying := prev.status == Dying
	k.current = next
	k.switchingFrom = prev
	k.gate.Transfer(next.goroutineID)

	next.resume <- struct{}{}

	if dying {
		return // prev's goroutine unwinds and exits; never resumes
	}

	<-prev.resume
	k.afterSwitch(prev)
}

// afterSwitch is tail-schedule (spec §4.1): run by the newly-scheduled
// thread immediately after it wakes from its resume channel. It marks the
// thread RUNNING, resets the time-slice counter, and frees the outgoing
// thread's page if it was DYING.
func (k *Kernel) afterSwitch(t *Thread) {
	t.assertValid()
	t.status = Running
	k.sliceTicks = 0

	prev := k.switchingFrom
	k.switchingFrom = nil
	if prev != nil && prev.status == Dying && prev != k.boot {
		k.opts.pageAllocator.FreePage(prev.page)
	}
}

// idleLoop is the idle thread's body (spec §4.1 "Idle thread"): repeatedly
// blocks itself. Real hardware would sti;hlt and let an interrupt wake it;
// here that degenerate self-reschedule (see schedule's next==prev branch)
// returns immediately when nothing else is ready, so a Gosched stands in
// for halting rather than spinning a core.
func (k *Kernel) idleLoop() {
	for {
		g := k.gate.Enter()
		k.Block()
		g.Exit()
		runtime.Gosched()
	}
}
