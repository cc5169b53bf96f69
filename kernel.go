package pintos

import (
	"fmt"
	"sync/atomic"
)

// TickSource is the external interrupt-controller/timer-device collaborator
// (spec §6): it's responsible for calling Kernel.Tick once per hardware
// tick. The kernel never polls a clock itself.
type TickSource interface {
	// Run delivers ticks to deliver(now) until stopped; deliver must be
	// called from whatever goroutine represents "interrupt context" (never
	// the currently RUNNING kernel thread's own goroutine).
	Run(deliver func(now int64))
}

// Kernel is the whole scheduler and synchronization subsystem: ready/sleep/
// all-thread lists, the interrupt gate, and the single logical CPU's
// context-switch machinery.
type Kernel struct {
	gate *InterruptGate

	ready   *threadList
	sleep   *threadList
	threads *registry

	current       *Thread
	idle          *Thread
	boot          *Thread
	switchingFrom *Thread // set transiently across a schedule() handoff

	inInterrupt atomic.Bool

	nextTID  atomic.Int64
	ticks    atomic.Int64
	sliceLen int

	// sliceTicks counts ticks since the running thread last started or was
	// preempted; reset by afterSwitch (tail-schedule) and by schedule's
	// same-thread branch. Tick runs on a separate goroutine
	// from every kernel thread, but every read and write of this field
	// (in Tick, in schedule, and in afterSwitch) happens only while holding
	// gate — a real sync.Mutex, not just the logical ownership token — so
	// plain int is safe without atomics.
	sliceTicks int
	// yieldOnReturn is set by Tick when the running thread's slice has
	// expired, or by Unblock in interrupt context; Tick itself clears it
	// and yields after releasing the gate, the way the interrupt return
	// path would.
	yieldOnReturn atomic.Bool

	state *fastState
	opts  *kernelOptions

	Metrics *Metrics

	niceVal      atomic.Int64
	loadAvgBits  atomic.Uint64 // unused placeholder for MLFQS stub, see mlfqs.go
}

// New constructs a Kernel. It does not start scheduling; call Start from the
// goroutine that will become the boot thread.
func New(opts ...KernelOption) (*Kernel, error) {
	cfg, err := resolveKernelOptions(opts)
	if err != nil {
		return nil, err
	}

	k := &Kernel{
		gate:     NewInterruptGate(),
		threads:  newRegistry(),
		state:    newFastState(),
		opts:     cfg,
		sliceLen: cfg.timeSlice,
	}
	k.ready = newThreadList(func(t *Thread) *listLink { return &t.readyLink })
	k.sleep = newThreadList(func(t *Thread) *listLink { return &t.sleepLink })

	if cfg.metricsEnabled {
		k.Metrics = NewMetrics()
	}

	return k, nil
}

// Start brings the kernel online: it adopts the calling goroutine as the
// boot thread (the thread already "running" before the scheduler existed,
// mirroring Pintos's initial_thread) and creates the idle thread. Must be
// called exactly once, from the goroutine that will continue to drive
// kernel operations as the initial thread of control.
func (k *Kernel) Start() error {
	if !k.state.TryTransition(KernelCreated, KernelRunning) {
		return &ContractError{Op: "Start", Message: "kernel already started"}
	}

	bootPage := k.opts.pageAllocator.GetPage(true)
	if bootPage == nil {
		return &OutOfMemoryError{Name: "main"}
	}

	boot := k.newThreadRecord("main", k.opts.defaultPriority)
	boot.page = bootPage
	boot.status = Running
	boot.goroutineID = goroutineID()
	k.boot = boot
	k.current = boot
	k.threads.Insert(boot)

	idle, err := k.spawnThread("idle", MinPriority, func(any) {
		k.idleLoop()
	}, nil)
	if err != nil {
		return err
	}
	// idle is never placed on ready_list (spawnThread leaves it BLOCKED);
	// pickNext returns it directly whenever ready_list is empty.
	k.idle = idle

	k.logf(LevelInfo, "lifecycle", "kernel started", Fields{"boot_tid": int64(boot.tid)})
	return nil
}

func (k *Kernel) newThreadRecord(name string, priority int) *Thread {
	if len(name) > 16 {
		name = name[:16]
	}
	priority = clampPriority(priority)
	t := &Thread{
		tid:          TID(k.nextTID.Add(1)),
		name:         name,
		status:       Blocked,
		magic:        threadMagic,
		basePriority: priority,
		priority:     priority,
		holdingLocks: make(map[*Lock]struct{}),
		resume:       make(chan struct{}, 1),
		spawnAck:     make(chan struct{}),
	}
	return t
}

// CurrentThread returns the thread currently logically RUNNING.
func (k *Kernel) CurrentThread() *Thread {
	return k.current
}

// DriveTicks runs the configured TickSource, delivering every tick it
// produces to Kernel.Tick, until the source's Run method returns. Intended
// to be launched in its own goroutine — the one the rest of the kernel
// recognizes as "interrupt context" via inInterrupt (spec §5). A Kernel
// constructed without WithTickSource must instead be driven by explicit
// calls to Tick.
func (k *Kernel) DriveTicks() {
	if k.opts.tickSource == nil {
		violate("DriveTicks", "kernel was not configured with a TickSource")
	}
	k.opts.tickSource.Run(k.Tick)
}

// ForEachThread iterates every live thread in registration order
// (thread_foreach). fn must not block or call back into the kernel.
func (k *Kernel) ForEachThread(fn func(*Thread)) {
	g := k.gate.Enter()
	defer g.Exit()
	k.threads.Each(fn)
}

// Stats returns the idle/kernel/user tick counters (thread_print_stats).
func (k *Kernel) Stats() (idleTicks, kernelTicks, userTicks uint64) {
	if k.Metrics == nil {
		return 0, 0, 0
	}
	return k.Metrics.IdleTicks.Load(), k.Metrics.KernelTicks.Load(), k.Metrics.UserTicks.Load()
}

// CurrentTick returns the free-running tick counter's current value.
func (k *Kernel) CurrentTick() int64 {
	return k.ticks.Load()
}

func (k *Kernel) assertInterruptsOff(op string) {
	if k.gate.Level() != IntrOff {
		violate(op, "must be called with interrupts disabled")
	}
}

func (k *Kernel) assertInterruptsOn(op string) {
	if k.gate.Level() != IntrOn {
		violate(op, "must be called with interrupts enabled")
	}
}

func (t *Thread) String() string {
	return fmt.Sprintf("%s(tid=%d,pri=%d/%d,status=%s)", t.name, t.tid, t.priority, t.basePriority, t.status)
}
