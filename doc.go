// Package pintos implements the kernel thread scheduler and synchronization
// subsystem of a small teaching operating system: creation and termination of
// kernel threads, a priority-ordered ready queue with timer-driven
// preemption, a tick-driven sleep queue, and priority donation through
// blocking locks to avoid priority inversion.
//
// # Architecture
//
// A [Kernel] owns the three thread lists (ready, all, sleep) and performs
// every context switch. Each kernel thread is backed by a real goroutine,
// but only one thread is ever logically RUNNING: [Kernel.schedule] hands
// control to the next thread by signalling its resume channel and then
// parking the outgoing goroutine on its own, so the illusion of a single CPU
// is maintained regardless of how the Go runtime actually schedules
// goroutines.
//
// Every mutation of scheduler state (the three lists, a thread's status or
// priority) happens inside an interrupts-disabled section, modelled by
// [InterruptGate] rather than by sprinkling ad hoc mutexes through the
// codebase.
//
// # Synchronization primitives
//
// [Semaphore], [Lock] and [CondVar] are layered the classic way: Lock is a
// binary Semaphore plus a holder pointer and priority donation hookup;
// CondVar is a list of per-waiter semaphores, signalled highest effective
// priority first (earliest waiter on ties). See donation.go for the nested
// priority donation walk triggered by a contended Lock.Acquire.
//
// # Syscalls
//
// The syscall subpackage is a thin, numbered dispatch table fed by a trap
// handler the user-program subsystem installs; see that package's doc
// comment for the trap contract.
//
// # Ambient stack
//
// Structured logging ([SetLogger]) is backed by
// github.com/joeycumines/logiface with the stumpy JSON backend by default,
// with github.com/joeycumines/go-catrate throttling noisy categories
// (repeated donation events, repeated user-pointer faults). [Metrics] tracks
// context switches, preemptions, idle ticks and syscall dispatch latency
// percentiles via the p² streaming estimator in psquare.go.
package pintos
