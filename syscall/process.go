package syscall

import "github.com/poolmaster/pintos"

// PID identifies a user process (userprog/process.h's pid_t).
type PID int

const (
	// PIDError is returned by Exec when the child failed to load.
	PIDError PID = -1
	// PIDInit is the sentinel value a Process is created with, before a
	// successful Exec assigns it a real pid.
	PIDInit PID = -2
)

// Process is a user-program-bearing thread's control block (spec §3
// "Optionally, a per-process control block"; supplemented from
// userprog/process.h, which the distilled spec omits the bookkeeping for).
// It is opaque to the scheduler core — only this package and Dispatch touch
// it. Dispatch takes it as an explicit argument; an embedder may also
// attach it to a pintos.Thread via SetProcess.
type Process struct {
	k    *pintos.Kernel
	pid  PID
	name string

	parent *Process
	// waitSem is posted by the child's Exit, consumed once by the parent's
	// Wait for this pid.
	waitSem *pintos.Semaphore
	// loadSem is posted once the child has finished (successfully or not)
	// loading its executable, so Exec can return the right pid synchronously.
	loadSem *pintos.Semaphore
	loadOK  bool

	orphan   bool
	exited   bool
	exitCode ExitCode

	fds *fdTable

	holdsFilesystemLock bool
}

// NewProcess returns a process control block for a newly created
// user-program thread. pid starts at PIDInit until the loader assigns a
// real one.
func NewProcess(k *pintos.Kernel, name string, parent *Process) *Process {
	return &Process{
		k:       k,
		pid:     PIDInit,
		name:    name,
		parent:  parent,
		waitSem: pintos.NewSemaphore(0),
		loadSem: pintos.NewSemaphore(0),
		fds:     newFDTable(),
	}
}

// PID returns the process's assigned pid, or PIDInit before load completes.
func (p *Process) PID() PID { return p.pid }

// SetPID assigns the pid once the loader (out of scope here) has one.
func (p *Process) SetPID(pid PID) { p.pid = pid }

// SignalLoaded wakes whichever thread is waiting in Exec for this child to
// finish loading (spec §6 Exec → pid).
func (p *Process) SignalLoaded(k *pintos.Kernel, ok bool) {
	p.loadOK = ok
	k.Up(p.loadSem)
}

// AwaitLoaded blocks the calling thread until SignalLoaded is called,
// reporting whether the load succeeded.
func (p *Process) AwaitLoaded(k *pintos.Kernel) bool {
	k.Down(p.loadSem)
	return p.loadOK
}

// Exit records code as the process's exit status, closes every open file
// descriptor, and wakes a parent blocked in Wait for this pid — then
// terminates the underlying kernel thread. It does not touch children (a
// Process keeps no list of them). It returns once the kernel has switched
// away; the calling goroutine then only unwinds.
func (p *Process) Exit(code ExitCode) {
	p.exitCode = code
	p.exited = true
	p.fds.CloseAll()
	p.k.Up(p.waitSem)
	p.k.Exit()
}

// WaitChild blocks until child has exited and returns its exit code,
// exactly once; a second call for the same child would block forever,
// matching the source's single-wait-per-child contract.
func (p *Process) WaitChild(child *Process) int {
	p.k.Down(child.waitSem)
	return int(child.exitCode)
}

// MarkOrphan sets the process's orphan flag, for a parent's own exit to
// call on each child still alive. Nothing in this package reads the flag;
// Exit behaves the same for an orphan.
func (p *Process) MarkOrphan() { p.orphan = true }

// ExitCode returns the process's recorded exit status. Only meaningful
// after Exit has run (observed by a parent via Wait).
func (p *Process) ExitCode() ExitCode { return p.exitCode }
