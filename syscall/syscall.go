// Package syscall is the thin trap-dispatch shim that sits above the
// scheduler core: a fixed table of numbered operations, user-pointer
// validation, and the per-process bookkeeping (pid, file descriptors, a
// process-wide filesystem lock) the operations share.
//
// None of this touches ready_list, sleep_list, or priority donation
// directly; it is built entirely on the exported pintos.Kernel surface, the
// way the original's userprog/ layer sits above threads/.
package syscall

import (
	"time"

	"github.com/poolmaster/pintos"
)

// Number identifies a syscall trap (spec §4.5 / §6).
type Number int

const (
	SysHalt Number = iota
	SysExit
	SysExec
	SysWait
	SysCreate
	SysRemove
	SysOpen
	SysFilesize
	SysRead
	SysWrite
	SysSeek
	SysTell
	SysClose
)

// ExitCode is the process's exit status. 0 is success; -1 marks a fault or
// unimplemented call; any other value is whatever EXIT(status) passed.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	ExitFault   ExitCode = -1
)

// Handler is the set of external collaborators the dispatch table calls
// into: the user-program loader/launcher, and the shared filesystem. Both
// are out of scope for the scheduler core (spec §1 "Out of scope") and are
// supplied by the embedder.
type Handler interface {
	Halt()
	Exec(cmdline string) PID
	Wait(pid PID) int
	FileSystem() FileSystem
}

// Dispatcher routes numbered traps to their handlers, validating every user
// pointer before it is read or written (spec §4.5) and enforcing the
// single process-wide filesystem lock.
type Dispatcher struct {
	k       *pintos.Kernel
	handler Handler
	mem     UserMemory
	fsLock  *pintos.Lock
}

// NewDispatcher returns a Dispatcher wired to the given kernel, handler and
// user-memory accessor.
func NewDispatcher(k *pintos.Kernel, handler Handler, mem UserMemory) *Dispatcher {
	return &Dispatcher{k: k, handler: handler, mem: mem, fsLock: pintos.NewLock()}
}

// Dispatch executes one syscall on behalf of the calling thread's process,
// measuring latency into the kernel's metrics if enabled (spec §9.5). Any
// memory fault encountered while reading arguments or transferring buffers
// terminates the calling process with ExitFault, releasing the filesystem
// lock first if the calling thread holds it (spec §4.5, §7.2).
func (d *Dispatcher) Dispatch(proc *Process, num Number, args [3]uintptr) (result int, err error) {
	start := time.Now()
	defer func() {
		if m := d.k.Metrics; m != nil {
			m.Latency.Record(float64(time.Since(start).Nanoseconds()))
		}
	}()
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(faultPanic); ok {
				pintos.Log(pintos.LevelWarn, "syscall-fault", "user memory fault", pintos.Fields{
					"syscall": int(num), "pid": int(proc.PID()),
				})
				d.releaseFilesystemLockIfHeld(proc)
				proc.Exit(ExitFault)
				result, err = int(ExitFault), ErrUserFault
				return
			}
			panic(r)
		}
	}()

	switch num {
	case SysHalt:
		d.handler.Halt()
		return 0, nil
	case SysExit:
		proc.Exit(ExitCode(int(args[0])))
		return 0, nil
	case SysExec:
		cmd := d.readCString(args[0])
		return int(d.handler.Exec(cmd)), nil
	case SysWait:
		return d.handler.Wait(PID(args[0])), nil
	case SysCreate:
		name := d.readCString(args[0])
		d.lockFilesystem(proc)
		defer d.unlockFilesystem(proc)
		ok := d.handler.FileSystem().Create(name, uint32(args[1]))
		return boolToInt(ok), nil
	case SysRemove:
		name := d.readCString(args[0])
		d.lockFilesystem(proc)
		defer d.unlockFilesystem(proc)
		ok := d.handler.FileSystem().Remove(name)
		return boolToInt(ok), nil
	case SysOpen:
		name := d.readCString(args[0])
		d.lockFilesystem(proc)
		defer d.unlockFilesystem(proc)
		f, ok := d.handler.FileSystem().Open(name)
		if !ok {
			return -1, nil
		}
		return int(proc.fds.Open(f)), nil
	case SysFilesize:
		f, ok := d.findFile(proc, FD(args[0]))
		if !ok {
			return -1, nil
		}
		d.lockFilesystem(proc)
		defer d.unlockFilesystem(proc)
		return f.Length(), nil
	case SysRead:
		return d.sysRead(proc, FD(args[0]), args[1], uint32(args[2]))
	case SysWrite:
		return d.sysWrite(proc, FD(args[0]), args[1], uint32(args[2]))
	case SysSeek:
		f, ok := d.findFile(proc, FD(args[0]))
		if ok {
			d.lockFilesystem(proc)
			f.Seek(uint32(args[1]))
			d.unlockFilesystem(proc)
		}
		return 0, nil
	case SysTell:
		f, ok := d.findFile(proc, FD(args[0]))
		if !ok {
			return 0, nil
		}
		d.lockFilesystem(proc)
		defer d.unlockFilesystem(proc)
		return int(f.Tell()), nil
	case SysClose:
		proc.fds.Close(FD(args[0]))
		return 0, nil
	default:
		return -1, ErrUnknownSyscall
	}
}

// sysRead handles fd 0 (stdin/keyboard) specially: it never touches the
// filesystem lock, matching the documented fix to the original's keyboard
// path (which failed to release a lock it never should have taken).
func (d *Dispatcher) sysRead(proc *Process, fd FD, bufAddr uintptr, size uint32) (int, error) {
	if fd == stdinFD {
		buf := d.readBuffer(bufAddr, size)
		n := readKeyboard(buf)
		d.writeUserBuffer(bufAddr, buf[:n])
		return n, nil
	}

	f, ok := d.findFile(proc, fd)
	if !ok {
		return -1, nil
	}
	d.lockFilesystem(proc)
	defer d.unlockFilesystem(proc)

	buf := make([]byte, size)
	n := f.Read(buf)
	d.writeUserBuffer(bufAddr, buf[:n])
	return n, nil
}

func (d *Dispatcher) sysWrite(proc *Process, fd FD, bufAddr uintptr, size uint32) (int, error) {
	buf := d.readBuffer(bufAddr, size)

	if fd == stdoutFD {
		return writeConsole(buf), nil
	}

	f, ok := d.findFile(proc, fd)
	if !ok {
		return -1, nil
	}
	d.lockFilesystem(proc)
	defer d.unlockFilesystem(proc)
	return f.Write(buf), nil
}

// findFile looks up fd in proc's descriptor table. Fixed per the documented
// bug: the original dereferenced a field of a null descriptor when no entry
// matched; here a missing descriptor is simply "not found".
func (d *Dispatcher) findFile(proc *Process, fd FD) (File, bool) {
	return proc.fds.Lookup(fd)
}

func (d *Dispatcher) lockFilesystem(proc *Process) {
	d.k.Acquire(d.fsLock)
	proc.holdsFilesystemLock = true
}

func (d *Dispatcher) unlockFilesystem(proc *Process) {
	proc.holdsFilesystemLock = false
	d.k.Release(d.fsLock)
}

func (d *Dispatcher) releaseFilesystemLockIfHeld(proc *Process) {
	if proc.holdsFilesystemLock {
		proc.holdsFilesystemLock = false
		d.k.Release(d.fsLock)
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
