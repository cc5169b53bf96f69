package syscall

import "github.com/poolmaster/pintos"

// UserMemory is the external collaborator giving the dispatch layer access
// to a user program's address space (spec §1 "Out of scope": address-space
// activation lives outside the scheduler core). It models PHYS_BASE, the
// fixed boundary between user and kernel virtual memory.
type UserMemory interface {
	// KernelSplit returns the first address that belongs to kernel space;
	// every valid user address is strictly below it.
	KernelSplit() uintptr
	ReadByte(addr uintptr) (byte, bool)
	WriteByte(addr uintptr, b byte) bool
}

// ErrUserFault is returned (wrapping a terminated process) when a syscall's
// argument or buffer access faults.
var ErrUserFault error = &pintos.FaultError{Message: "user memory access fault"}

// ErrUnknownSyscall is returned for a trap number outside 0..12.
var ErrUnknownSyscall error = &pintos.FaultError{Message: "unknown syscall number"}

// faultPanic is the internal signal checkUser/readByte use to unwind out of
// argument or buffer transfer on a bad pointer; Dispatch recovers it and
// terminates the process with ExitFault (spec §4.5, §7.2).
type faultPanic struct{}

// checkUser validates that addr is a legal user address: non-null and
// strictly below the kernel split. The original had this polarity
// inverted — it rejected addresses *below* the split instead of rejecting
// addresses *at or above* it, which let a pointer into kernel space pass
// validation. This is the corrected, authoritative check (spec Design
// Notes, Open Questions).
func (d *Dispatcher) checkUser(addr uintptr) {
	if addr == 0 || addr >= d.mem.KernelSplit() {
		panic(faultPanic{})
	}
}

func (d *Dispatcher) readBuffer(addr uintptr, size uint32) []byte {
	buf := make([]byte, size)
	for i := uint32(0); i < size; i++ {
		a := addr + uintptr(i)
		d.checkUser(a)
		b, ok := d.mem.ReadByte(a)
		if !ok {
			panic(faultPanic{})
		}
		buf[i] = b
	}
	return buf
}

func (d *Dispatcher) writeUserBuffer(addr uintptr, data []byte) {
	for i, b := range data {
		a := addr + uintptr(i)
		d.checkUser(a)
		if !d.mem.WriteByte(a, b) {
			panic(faultPanic{})
		}
	}
}

func (d *Dispatcher) readCString(addr uintptr) string {
	var buf []byte
	for {
		d.checkUser(addr)
		b, ok := d.mem.ReadByte(addr)
		if !ok {
			panic(faultPanic{})
		}
		if b == 0 {
			break
		}
		buf = append(buf, b)
		addr++
	}
	return string(buf)
}
