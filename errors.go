// Package pintos: kernel contract violations panic (programming bugs);
// user-facing faults are plain errors. See ContractError and the Fault
// types below.
package pintos

import "fmt"

// ContractError is the value every kernel contract-violation panic carries
// (spec §7.1): wrong interrupt level, bad magic, a status/queue mismatch, or
// any other precondition a scheduler entry point asserts and finds false.
// These are programming bugs, not user-facing failures, so they panic
// rather than return an error. The exceptions are setup calls: Start (when
// called twice) and WithTimeSlice (ticks < 1) return a ContractError.
type ContractError struct {
	Op      string // the operation whose precondition failed, e.g. "Block"
	Message string
	Cause   error
}

func (e *ContractError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("pintos: %s: contract violation", e.Op)
	}
	return fmt.Sprintf("pintos: %s: %s", e.Op, e.Message)
}

// Unwrap returns the underlying cause, for use with errors.Is / errors.As.
func (e *ContractError) Unwrap() error { return e.Cause }

// violate panics with a ContractError; used at every scheduler entry point
// that asserts an interrupt-level or invariant precondition.
func violate(op, format string, args ...any) {
	panic(&ContractError{Op: op, Message: fmt.Sprintf(format, args...)})
}

// OutOfMemoryError is returned by Create (together with InvalidTID) and by
// Start when the page allocator is exhausted.
type OutOfMemoryError struct {
	Name string
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("pintos: create %q: page allocator exhausted", e.Name)
}

// FaultError represents a user-facing fault (spec §7.2): a bad user
// pointer, bad file descriptor, or read/write failure. These are returned
// up the syscall dispatch path as ordinary errors, never panics — a
// misbehaving user program is business as usual, not a kernel bug.
type FaultError struct {
	Message string
	Cause   error
}

func (e *FaultError) Error() string {
	if e.Message == "" {
		return "pintos: fault"
	}
	return "pintos: fault: " + e.Message
}

func (e *FaultError) Unwrap() error { return e.Cause }

// WrapError wraps an error with a message and cause chain, satisfying
// errors.Is(result, cause).
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}
