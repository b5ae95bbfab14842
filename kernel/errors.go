package kernel

import "errors"

var (
	// ErrNull reports a missing name or entry point.
	ErrNull = errors.New("null argument")
	// ErrNameTooLong reports a thread name longer than MaxThreadNameLen.
	ErrNameTooLong = errors.New("name too long")
	// ErrFull reports that the thread pool has no free slots.
	ErrFull = errors.New("thread pool exhausted")
	// ErrBusy reports a critical section held by another thread.
	ErrBusy = errors.New("busy")
	// ErrUnexpected reports a call that violates the caller contract, such as
	// leaving a critical section that the thread does not own.
	ErrUnexpected = errors.New("unexpected")
	// ErrNotQueued reports a thread that is not a member of any queue.
	ErrNotQueued = errors.New("thread not queued")
)
