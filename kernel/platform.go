package kernel

// IRQState is the interrupt mask state returned by DisableInterrupts.
type IRQState uint32

// Platform is everything the kernel needs from the processor.
//
// Swap is the only operation that must be atomic in hardware. Interrupt
// masking is the only protection against the tick handler, which never takes a
// critical section. FirstDispatch and Switch transfer control between thread
// contexts using the frame layout of InitStack.
type Platform interface {
	// Swap stores v at addr and returns the previous value in one atomic step.
	Swap(addr *uint32, v uint32) uint32

	DisableInterrupts() IRQState
	RestoreInterrupts(s IRQState)
	// WaitForInterrupt blocks until an interrupt is pending and services it.
	WaitForInterrupt()
	// Halt masks interrupts and stops the processor. It does not return.
	Halt()

	// Attach installs the kernel callbacks. It is called once by New.
	Attach(h Handler)
	// FirstDispatch jumps into t's saved frame. It is called once, with
	// interrupts masked, and returns only after the platform halted.
	FirstDispatch(t *Thread)
	// Switch saves the running thread's registers on its stack, calls
	// Handler.SwitchThread with the new stack pointer and restores the thread
	// it returns. It returns when from is restored again.
	Switch(from *Thread)
}

// Handler is the kernel side of the platform contract.
type Handler interface {
	// Tick is the timer interrupt body. It runs with interrupts masked.
	Tick()
	// SwitchThread records sp as the outgoing continuation, schedules and
	// returns the incoming thread.
	SwitchThread(sp StackPointer) *Thread
	// RunThread runs a freshly dispatched thread's entry point.
	RunThread(t *Thread)
	// Fatal stops the kernel after an invariant violation.
	Fatal(msg string)
}
