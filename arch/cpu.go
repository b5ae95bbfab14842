// Package arch runs kernel threads on a virtual single-core processor.
//
// Every thread gets its own goroutine, but only the goroutine holding the
// CPU executes: a context switch saves a register frame on the outgoing
// thread's stack, asks the kernel for the next thread and hands the CPU to
// it by restoring that thread's frame. Timer interrupts raised from outside
// are taken at the next point where the running thread unmasks interrupts,
// waits for an interrupt or calls Kernel.Preempt.
package arch

import (
	"fmt"
	"sync"
	"sync/atomic"

	"tk/kernel"
)

// resumePC marks a frame saved by Switch. Restoring it continues the parked
// goroutine instead of starting a new one.
const resumePC = kernel.TrampolinePC + 4

// CPU implements kernel.Platform.
type CPU struct {
	h kernel.Handler

	masked  atomic.Bool
	pending atomic.Uint32
	wake    chan struct{}

	halted   chan struct{}
	haltOnce sync.Once

	// Owned by whichever goroutine holds the CPU.
	contexts map[*kernel.Thread]*threadContext
}

type threadContext struct {
	resume chan struct{}
	// sp is the live stack pointer while the thread runs.
	sp kernel.StackPointer
}

// New returns a CPU with interrupts masked.
func New() *CPU {
	c := &CPU{
		wake:     make(chan struct{}, 1),
		halted:   make(chan struct{}),
		contexts: make(map[*kernel.Thread]*threadContext),
	}
	c.masked.Store(true)
	return c
}

// Halted is closed once the CPU has halted.
func (c *CPU) Halted() <-chan struct{} { return c.halted }

// Raise marks a timer interrupt pending. It is safe to call from any
// goroutine.
func (c *CPU) Raise() {
	c.pending.Add(1)
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of interrupts not yet serviced.
func (c *CPU) Pending() uint32 { return c.pending.Load() }

func (c *CPU) Attach(h kernel.Handler) { c.h = h }

func (c *CPU) Swap(addr *uint32, v uint32) uint32 {
	return atomic.SwapUint32(addr, v)
}

func (c *CPU) DisableInterrupts() kernel.IRQState {
	if c.masked.Swap(true) {
		return 1
	}
	return 0
}

func (c *CPU) RestoreInterrupts(s kernel.IRQState) {
	if s != 0 {
		c.masked.Store(true)
		return
	}
	c.masked.Store(false)
	c.deliver()
}

// WaitForInterrupt parks the running thread until an interrupt is pending.
// With interrupts masked it only waits.
func (c *CPU) WaitForInterrupt() {
	for c.pending.Load() == 0 {
		select {
		case <-c.wake:
		case <-c.halted:
			c.stop()
		}
	}
	c.deliver()
}

// Halt masks interrupts and stops the CPU. The calling goroutine never
// returns.
func (c *CPU) Halt() {
	c.masked.Store(true)
	c.haltOnce.Do(func() { close(c.halted) })
	c.stop()
}

func (c *CPU) stop() {
	select {}
}

// FirstDispatch restores t and waits until the CPU halts.
func (c *CPU) FirstDispatch(t *kernel.Thread) {
	c.restore(t)
	<-c.halted
}

// Switch saves from, lets the kernel choose the next thread and restores it.
// It returns once from is restored again.
func (c *CPU) Switch(from *kernel.Thread) {
	if from == nil {
		return
	}
	ctx := c.contextOf(from)

	f := kernel.Frame{CPSR: kernel.ModeSVC, PC: resumePC}
	if c.masked.Load() {
		f.CPSR |= kernel.IRQDisable
	}
	sp := kernel.StoreFrame(from.Stack(), ctx.sp, &f)

	next := c.h.SwitchThread(sp)
	c.restore(next)

	select {
	case <-ctx.resume:
	case <-c.halted:
		c.stop()
	}
}

func (c *CPU) contextOf(t *kernel.Thread) *threadContext {
	ctx := c.contexts[t]
	if ctx == nil {
		ctx = &threadContext{resume: make(chan struct{}, 1), sp: kernel.StackPointer(len(t.Stack()))}
		c.contexts[t] = ctx
	}
	return ctx
}

// restore pops t's saved frame and hands it the CPU.
func (c *CPU) restore(t *kernel.Thread) {
	stack := t.Stack()
	sp := t.SP()
	if int(sp)+kernel.FrameWords > len(stack) {
		c.h.Fatal(fmt.Sprintf("thread %s: stack pointer %d out of range", t.Name(), sp))
	}

	f, top := kernel.LoadFrame(stack, sp)
	if f.Mode() != kernel.ModeSVC {
		c.h.Fatal(fmt.Sprintf("thread %s: bad frame mode %#x", t.Name(), f.Mode()))
	}

	ctx := c.contextOf(t)
	ctx.sp = top
	c.masked.Store(!f.IRQEnabled())

	switch f.PC {
	case kernel.TrampolinePC:
		go c.run(t)
	case resumePC:
		ctx.resume <- struct{}{}
	default:
		c.h.Fatal(fmt.Sprintf("thread %s: bad frame pc %#x", t.Name(), f.PC))
	}
}

func (c *CPU) run(t *kernel.Thread) {
	c.deliver()
	c.h.RunThread(t)
}

// deliver services pending interrupts while they are unmasked, the way the
// interrupt vector would: masked for the duration of the handler.
func (c *CPU) deliver() {
	for !c.masked.Load() && c.pending.Load() > 0 {
		c.pending.Add(^uint32(0))
		c.masked.Store(true)
		c.h.Tick()
		c.masked.Store(false)
	}
}

var _ kernel.Platform = (*CPU)(nil)
