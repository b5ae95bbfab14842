package kernel

import "fmt"

// FatalInfo describes the invariant violation that stopped the kernel.
type FatalInfo struct {
	Message string
	Thread  string
	Tick    Tick
	Stack   []byte
}

// SetFatalHandler installs fn as the fatal handler.
//
// The handler runs at most once, with interrupts masked, before the platform
// halts. It must not block on kernel primitives.
func (k *Kernel) SetFatalHandler(fn func(FatalInfo)) {
	k.fatalHandler.Store(fn)
}

// Halted reports whether the kernel stopped on a fatal error.
func (k *Kernel) Halted() bool {
	return k.halted.Load()
}

// Fatal masks interrupts, reports msg and halts the platform.
func (k *Kernel) Fatal(msg string) {
	k.cpu.DisableInterrupts()
	k.fatalOnce.Do(func() {
		k.halted.Store(true)
		info := FatalInfo{
			Message: msg,
			Thread:  k.current.String(),
			Tick:    k.Ticks(),
			Stack:   captureStack(),
		}
		if k.log != nil {
			k.log.WriteLineString(fmt.Sprintf("tk fatal: thread=%s tick=%d: %s", info.Thread, info.Tick, info.Message))
		}
		if v := k.fatalHandler.Load(); v != nil {
			if fn, ok := v.(func(FatalInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
	k.cpu.Halt()
}
