package kernel

// CriticalSection is a reentrant single-owner lock for thread code.
//
// A thread that finds it held yields instead of spinning, so the holder can
// run and release it even on a single core. The tick handler never takes a
// critical section; code racing against it masks interrupts instead.
//
// owner and count are only written by the thread that holds lock.
type CriticalSection struct {
	k     *Kernel
	lock  uint32
	owner *Thread
	count uint32
}

// NewCriticalSection returns a released critical section.
func (k *Kernel) NewCriticalSection() *CriticalSection {
	cs := &CriticalSection{}
	cs.Init(k)
	return cs
}

// Init releases cs and binds it to k.
func (cs *CriticalSection) Init(k *Kernel) {
	cs.k = k
	cs.lock = 0
	cs.owner = nil
	cs.count = 0
}

// Owner returns the holding thread, or nil.
func (cs *CriticalSection) Owner() *Thread { return cs.owner }

// Count returns the reentry count of the owner.
func (cs *CriticalSection) Count() uint32 { return cs.count }

// Held reports whether the lock word is set.
func (cs *CriticalSection) Held() bool { return cs.lock != 0 }

// Enter acquires cs for t, yielding until it is available. A thread that
// already owns cs only increments the reentry count.
func (cs *CriticalSection) Enter(t *Thread) error {
	if t == nil {
		return ErrUnexpected
	}
	if cs.owner == t {
		cs.count++
		return nil
	}

	for cs.k.cpu.Swap(&cs.lock, 1) != 0 {
		cs.k.Yield()
	}

	cs.owner = t
	cs.count = 1
	return nil
}

// TryEnter is Enter without waiting. It returns ErrBusy if another thread
// holds cs.
func (cs *CriticalSection) TryEnter(t *Thread) error {
	if t == nil {
		return ErrUnexpected
	}
	if cs.owner == t {
		cs.count++
		return nil
	}

	if cs.k.cpu.Swap(&cs.lock, 1) != 0 {
		return ErrBusy
	}

	cs.owner = t
	cs.count = 1
	return nil
}

// Leave undoes one Enter by t and releases cs when the count drops to zero.
func (cs *CriticalSection) Leave(t *Thread) error {
	if t == nil || cs.owner != t {
		return ErrUnexpected
	}

	cs.count--
	if cs.count == 0 {
		cs.owner = nil
		if cs.k.cpu.Swap(&cs.lock, 0) != 1 {
			cs.k.Fatal("critical section released while not held")
		}
	}
	return nil
}

// EnterCurrent enters cs on behalf of the running thread.
func (cs *CriticalSection) EnterCurrent() error { return cs.Enter(cs.k.current) }

// TryEnterCurrent tries to enter cs on behalf of the running thread.
func (cs *CriticalSection) TryEnterCurrent() error { return cs.TryEnter(cs.k.current) }

// LeaveCurrent leaves cs on behalf of the running thread.
func (cs *CriticalSection) LeaveCurrent() error { return cs.Leave(cs.k.current) }
