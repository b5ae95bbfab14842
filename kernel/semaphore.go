package kernel

// Semaphore is a counting semaphore. Waiters queue in arrival order; which of
// several woken waiters runs first is still decided by priority once they are
// back on the ready queue.
type Semaphore struct {
	k     *Kernel
	cs    CriticalSection
	wait  ThreadQueue
	count uint32
}

// NewSemaphore returns a semaphore with count units available.
func (k *Kernel) NewSemaphore(count uint32) *Semaphore {
	s := &Semaphore{}
	s.Init(k, count)
	return s
}

// Init resets s to count available units and no waiters.
func (s *Semaphore) Init(k *Kernel, count uint32) {
	s.k = k
	s.cs.Init(k)
	s.wait.Init(k.pool, "sem")
	s.count = count
}

// Count returns the available units.
func (s *Semaphore) Count() uint32 { return s.count }

// Waiting returns the number of blocked threads.
func (s *Semaphore) Waiting() int { return s.wait.Len() }

// Up releases one unit on behalf of the running thread.
func (s *Semaphore) Up() error {
	if s.k.current == nil {
		s.count++
		return nil
	}
	return s.up(&s.k.ready, s.k.current)
}

// Down acquires one unit on behalf of the running thread, blocking while none
// is available.
//
// Before Start only the boot flow runs, so Up and Down just move the count
// and a Down that would block is fatal.
func (s *Semaphore) Down() error {
	if s.k.current == nil {
		if s.count == 0 {
			s.k.Fatal("semaphore down would block before start")
		}
		s.count--
		return nil
	}
	return s.down(s.k.current)
}

// up hands the unit straight to the oldest waiter if there is one; the
// count stays zero in that case.
func (s *Semaphore) up(ready *ThreadQueue, t *Thread) error {
	if err := s.cs.Enter(t); err != nil {
		return err
	}

	if s.count == 0 && !s.wait.Empty() {
		waiter := s.wait.Pop()
		irq := s.k.cpu.DisableInterrupts()
		ready.Add(waiter)
		err := s.cs.Leave(t)
		s.k.cpu.RestoreInterrupts(irq)
		return err
	}

	s.count++
	return s.cs.Leave(t)
}

func (s *Semaphore) down(t *Thread) error {
	if err := s.cs.Enter(t); err != nil {
		return err
	}

	if s.count == 0 {
		irq := s.k.cpu.DisableInterrupts()
		if err := Remove(t); err != nil {
			s.k.Fatal("semaphore down: thread " + t.Name() + " is not queued")
		}
		err := s.cs.Leave(t)
		s.wait.Add(t)
		s.k.cpu.RestoreInterrupts(irq)
		s.k.Yield()
		return err
	}

	s.count--
	return s.cs.Leave(t)
}
