package kernel

import (
	"strings"
	"testing"
	"time"
)

// haltSignal is raised by fakeCPU.Halt so tests can observe Fatal.
type haltSignal struct{}

// fakeCPU runs every context switch synchronously on the calling goroutine:
// Switch only asks the kernel for its next decision.
type fakeCPU struct {
	h          Handler
	masked     bool
	disables   int
	switches   int
	waits      int
	dispatched *Thread
	onSwitch   func()
}

func (c *fakeCPU) Swap(addr *uint32, v uint32) uint32 {
	old := *addr
	*addr = v
	return old
}

func (c *fakeCPU) DisableInterrupts() IRQState {
	c.disables++
	prev := c.masked
	c.masked = true
	if prev {
		return 1
	}
	return 0
}

func (c *fakeCPU) RestoreInterrupts(s IRQState) { c.masked = s != 0 }

func (c *fakeCPU) WaitForInterrupt() {
	c.waits++
	c.h.Tick()
}

func (c *fakeCPU) Halt() { panic(haltSignal{}) }

func (c *fakeCPU) Attach(h Handler) { c.h = h }

func (c *fakeCPU) FirstDispatch(t *Thread) { c.dispatched = t }

func (c *fakeCPU) Switch(from *Thread) {
	c.switches++
	if c.onSwitch != nil {
		c.onSwitch()
	}
	var sp StackPointer
	if from != nil {
		sp = from.sp
	}
	c.h.SwitchThread(sp)
}

type lineLogger struct {
	lines []string
}

func (l *lineLogger) WriteLineString(s string) { l.lines = append(l.lines, s) }

func fakeClock() func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(time.Microsecond)
		return now
	}
}

func newTestKernel(t *testing.T, cfg Config) (*Kernel, *fakeCPU) {
	t.Helper()
	cpu := &fakeCPU{}
	if cfg.Clock == nil {
		cfg.Clock = fakeClock()
	}
	return New(cfg, cpu), cpu
}

func mustCreate(t *testing.T, k *Kernel, name string, prio Priority) *Thread {
	t.Helper()
	if err := k.CreateThread(name, prio, func(any) {}, nil); err != nil {
		t.Fatalf("CreateThread(%q) error = %v", name, err)
	}
	th := k.Lookup(name)
	if th == nil {
		t.Fatalf("Lookup(%q) = nil after CreateThread", name)
	}
	return th
}

// expectFatal runs fn and returns the message passed to Kernel.Fatal.
func expectFatal(t *testing.T, k *Kernel, fn func()) string {
	t.Helper()
	var got string
	k.SetFatalHandler(func(info FatalInfo) { got = info.Message })

	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected fatal halt")
			}
			if _, ok := r.(haltSignal); !ok {
				panic(r)
			}
		}()
		fn()
	}()

	if !k.Halted() {
		t.Fatal("Halted() = false after fatal")
	}
	return got
}

// scratch is a private pool with its own queues, as used by scheduling tests.
type scratch struct {
	pool     *Pool
	free     *ThreadQueue
	ready    *ThreadQueue
	sleeping *ThreadQueue
}

func newScratch(n int) *scratch {
	p := NewPool(n)
	s := &scratch{
		pool:     p,
		free:     p.NewQueue("free"),
		ready:    p.NewQueue("ready"),
		sleeping: p.NewQueue("sleeping"),
	}
	p.Fill(s.free)
	return s
}

// ready adds a thread with the given priority to the ready queue.
func (s *scratch) addReady(prio Priority) *Thread {
	th := s.free.Pop()
	th.priority = prio
	s.ready.Add(th)
	return th
}

// addSleeping adds a thread that wakes at target.
func (s *scratch) addSleeping(prio Priority, target Tick) *Thread {
	th := s.free.Pop()
	th.priority = prio
	th.sleepTarget = target
	s.sleeping.Add(th)
	return th
}

func mustSchedule(t *testing.T, ready, sleeping *ThreadQueue, now Tick) *Thread {
	t.Helper()
	th, err := Schedule(ready, sleeping, now)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	return th
}

func order(q *ThreadQueue) []ThreadID {
	var ids []ThreadID
	q.Each(func(t *Thread) bool {
		ids = append(ids, t.id)
		return true
	})
	return ids
}

func containsLine(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
