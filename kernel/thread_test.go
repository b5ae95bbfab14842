package kernel

import (
	"errors"
	"testing"
)

func noop(any) {}

func TestCreateErrors(t *testing.T) {
	cases := []struct {
		desc  string
		name  string
		entry Entry
		want  error
	}{
		{"missing name", "", noop, ErrNull},
		{"name too long", "twelve-chars", noop, ErrNameTooLong},
		{"missing entry", "thread", nil, ErrNull},
		{"name checked before entry", "", nil, ErrNull},
		{"length checked before entry", "twelve-chars", nil, ErrNameTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			s := newScratch(2)
			th, err := s.pool.Create(s.free, tc.name, PriorityNormal, tc.entry, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Create() error = %v, want %v", err, tc.want)
			}
			if th != nil {
				t.Fatalf("Create() thread = %v, want nil", th)
			}
			if s.free.Len() != 2 {
				t.Fatalf("free = %d after failed Create, want 2", s.free.Len())
			}
		})
	}
}

func TestCreateMaxNameLength(t *testing.T) {
	s := newScratch(1)
	th, err := s.pool.Create(s.free, "elevenchars", PriorityNormal, noop, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if th.Name() != "elevenchars" {
		t.Fatalf("Name() = %q", th.Name())
	}
}

func TestCreateFull(t *testing.T) {
	s := newScratch(2)
	for i := 0; i < 2; i++ {
		if _, err := s.pool.Create(s.free, "t", PriorityNormal, noop, nil); err != nil {
			t.Fatalf("Create() #%d error = %v", i, err)
		}
	}
	if _, err := s.pool.Create(s.free, "t", PriorityNormal, noop, nil); !errors.Is(err, ErrFull) {
		t.Fatalf("Create() error = %v, want %v", err, ErrFull)
	}
}

func TestCreateInitializesSlot(t *testing.T) {
	s := newScratch(2)
	arg := "payload"
	th, err := s.pool.Create(s.free, "worker", PriorityHighest, noop, arg)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if th.Name() != "worker" {
		t.Fatalf("Name() = %q, want %q", th.Name(), "worker")
	}
	if th.Priority() != PriorityHighest {
		t.Fatalf("Priority() = %d, want %d", th.Priority(), PriorityHighest)
	}
	if th.SleepTarget() != 0 {
		t.Fatalf("SleepTarget() = %d, want 0", th.SleepTarget())
	}
	if th.Queue() != nil {
		t.Fatalf("Queue() = %v, want nil", th.Queue())
	}
	if want := StackPointer(StackWords - FrameWords); th.SP() != want {
		t.Fatalf("SP() = %d, want %d", th.SP(), want)
	}
	if _, a := th.Entry(); a != arg {
		t.Fatalf("Entry() arg = %v, want %v", a, arg)
	}

	f, _ := LoadFrame(th.Stack(), th.SP())
	if f.PC != TrampolinePC {
		t.Fatalf("frame PC = %#x, want %#x", f.PC, TrampolinePC)
	}
	if f.R[0] != uint32(th.ID()) {
		t.Fatalf("frame R0 = %d, want %d", f.R[0], th.ID())
	}
	if f.Mode() != ModeSVC || !f.IRQEnabled() {
		t.Fatalf("frame CPSR = %#x", f.CPSR)
	}
}

func TestCreateRecyclesStaleSlot(t *testing.T) {
	s := newScratch(1)
	th := s.addSleeping(PriorityLowest, 99)
	th.setName("stale-name")
	if err := Remove(th); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s.free.Add(th)

	got, err := s.pool.Create(s.free, "new", PriorityNormal, noop, nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got.Name() != "new" || got.SleepTarget() != 0 || got.Priority() != PriorityNormal {
		t.Fatalf("recycled slot = %q target=%d prio=%d", got.Name(), got.SleepTarget(), got.Priority())
	}
}

func TestNewKernelCreatesIdle(t *testing.T) {
	k, _ := newTestKernel(t, Config{})

	idle := k.Lookup(IdleThreadName)
	if idle == nil {
		t.Fatalf("Lookup(%q) = nil", IdleThreadName)
	}
	if idle.Priority() != PriorityLowest {
		t.Fatalf("idle priority = %d, want %d", idle.Priority(), PriorityLowest)
	}
	if !k.Ready().Contains(idle) {
		t.Fatal("idle thread not ready")
	}
	if got := k.Free().Len(); got != PoolSize-1 {
		t.Fatalf("free = %d, want %d", got, PoolSize-1)
	}
}

func TestCreateThreadUntilFull(t *testing.T) {
	k, _ := newTestKernel(t, Config{})

	for i := 0; i < PoolSize-1; i++ {
		if err := k.CreateThread("worker", PriorityNormal, noop, nil); err != nil {
			t.Fatalf("CreateThread() #%d error = %v", i, err)
		}
	}
	if err := k.CreateThread("worker", PriorityNormal, noop, nil); !errors.Is(err, ErrFull) {
		t.Fatalf("CreateThread() error = %v, want %v", err, ErrFull)
	}
	if got := k.Ready().Len(); got != PoolSize {
		t.Fatalf("ready = %d, want %d", got, PoolSize)
	}
}

func TestThreadStringNil(t *testing.T) {
	var th *Thread
	if got := th.String(); got == "" {
		t.Fatal("String() on nil thread is empty")
	}
}
