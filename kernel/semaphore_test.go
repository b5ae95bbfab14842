package kernel

import "testing"

func TestSemaphoreDownDecrements(t *testing.T) {
	k, cpu := newTestKernel(t, Config{})
	a := mustCreate(t, k, "a", PriorityNormal)
	s := k.NewSemaphore(2)

	if err := s.down(a); err != nil {
		t.Fatalf("down() error = %v", err)
	}
	if s.Count() != 1 || s.Waiting() != 0 {
		t.Fatalf("count=%d waiting=%d, want 1/0", s.Count(), s.Waiting())
	}
	if cpu.switches != 0 {
		t.Fatalf("switches = %d, want 0", cpu.switches)
	}
	if !k.Ready().Contains(a) {
		t.Fatal("thread left the ready queue")
	}
}

func TestSemaphoreDownBlocksAtZero(t *testing.T) {
	k, cpu := newTestKernel(t, Config{})
	a := mustCreate(t, k, "a", PriorityHighest)
	k.Start()
	s := k.NewSemaphore(0)

	if err := s.Down(); err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if s.Count() != 0 || s.Waiting() != 1 {
		t.Fatalf("count=%d waiting=%d, want 0/1", s.Count(), s.Waiting())
	}
	if k.Ready().Contains(a) {
		t.Fatal("blocked thread still ready")
	}
	if cpu.switches != 1 {
		t.Fatalf("switches = %d, want 1", cpu.switches)
	}
	if k.Current() == a {
		t.Fatal("blocked thread still current")
	}
	if s.cs.Held() {
		t.Fatal("semaphore section held after blocking")
	}
}

func TestSemaphoreUpWakesOldestWaiter(t *testing.T) {
	k, _ := newTestKernel(t, Config{})
	a := mustCreate(t, k, "a", PriorityNormal)
	b := mustCreate(t, k, "b", PriorityNormal)
	c := mustCreate(t, k, "c", PriorityNormal)
	s := k.NewSemaphore(0)

	_ = s.down(a)
	_ = s.down(b)

	if err := s.up(k.Ready(), c); err != nil {
		t.Fatalf("up() error = %v", err)
	}
	if !k.Ready().Contains(a) || k.Ready().Contains(b) {
		t.Fatal("up did not wake the oldest waiter only")
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d after handing the unit to a waiter, want 0", s.Count())
	}

	_ = s.up(k.Ready(), c)
	if !k.Ready().Contains(b) || s.Waiting() != 0 {
		t.Fatal("second up did not wake b")
	}

	_ = s.up(k.Ready(), c)
	if s.Count() != 1 {
		t.Fatalf("count = %d with no waiters, want 1", s.Count())
	}
}

func TestSemaphoreConservation(t *testing.T) {
	const initial = 1
	k, _ := newTestKernel(t, Config{})
	threads := []*Thread{
		mustCreate(t, k, "a", PriorityNormal),
		mustCreate(t, k, "b", PriorityNormal),
		mustCreate(t, k, "c", PriorityNormal),
	}
	s := k.NewSemaphore(initial)
	ups, downs := 0, 0

	check := func(step string) {
		t.Helper()
		if got, want := int(s.Count())-s.Waiting(), initial+ups-downs; got != want {
			t.Fatalf("%s: count-waiting = %d, want %d", step, got, want)
		}
		if s.Count() > 0 && s.Waiting() > 0 {
			t.Fatalf("%s: count=%d with %d waiters", step, s.Count(), s.Waiting())
		}
	}

	for _, th := range threads {
		_ = s.down(th)
		downs++
		check("down " + th.Name())
	}
	for i := 0; i < 4; i++ {
		_ = s.up(k.Ready(), threads[0])
		ups++
		check("up")
	}
	if s.Count() != 2 {
		t.Fatalf("final count = %d, want 2", s.Count())
	}
}

func TestSemaphoreWakeRespectsPriority(t *testing.T) {
	k, _ := newTestKernel(t, Config{})
	low := mustCreate(t, k, "low", PriorityNormal)
	high := mustCreate(t, k, "high", PriorityHighest)
	s := k.NewSemaphore(0)

	_ = s.down(high)
	_ = s.up(k.Ready(), low)

	if got := mustSchedule(t, k.Ready(), k.Sleeping(), k.Ticks()); got != high {
		t.Fatalf("Schedule() = %v, want %v", got, high)
	}
}

func TestSemaphoreDownUnqueuedIsFatal(t *testing.T) {
	k, _ := newTestKernel(t, Config{})
	a := mustCreate(t, k, "a", PriorityNormal)
	if err := Remove(a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s := k.NewSemaphore(0)

	msg := expectFatal(t, k, func() { _ = s.down(a) })
	if msg != "semaphore down: thread a is not queued" {
		t.Fatalf("fatal message = %q", msg)
	}
}

func TestSemaphoreBeforeStart(t *testing.T) {
	k, cpu := newTestKernel(t, Config{})
	s := k.NewSemaphore(1)

	if err := s.Down(); err != nil {
		t.Fatalf("Down() error = %v", err)
	}
	if err := s.Up(); err != nil {
		t.Fatalf("Up() error = %v", err)
	}
	if s.Count() != 1 || cpu.switches != 0 {
		t.Fatalf("count=%d switches=%d, want 1/0", s.Count(), cpu.switches)
	}

	_ = s.Down()
	if msg := expectFatal(t, k, func() { _ = s.Down() }); msg != "semaphore down would block before start" {
		t.Fatalf("fatal message = %q", msg)
	}
}
