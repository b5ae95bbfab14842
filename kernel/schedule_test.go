package kernel

import (
	"errors"
	"testing"
)

func TestScheduleEmpty(t *testing.T) {
	s := newScratch(3)
	if got := mustSchedule(t, s.ready, s.sleeping, 0); got != nil {
		t.Fatalf("Schedule() = %v, want nil", got)
	}
}

func TestScheduleOne(t *testing.T) {
	s := newScratch(3)
	a := s.addReady(PriorityNormal)

	for i := 0; i < 3; i++ {
		if got := mustSchedule(t, s.ready, s.sleeping, 0); got != a {
			t.Fatalf("call %d: Schedule() = %v, want %v", i, got, a)
		}
		if s.ready.Head() != a {
			t.Fatalf("call %d: head moved off the only thread", i)
		}
	}
}

func TestScheduleAllBlocked(t *testing.T) {
	s := newScratch(3)
	s.addSleeping(PriorityNormal, 10)
	s.addSleeping(PriorityNormal, 20)

	if got := mustSchedule(t, s.ready, s.sleeping, 0); got != nil {
		t.Fatalf("Schedule() = %v, want nil", got)
	}
	if s.sleeping.Len() != 2 {
		t.Fatalf("sleeping = %d, want 2", s.sleeping.Len())
	}
}

func TestScheduleRoundRobinSamePriority(t *testing.T) {
	s := newScratch(3)
	threads := []*Thread{
		s.addReady(PriorityNormal),
		s.addReady(PriorityNormal),
		s.addReady(PriorityNormal),
	}

	for i := 0; i < 6; i++ {
		want := threads[i%3]
		if got := mustSchedule(t, s.ready, s.sleeping, 0); got != want {
			t.Fatalf("call %d: Schedule() = %d, want %d", i, got.ID(), want.ID())
		}
	}
}

func TestScheduleRoundRobinCoversAllWithinN(t *testing.T) {
	s := newScratch(5)
	for i := 0; i < 5; i++ {
		s.addReady(PriorityNormal)
	}
	// Start from a rotated head.
	s.ready.Rotate()
	s.ready.Rotate()

	seen := map[ThreadID]bool{}
	for i := 0; i < s.ready.Len(); i++ {
		seen[mustSchedule(t, s.ready, s.sleeping, 0).ID()] = true
	}
	if len(seen) != 5 {
		t.Fatalf("selected %d distinct threads in 5 calls, want 5", len(seen))
	}
}

func TestScheduleHighReady(t *testing.T) {
	s := newScratch(3)
	s.addReady(PriorityNormal)
	high := s.addReady(PriorityNormal + 1)
	s.addReady(PriorityNormal)

	for i := 0; i < 4; i++ {
		if got := mustSchedule(t, s.ready, s.sleeping, 0); got != high {
			t.Fatalf("call %d: Schedule() = %d, want %d", i, got.ID(), high.ID())
		}
	}
}

func TestScheduleHighBlockedLowReady(t *testing.T) {
	s := newScratch(3)
	s.addSleeping(PriorityHighest, 10)
	low := s.addReady(PriorityLowest)

	if got := mustSchedule(t, s.ready, s.sleeping, 0); got != low {
		t.Fatalf("Schedule() = %v, want %v", got, low)
	}
}

func TestScheduleThreadWakesUp(t *testing.T) {
	s := newScratch(3)
	a := s.addSleeping(PriorityNormal, 5)

	if got := mustSchedule(t, s.ready, s.sleeping, 5); got != a {
		t.Fatalf("Schedule() = %v, want %v", got, a)
	}
	if !s.ready.Contains(a) || !s.sleeping.Empty() {
		t.Fatal("woken thread not moved to ready")
	}
}

func TestScheduleThreadAlmostWakesUp(t *testing.T) {
	s := newScratch(3)
	a := s.addSleeping(PriorityNormal, 5)

	if got := mustSchedule(t, s.ready, s.sleeping, 4); got != nil {
		t.Fatalf("Schedule() = %v, want nil", got)
	}
	if !s.sleeping.Contains(a) {
		t.Fatal("thread woke before its target")
	}
}

func TestScheduleHighWakesUpLowReady(t *testing.T) {
	const target = 100
	s := newScratch(3)
	high := s.addSleeping(PriorityHighest, target)
	low := s.addReady(PriorityLowest)

	if got := mustSchedule(t, s.ready, s.sleeping, target-1); got != low {
		t.Fatalf("at T-1: Schedule() = %v, want %v", got, low)
	}
	if got := mustSchedule(t, s.ready, s.sleeping, target); got != high {
		t.Fatalf("at T: Schedule() = %v, want %v", got, high)
	}
}

func TestScheduleWakesEveryExpiredSleeper(t *testing.T) {
	s := newScratch(4)
	a := s.addSleeping(PriorityNormal, 1)
	b := s.addSleeping(PriorityNormal, 9)
	c := s.addSleeping(PriorityNormal, 2)
	d := s.addSleeping(PriorityNormal, 3)

	mustSchedule(t, s.ready, s.sleeping, 3)

	for _, th := range []*Thread{a, c, d} {
		if !s.ready.Contains(th) {
			t.Fatalf("thread %d (target %d) not woken at 3", th.ID(), th.SleepTarget())
		}
	}
	if !s.sleeping.Contains(b) || s.sleeping.Len() != 1 {
		t.Fatal("thread with a later target left the sleeping queue")
	}
	for _, q := range []*ThreadQueue{s.ready, s.sleeping} {
		if err := q.Check(); err != nil {
			t.Fatalf("Check(%s) error = %v", q.Name(), err)
		}
	}
}

func TestScheduleWakesInSleepOrder(t *testing.T) {
	s := newScratch(3)
	a := s.addSleeping(PriorityNormal, 1)
	b := s.addSleeping(PriorityNormal, 1)
	c := s.addSleeping(PriorityNormal, 1)

	// a is picked and the head rotates to b, so the traversal order from
	// the new head shows the wake order shifted by one.
	if got := mustSchedule(t, s.ready, s.sleeping, 1); got != a {
		t.Fatalf("Schedule() = %v, want %v", got, a)
	}
	want := []ThreadID{b.ID(), c.ID(), a.ID()}
	got := order(s.ready)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ready order = %v, want %v", got, want)
		}
	}
}

func TestScheduleWakesAcrossTickWrap(t *testing.T) {
	var now Tick = 0xfffffff8
	s := newScratch(3)
	a := s.addSleeping(PriorityNormal, now+0x18)

	if a.SleepTarget() != 0x10 {
		t.Fatalf("SleepTarget() = %#x, want 0x10", a.SleepTarget())
	}
	if got := mustSchedule(t, s.ready, s.sleeping, now); got != nil {
		t.Fatalf("before wrap: Schedule() = %v, want nil", got)
	}
	if got := mustSchedule(t, s.ready, s.sleeping, 0x0f); got != nil {
		t.Fatalf("after wrap, before target: Schedule() = %v, want nil", got)
	}
	if got := mustSchedule(t, s.ready, s.sleeping, 0x10); got != a {
		t.Fatalf("at target: Schedule() = %v, want %v", got, a)
	}
}

func TestExpired(t *testing.T) {
	tests := []struct {
		target, now Tick
		want        bool
	}{
		{5, 4, false},
		{5, 5, true},
		{5, 6, true},
		{0x10, 0xfffffff8, false},
		{0xfffffff8, 0x10, true},
		{MaxSleepTicks, 0, false},
	}
	for _, tt := range tests {
		if got := Expired(tt.target, tt.now); got != tt.want {
			t.Errorf("Expired(%#x, %#x) = %v, want %v", tt.target, tt.now, got, tt.want)
		}
	}
}

func TestScheduleCorruptSleeper(t *testing.T) {
	s := newScratch(3)
	a := s.addSleeping(PriorityNormal, 1)
	a.queue = nil

	got, err := Schedule(s.ready, s.sleeping, 1)
	if !errors.Is(err, ErrNotQueued) {
		t.Fatalf("Schedule() error = %v, want %v", err, ErrNotQueued)
	}
	if got != nil {
		t.Fatalf("Schedule() = %v, want nil", got)
	}
	if s.ready.Contains(a) {
		t.Fatal("corrupt sleeper moved to ready")
	}
}
