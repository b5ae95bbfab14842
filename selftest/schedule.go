package selftest

import (
	"fmt"

	"tk/kernel"
)

func nop(any) {}

// scratch is a pool of PoolSize threads with its own queues.
type scratch struct {
	pool     *kernel.Pool
	free     *kernel.ThreadQueue
	ready    *kernel.ThreadQueue
	sleeping *kernel.ThreadQueue
}

type placement struct {
	queue    *kernel.ThreadQueue
	priority kernel.Priority
	target   kernel.Tick
}

// newScratch places thread i per place[i]; the remaining threads are free.
func newScratch(place func(s *scratch) []placement) *scratch {
	p := kernel.NewPool(PoolSize)
	s := &scratch{
		pool:     p,
		free:     p.NewQueue("free"),
		ready:    p.NewQueue("ready"),
		sleeping: p.NewQueue("sleeping"),
	}

	var ps []placement
	if place != nil {
		ps = place(s)
	}
	for i := 0; i < PoolSize; i++ {
		t := p.Thread(kernel.ThreadID(i))
		if i >= len(ps) {
			s.free.Add(t)
			continue
		}
		t.SetPriority(ps[i].priority)
		t.SetSleepTarget(ps[i].target)
		ps[i].queue.Add(t)
	}
	return s
}

func (s *scratch) thread(i int) *kernel.Thread { return s.pool.Thread(kernel.ThreadID(i)) }

func (s *scratch) expectPick(now kernel.Tick, want *kernel.Thread) error {
	got, err := kernel.Schedule(s.ready, s.sleeping, now)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("picked %v, want %v", got, want)
	}
	return nil
}

func scheduleEmpty() error {
	return newScratch(nil).expectPick(0, nil)
}

func scheduleOne() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{{s.ready, kernel.PriorityNormal, 0}}
	})
	return s.expectPick(0, s.thread(0))
}

func scheduleAllBlocked() error {
	s := newScratch(func(s *scratch) []placement {
		ps := make([]placement, PoolSize)
		for i := range ps {
			ps[i] = placement{s.sleeping, kernel.PriorityNormal, 1000}
		}
		return ps
	})
	return s.expectPick(0, nil)
}

func scheduleAllSamePriority() error {
	s := newScratch(func(s *scratch) []placement {
		ps := make([]placement, PoolSize)
		for i := range ps {
			ps[i] = placement{s.ready, kernel.PriorityNormal, 0}
		}
		return ps
	})
	return s.expectPick(0, s.thread(0))
}

func scheduleHighReady() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{
			{s.ready, kernel.PriorityNormal, 0},
			{s.ready, kernel.PriorityHighest, 0},
			{s.ready, kernel.PriorityLowest, 0},
		}
	})
	return s.expectPick(0, s.thread(1))
}

func scheduleHighBlockedLowReady() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{
			{s.sleeping, kernel.PriorityHighest, 1000},
			{s.ready, kernel.PriorityLowest, 0},
		}
	})
	return s.expectPick(0, s.thread(1))
}

func scheduleThreadWakesUp() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{{s.sleeping, kernel.PriorityNormal, 1000}}
	})
	return s.expectPick(1000, s.thread(0))
}

func scheduleThreadAlmostWakesUp() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{
			{s.sleeping, kernel.PriorityHighest, 1000},
			{s.ready, kernel.PriorityLowest, 0},
		}
	})
	return s.expectPick(999, s.thread(1))
}

func scheduleHighWakesUpLowReady() error {
	s := newScratch(func(s *scratch) []placement {
		return []placement{
			{s.sleeping, kernel.PriorityHighest, 1000},
			{s.ready, kernel.PriorityLowest, 0},
		}
	})
	return s.expectPick(1000, s.thread(0))
}

func createEmptyName() error {
	s := newScratch(nil)
	_, err := s.pool.Create(s.free, "", kernel.PriorityNormal, nop, nil)
	return expect("create", err, kernel.ErrNull)
}

func createNameTooLong() error {
	s := newScratch(nil)
	_, err := s.pool.Create(s.free, "abcdefghijkl", kernel.PriorityNormal, nop, nil)
	return expect("create", err, kernel.ErrNameTooLong)
}

func createNilEntry() error {
	s := newScratch(nil)
	_, err := s.pool.Create(s.free, "abc", kernel.PriorityNormal, nil, nil)
	return expect("create", err, kernel.ErrNull)
}

func createNoFreeSlots() error {
	s := newScratch(func(s *scratch) []placement {
		ps := make([]placement, PoolSize)
		for i := range ps {
			ps[i] = placement{s.ready, kernel.PriorityNormal, 0}
		}
		return ps
	})
	_, err := s.pool.Create(s.free, "abc", kernel.PriorityNormal, nop, nil)
	return expect("create", err, kernel.ErrFull)
}

func createNormal() error {
	s := newScratch(nil)
	for i := 0; i < PoolSize; i++ {
		t, err := s.pool.Create(s.free, "abc", kernel.PriorityNormal, nop, i)
		if err != nil {
			return fmt.Errorf("create %d: %w", i, err)
		}
		if t.Name() != "abc" || t.Priority() != kernel.PriorityNormal || t.SleepTarget() != 0 {
			return fmt.Errorf("thread %d: bad control block %v", i, t)
		}
		if t.Queue() != nil {
			return fmt.Errorf("thread %d: queued after create", i)
		}
		f, _ := kernel.LoadFrame(t.Stack(), t.SP())
		if f.PC != kernel.TrampolinePC || f.R[0] != uint32(t.ID()) {
			return fmt.Errorf("thread %d: bad initial frame", i)
		}
		if _, arg := t.Entry(); arg != i {
			return fmt.Errorf("thread %d: entry argument %v", i, arg)
		}
	}
	return nil
}
