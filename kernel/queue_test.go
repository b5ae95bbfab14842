package kernel

import (
	"errors"
	"reflect"
	"testing"
)

func TestQueueAddKeepsArrivalOrder(t *testing.T) {
	p := NewPool(4)
	q := p.NewQueue("q")
	for i := 0; i < 4; i++ {
		q.Add(p.Thread(ThreadID(i)))
	}

	if got, want := order(q), []ThreadID{0, 1, 2, 3}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if err := q.Check(); err != nil {
		t.Fatalf("Check() error = %v", err)
	}
}

func TestQueueClosure(t *testing.T) {
	for n := 1; n <= 5; n++ {
		p := NewPool(n)
		q := p.NewQueue("q")
		p.Fill(q)

		head := q.Head()
		steps := 0
		for th := head; ; {
			if th.Queue() != q {
				t.Fatalf("n=%d: thread %d queue = %v, want %v", n, th.ID(), th.Queue(), q)
			}
			th = q.at(th.next)
			steps++
			if th == head {
				break
			}
			if steps > n {
				t.Fatalf("n=%d: walk did not return to head", n)
			}
		}
		if steps != n {
			t.Fatalf("n=%d: walk took %d steps", n, steps)
		}
		if q.Len() != n {
			t.Fatalf("n=%d: Len() = %d", n, q.Len())
		}
	}
}

func TestRemoveHeadMovesHeadToPredecessor(t *testing.T) {
	p := NewPool(3)
	q := p.NewQueue("q")
	p.Fill(q)

	if err := Remove(p.Thread(0)); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got := q.Head().ID(); got != 2 {
		t.Fatalf("head = %d, want 2", got)
	}
	if got, want := order(q), []ThreadID{2, 1}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	if err := q.Check(); err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	removed := p.Thread(0)
	if removed.Queue() != nil || removed.prev != noThread || removed.next != noThread {
		t.Fatal("removed thread still has linkage")
	}
}

func TestRemoveMiddle(t *testing.T) {
	p := NewPool(3)
	q := p.NewQueue("q")
	p.Fill(q)

	if err := Remove(p.Thread(1)); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if got, want := order(q), []ThreadID{0, 2}; !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestRemoveSoleMemberEmptiesQueue(t *testing.T) {
	p := NewPool(1)
	q := p.NewQueue("q")
	q.Add(p.Thread(0))

	if err := Remove(p.Thread(0)); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if !q.Empty() || q.Head() != nil {
		t.Fatal("queue not empty after removing its only member")
	}
}

func TestRemoveNotQueued(t *testing.T) {
	p := NewPool(1)
	if err := Remove(p.Thread(0)); !errors.Is(err, ErrNotQueued) {
		t.Fatalf("Remove() error = %v, want %v", err, ErrNotQueued)
	}
}

func TestPop(t *testing.T) {
	p := NewPool(2)
	q := p.NewQueue("q")
	if got := q.Pop(); got != nil {
		t.Fatalf("Pop() on empty queue = %v, want nil", got)
	}

	p.Fill(q)
	if got := q.Pop(); got.ID() != 0 {
		t.Fatalf("Pop() = %d, want 0", got.ID())
	}
	if got := q.Pop(); got.ID() != 1 {
		t.Fatalf("Pop() = %d, want 1", got.ID())
	}
	if !q.Empty() {
		t.Fatal("queue not empty after popping every member")
	}
}

func TestPickEarliestWinsTies(t *testing.T) {
	s := newScratch(4)
	s.addReady(5)
	first := s.addReady(7)
	s.addReady(7)
	s.addReady(6)

	before := order(s.ready)
	if got := s.ready.Pick(); got != first {
		t.Fatalf("Pick() = %d, want %d", got.ID(), first.ID())
	}
	if after := order(s.ready); !reflect.DeepEqual(before, after) {
		t.Fatalf("Pick() changed the queue: %v -> %v", before, after)
	}
}

func TestPickEmpty(t *testing.T) {
	s := newScratch(1)
	if got := s.ready.Pick(); got != nil {
		t.Fatalf("Pick() = %v, want nil", got)
	}
}

func TestMovingBetweenQueuesKeepsSingleMembership(t *testing.T) {
	s := newScratch(3)
	a := s.addReady(1)
	s.addReady(1)

	if err := Remove(a); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s.sleeping.Add(a)

	if s.ready.Contains(a) || !s.sleeping.Contains(a) {
		t.Fatal("thread is not exclusively on the sleeping queue")
	}
	for _, q := range []*ThreadQueue{s.free, s.ready, s.sleeping} {
		if err := q.Check(); err != nil {
			t.Fatalf("Check(%s) error = %v", q.Name(), err)
		}
	}
	if total := s.free.Len() + s.ready.Len() + s.sleeping.Len(); total != 3 {
		t.Fatalf("members across queues = %d, want 3", total)
	}
}
