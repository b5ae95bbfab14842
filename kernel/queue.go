package kernel

import "fmt"

// ThreadQueue is a circular doubly-linked list of threads threaded through
// the threads' own links. Free, ready, sleeping and semaphore wait sets are
// all ThreadQueues.
//
// The zero value is unusable; call Init or Pool.NewQueue.
type ThreadQueue struct {
	name string
	pool *Pool
	head ThreadID
}

// Init binds q to a pool and empties it.
func (q *ThreadQueue) Init(p *Pool, name string) {
	q.name = name
	q.pool = p
	q.head = noThread
}

// Name returns the queue name.
func (q *ThreadQueue) Name() string { return q.name }

// Empty reports whether the queue has no members.
func (q *ThreadQueue) Empty() bool { return q.head == noThread }

// Head returns the current head, or nil.
func (q *ThreadQueue) Head() *Thread { return q.at(q.head) }

func (q *ThreadQueue) at(id ThreadID) *Thread {
	if id == noThread {
		return nil
	}
	return &q.pool.threads[id]
}

// Add inserts t immediately before the head, at the tail of the traversal
// order. An empty queue becomes a singleton circle.
func (q *ThreadQueue) Add(t *Thread) {
	t.queue = q

	if q.head == noThread {
		t.prev = t.id
		t.next = t.id
		q.head = t.id
		return
	}

	head := q.at(q.head)
	prev := q.at(head.prev)
	t.prev = prev.id
	t.next = head.id
	prev.next = t.id
	head.prev = t.id
}

// Remove splices t out of the queue it belongs to. If t was the head, the
// head moves to its predecessor.
func Remove(t *Thread) error {
	q := t.queue
	if q == nil {
		return ErrNotQueued
	}

	prevID := t.prev
	nextID := t.next
	t.queue = nil
	t.prev = noThread
	t.next = noThread

	if prevID == t.id {
		q.head = noThread
		return nil
	}

	prev := q.at(prevID)
	next := q.at(nextID)
	prev.next = nextID
	next.prev = prevID
	if q.head == t.id {
		q.head = prevID
	}
	return nil
}

// Pop removes and returns the head, or nil if the queue is empty.
func (q *ThreadQueue) Pop() *Thread {
	t := q.Head()
	if t == nil {
		return nil
	}
	if err := Remove(t); err != nil {
		return nil
	}
	return t
}

// Pick returns the member with the highest priority without changing the
// queue. The scan starts at the head and only a strictly higher priority
// replaces the best so far, so the earliest member wins ties.
func (q *ThreadQueue) Pick() *Thread {
	head := q.Head()
	if head == nil {
		return nil
	}

	best := head
	for t := q.at(head.next); t != head; t = q.at(t.next) {
		if t.priority > best.priority {
			best = t
		}
	}
	return best
}

// Rotate advances the head to the next member.
func (q *ThreadQueue) Rotate() {
	if head := q.Head(); head != nil {
		q.head = head.next
	}
}

// Len counts the members.
func (q *ThreadQueue) Len() int {
	n := 0
	q.Each(func(*Thread) bool {
		n++
		return true
	})
	return n
}

// Contains reports whether t is a member of q.
func (q *ThreadQueue) Contains(t *Thread) bool {
	return t != nil && t.queue == q
}

// Each calls fn for every member in traversal order until fn returns false.
// fn must not modify the queue.
func (q *ThreadQueue) Each(fn func(*Thread) bool) {
	head := q.Head()
	if head == nil {
		return
	}
	t := head
	for {
		if !fn(t) {
			return
		}
		t = q.at(t.next)
		if t == head {
			return
		}
	}
}

// Check verifies the closure invariant: walking next from the head returns to
// the head, prev mirrors next and every member points back at q.
func (q *ThreadQueue) Check() error {
	head := q.Head()
	if head == nil {
		return nil
	}

	limit := len(q.pool.threads)
	t := head
	for steps := 0; ; steps++ {
		if steps >= limit {
			return fmt.Errorf("queue %s: not closed after %d steps", q.name, steps)
		}
		if t.queue != q {
			return fmt.Errorf("queue %s: thread %d belongs to %v", q.name, t.id, t.queue)
		}
		next := q.at(t.next)
		if next == nil {
			return fmt.Errorf("queue %s: thread %d has no next link", q.name, t.id)
		}
		if next.prev != t.id {
			return fmt.Errorf("queue %s: thread %d next.prev = %d", q.name, t.id, next.prev)
		}
		t = next
		if t == head {
			return nil
		}
	}
}

func (q *ThreadQueue) String() string {
	if q == nil {
		return "<none>"
	}
	return q.name
}
