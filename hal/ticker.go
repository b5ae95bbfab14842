package hal

import (
	"sync"
	"sync/atomic"
	"time"
)

// tickSource turns a wall-clock ticker into timer interrupts. The ticker
// starts on the first Ticks call. At most one tick waits for the consumer;
// later ones are dropped and counted.
type tickSource struct {
	hz uint32
	ch chan uint64

	start   sync.Once
	stop    chan struct{}
	stopped sync.Once

	dropped atomic.Uint64
}

func newTickSource(hz uint32) *tickSource {
	return &tickSource{hz: hz, ch: make(chan uint64, 1), stop: make(chan struct{})}
}

func (t *tickSource) Hz() uint32 { return t.hz }

func (t *tickSource) Ticks() <-chan uint64 {
	t.start.Do(func() { go t.run() })
	return t.ch
}

// Dropped returns the number of ticks the consumer missed.
func (t *tickSource) Dropped() uint64 { return t.dropped.Load() }

// Stop ends the ticker. The channel stays open.
func (t *tickSource) Stop() {
	t.stopped.Do(func() { close(t.stop) })
}

func (t *tickSource) run() {
	ticker := time.NewTicker(time.Second / time.Duration(t.hz))
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
		}
		select {
		case <-t.stop:
			return
		default:
		}
		seq++
		select {
		case t.ch <- seq:
		default:
			t.dropped.Add(1)
		}
	}
}
