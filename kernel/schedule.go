package kernel

import "fmt"

// Schedule makes one scheduling decision.
//
// Sleepers whose target is at or before now move to ready, in sleep queue
// order. The highest priority ready thread is returned (earliest position
// wins ties) and the ready head then advances by one, so equal priority
// threads take turns across calls. Returns nil if nothing is ready.
//
// An error means the sleep queue is corrupt and nothing was picked.
func Schedule(ready, sleeping *ThreadQueue, now Tick) (*Thread, error) {
	if err := wake(ready, sleeping, now); err != nil {
		return nil, err
	}

	t := ready.Pick()
	ready.Rotate()
	return t, nil
}

func wake(ready, sleeping *ThreadQueue, now Tick) error {
	n := sleeping.Len()
	t := sleeping.Head()
	for i := 0; i < n && t != nil; i++ {
		next := sleeping.at(t.next)
		if Expired(t.sleepTarget, now) {
			if t.queue != sleeping {
				return fmt.Errorf("wake %s: %w", t.Name(), ErrNotQueued)
			}
			if err := Remove(t); err != nil {
				return fmt.Errorf("wake %s: %w", t.Name(), err)
			}
			ready.Add(t)
			if sleeping.Empty() {
				return nil
			}
		}
		t = next
	}
	return nil
}

// Expired reports whether now has reached target. The difference is taken
// modulo 2^32, so targets up to MaxSleepTicks ahead stay correct across a
// tick counter wrap.
func Expired(target, now Tick) bool {
	return int32(now-target) >= 0
}
