package kernel

import "time"

// Instrument accumulates the duration of a repeated operation.
type Instrument struct {
	name  string
	start time.Time
	last  time.Time
	count uint32
	sum   time.Duration
	min   time.Duration
	max   time.Duration
}

// Init resets the instrument.
func (in *Instrument) Init(name string, now time.Time) {
	in.name = name
	in.start = now
	in.last = time.Time{}
	in.count = 0
	in.sum = 0
	in.min = 0
	in.max = 0
}

// Begin marks the start of one measured operation.
func (in *Instrument) Begin(now time.Time) { in.last = now }

// End records the operation started by the last Begin.
func (in *Instrument) End(now time.Time) {
	d := now.Sub(in.last)
	if in.count == 0 || d < in.min {
		in.min = d
	}
	if d > in.max {
		in.max = d
	}
	in.sum += d
	in.count++
}

// Metrics is a snapshot of an Instrument plus the kernel time it covers.
type Metrics struct {
	Name    string
	Count   uint32
	Average time.Duration
	Min     time.Duration
	Max     time.Duration
	// Spent is the total time measured.
	Spent time.Duration
	// Elapsed is the kernel uptime derived from the tick counter.
	Elapsed time.Duration
}

func (in *Instrument) snapshot() Metrics {
	m := Metrics{
		Name:  in.name,
		Count: in.count,
		Min:   in.min,
		Max:   in.max,
		Spent: in.sum,
	}
	if in.count != 0 {
		m.Average = in.sum / time.Duration(in.count)
	}
	return m
}
