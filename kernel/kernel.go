package kernel

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultTickHz  = 500
	DefaultQuantum = 1

	// IdleThreadName names the thread that keeps the ready queue non-empty.
	IdleThreadName = "TKIdle"
)

// Logger writes newline-delimited log lines. hal.Logger satisfies it.
type Logger interface {
	WriteLineString(s string)
}

// Config controls a Kernel.
type Config struct {
	// TickHz is the timer interrupt rate. It converts seconds to ticks.
	TickHz uint32
	// Quantum is the number of ticks between preemptive switches.
	Quantum uint32
	// Logger receives fatal diagnostics (optional).
	Logger Logger
	// Clock times scheduling passes (default time.Now).
	Clock func() time.Time
}

// Kernel is the single kernel context of a running image: the thread pool,
// the free/ready/sleeping queues, the running thread and the tick clock.
//
// The ready and sleeping queues are also mutated by the tick handler, so
// thread code touches them only with interrupts masked.
type Kernel struct {
	cpu  Platform
	pool *Pool

	free     ThreadQueue
	ready    ThreadQueue
	sleeping ThreadQueue
	current  *Thread

	ticks   atomic.Uint32
	hz      uint32
	quantum uint32

	log   Logger
	clock func() time.Time
	sched Instrument

	halted       atomic.Bool
	fatalOnce    sync.Once
	fatalHandler atomic.Value // func(FatalInfo)
}

// New initializes a kernel on cpu and creates the idle thread. Interrupts stay
// masked until Start dispatches the first thread.
func New(cfg Config, cpu Platform) *Kernel {
	if cfg.TickHz == 0 {
		cfg.TickHz = DefaultTickHz
	}
	if cfg.Quantum == 0 {
		cfg.Quantum = DefaultQuantum
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	k := &Kernel{
		cpu:     cpu,
		pool:    NewPool(PoolSize),
		hz:      cfg.TickHz,
		quantum: cfg.Quantum,
		log:     cfg.Logger,
		clock:   cfg.Clock,
	}
	k.free.Init(k.pool, "free")
	k.ready.Init(k.pool, "ready")
	k.sleeping.Init(k.pool, "sleeping")
	k.pool.Fill(&k.free)
	k.sched.Init("scheduling", k.clock())

	cpu.Attach(k)

	if err := k.CreateThread(IdleThreadName, PriorityLowest, k.idle, nil); err != nil {
		k.Fatal("idle thread: " + err.Error())
	}
	return k
}

// Current returns the running thread.
func (k *Kernel) Current() *Thread { return k.current }

// Ticks returns the tick counter.
func (k *Kernel) Ticks() Tick { return Tick(k.ticks.Load()) }

// TickHz returns the configured tick rate.
func (k *Kernel) TickHz() uint32 { return k.hz }

// Pool returns the thread arena.
func (k *Kernel) Pool() *Pool { return k.pool }

// Free returns the queue of unused slots.
func (k *Kernel) Free() *ThreadQueue { return &k.free }

// Ready returns the ready queue. The running thread stays on it.
func (k *Kernel) Ready() *ThreadQueue { return &k.ready }

// Sleeping returns the queue of threads waiting for a tick deadline.
func (k *Kernel) Sleeping() *ThreadQueue { return &k.sleeping }

// Lookup returns the live thread with the given name, or nil.
func (k *Kernel) Lookup(name string) *Thread {
	for i := range k.pool.threads {
		t := &k.pool.threads[i]
		if t.queue == &k.free || t.nameLen == 0 {
			continue
		}
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// CreateThread takes a slot from the free queue and makes it ready.
func (k *Kernel) CreateThread(name string, prio Priority, entry Entry, arg any) error {
	t, err := k.pool.Create(&k.free, name, prio, entry, arg)
	if err != nil {
		return err
	}

	irq := k.cpu.DisableInterrupts()
	k.ready.Add(t)
	k.cpu.RestoreInterrupts(irq)
	return nil
}

// Start picks the first thread and dispatches it. It returns only after the
// platform halted.
func (k *Kernel) Start() {
	t, err := Schedule(&k.ready, &k.sleeping, k.Ticks())
	if err != nil {
		k.Fatal("start: " + err.Error())
		return
	}
	if t == nil {
		k.Fatal("no thread to start")
		return
	}
	k.current = t

	// Masked until the first frame's CPSR unmasks them, so the tick cannot
	// race the bootstrap.
	k.cpu.DisableInterrupts()
	k.ticks.Store(0)
	k.cpu.FirstDispatch(k.current)
}

// Yield lets the scheduler pick the next thread.
func (k *Kernel) Yield() {
	irq := k.cpu.DisableInterrupts()
	k.cpu.Switch(k.current)
	k.cpu.RestoreInterrupts(irq)
}

// Sleep suspends the running thread for the given number of seconds.
func (k *Kernel) Sleep(seconds uint32) {
	n := uint64(k.hz) * uint64(seconds)
	if n > uint64(MaxSleepTicks) {
		n = uint64(MaxSleepTicks)
	}
	k.SleepTicks(Tick(n))
}

// SleepTicks suspends the running thread until n more ticks have elapsed.
// n is clamped to MaxSleepTicks.
func (k *Kernel) SleepTicks(n Tick) {
	t := k.current
	if t == nil {
		k.Fatal("sleep: no running thread")
		return
	}
	if n > MaxSleepTicks {
		n = MaxSleepTicks
	}
	t.sleepTarget = k.Ticks() + n

	irq := k.cpu.DisableInterrupts()
	if err := Remove(t); err != nil {
		k.Fatal("sleep: thread " + t.Name() + " is not in the ready queue")
	}
	k.sleeping.Add(t)
	k.cpu.RestoreInterrupts(irq)

	k.Yield()
}

// Preempt services interrupts that arrived while the running thread was
// computing. Long loops that make no kernel calls should call it.
func (k *Kernel) Preempt() {
	k.cpu.RestoreInterrupts(k.cpu.DisableInterrupts())
}

// Idle waits for and services the next interrupt.
func (k *Kernel) Idle() {
	k.cpu.WaitForInterrupt()
}

func (k *Kernel) idle(any) {
	for {
		k.cpu.WaitForInterrupt()
	}
}

// Tick is the timer interrupt body: advance the clock and switch every
// quantum.
func (k *Kernel) Tick() {
	n := k.ticks.Add(1)
	if k.current == nil {
		return
	}
	if n%k.quantum == 0 {
		k.cpu.Switch(k.current)
	}
}

// SwitchThread stores sp in the outgoing thread and makes the scheduler's
// choice current.
func (k *Kernel) SwitchThread(sp StackPointer) *Thread {
	k.sched.Begin(k.clock())
	if k.current != nil {
		k.current.sp = sp
	}
	t, err := Schedule(&k.ready, &k.sleeping, k.Ticks())
	k.sched.End(k.clock())

	if err != nil {
		k.Fatal("schedule: " + err.Error())
	}
	if t == nil {
		k.Fatal("no ready thread")
	}
	k.current = t
	return k.current
}

// RunThread runs t's entry point. There is no way back to the free pool, so
// an entry point that returns stops the kernel.
func (k *Kernel) RunThread(t *Thread) {
	entry, arg := t.Entry()
	entry(arg)
	k.Fatal("thread " + t.Name() + " returned from its entry point")
}

// SchedulingMetrics returns the scheduling pass timings so far.
func (k *Kernel) SchedulingMetrics() Metrics {
	irq := k.cpu.DisableInterrupts()
	m := k.sched.snapshot()
	ticks := k.Ticks()
	k.cpu.RestoreInterrupts(irq)

	m.Elapsed = time.Duration(ticks) * time.Second / time.Duration(k.hz)
	return m
}
