package kernel

const (
	// MaxThreadNameLen is the longest accepted thread name, in bytes.
	MaxThreadNameLen = 11

	// StackWords is the size of every thread stack, in 32-bit words.
	StackWords = 256

	// PoolSize is the number of thread slots owned by a Kernel.
	PoolSize = 16
)

// Priority orders ready threads. Higher values are more eligible.
type Priority uint8

const (
	PriorityLowest  Priority = 1
	PriorityNormal  Priority = 127
	PriorityHighest Priority = 254
)

// Tick counts timer interrupts since the kernel started.
type Tick uint32

// MaxSleepTicks is the longest sleep. Longer requests are clamped so the
// target stays ordered against a wrapping tick counter.
const MaxSleepTicks Tick = 1<<31 - 1

// StackPointer is a word index into a thread's own stack. The kernel treats
// it as an opaque continuation token outside of InitStack.
type StackPointer uint32

// ThreadID is the slot of a thread in its pool.
type ThreadID int16

const noThread ThreadID = -1

// Entry is a thread entry point.
type Entry func(arg any)

// Thread is a thread control block. It is owned by a Pool and recycled, never
// freed.
//
// A thread belongs to at most one ThreadQueue. Its prev/next links are valid
// only while queue is set.
type Thread struct {
	sp          StackPointer
	sleepTarget Tick
	priority    Priority
	stack       [StackWords]uint32

	name    [MaxThreadNameLen]byte
	nameLen uint8

	entry Entry
	arg   any

	id    ThreadID
	pool  *Pool
	queue *ThreadQueue
	prev  ThreadID
	next  ThreadID
}

// ID returns the pool slot of the thread.
func (t *Thread) ID() ThreadID { return t.id }

// Name returns the thread name.
func (t *Thread) Name() string { return string(t.name[:t.nameLen]) }

// Priority returns the thread priority.
func (t *Thread) Priority() Priority { return t.priority }

// SetPriority changes the priority used by the next scheduling pass.
func (t *Thread) SetPriority(p Priority) { t.priority = p }

// SetSleepTarget sets the tick at which a sleeping thread becomes ready.
func (t *Thread) SetSleepTarget(at Tick) { t.sleepTarget = at }

// SleepTarget returns the tick at which a sleeping thread becomes ready.
func (t *Thread) SleepTarget() Tick { return t.sleepTarget }

// SP returns the saved continuation of the thread.
func (t *Thread) SP() StackPointer { return t.sp }

// Stack returns the thread's stack words. Only the platform context switch
// code writes to it.
func (t *Thread) Stack() []uint32 { return t.stack[:] }

// Queue returns the queue the thread belongs to, or nil.
func (t *Thread) Queue() *ThreadQueue { return t.queue }

// Entry returns the thread entry point and its argument.
func (t *Thread) Entry() (Entry, any) { return t.entry, t.arg }

func (t *Thread) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name()
}

func (t *Thread) setName(name string) {
	t.nameLen = uint8(copy(t.name[:], name))
}

// Pool is a fixed arena of thread control blocks. Queue links are indices
// into the arena.
type Pool struct {
	threads []Thread
}

// NewPool allocates n thread slots. It is the only allocation the kernel
// performs for threads.
func NewPool(n int) *Pool {
	p := &Pool{threads: make([]Thread, n)}
	for i := range p.threads {
		t := &p.threads[i]
		t.id = ThreadID(i)
		t.pool = p
		t.prev = noThread
		t.next = noThread
	}
	return p
}

// Len returns the number of slots.
func (p *Pool) Len() int { return len(p.threads) }

// Thread returns the slot with the given id, or nil if out of range.
func (p *Pool) Thread(id ThreadID) *Thread {
	if id < 0 || int(id) >= len(p.threads) {
		return nil
	}
	return &p.threads[id]
}

// NewQueue returns an empty queue over the pool.
func (p *Pool) NewQueue(name string) *ThreadQueue {
	q := &ThreadQueue{}
	q.Init(p, name)
	return q
}

// Fill adds every slot of the pool to q in slot order.
func (p *Pool) Fill(q *ThreadQueue) {
	for i := range p.threads {
		q.Add(&p.threads[i])
	}
}

// Create recycles a slot from free into a fresh thread. The returned thread
// is not queued; the caller adds it to a ready queue.
//
// Validation order: missing name, name length, missing entry, free slots.
func (p *Pool) Create(free *ThreadQueue, name string, prio Priority, entry Entry, arg any) (*Thread, error) {
	if name == "" {
		return nil, ErrNull
	}
	if len(name) > MaxThreadNameLen {
		return nil, ErrNameTooLong
	}
	if entry == nil {
		return nil, ErrNull
	}

	t := free.Pop()
	if t == nil {
		return nil, ErrFull
	}

	t.setName(name)
	t.sleepTarget = 0
	t.priority = prio
	t.entry = entry
	t.arg = arg
	t.sp = InitStack(t.stack[:], uint32(t.id))
	t.queue = nil
	t.prev = noThread
	t.next = noThread
	return t, nil
}
