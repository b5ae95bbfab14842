package app

import (
	"tk/console"
	"tk/hal"
	"tk/kernel"
)

// IdleSleepSeconds is how long the demo idle thread sleeps between reports.
const IdleSleepSeconds = 10

// ThreadData is shared by the demo threads. Inc is guarded by Sem and must
// stay at 0 or 1.
type ThreadData struct {
	Sem kernel.Semaphore
	Inc int

	k   *kernel.Kernel
	con *console.Console
	led hal.LED
	on  bool
}

// DemoThread names a demo thread and its entry point.
type DemoThread struct {
	Name  string
	Entry kernel.Entry
}

func NewThreadData(k *kernel.Kernel, con *console.Console, led hal.LED) *ThreadData {
	d := &ThreadData{k: k, con: con, led: led}
	d.Sem.Init(k, 1)
	return d
}

// Threads returns the demo threads in creation order. Each entry expects the
// *ThreadData as its argument.
func (d *ThreadData) Threads() []DemoThread {
	return []DemoThread{
		{"producer", producer},
		{"consumer", consumer},
		{"monitor", monitor},
		{"idle", idle},
	}
}

func (d *ThreadData) down() {
	if err := d.Sem.Down(); err != nil {
		d.k.Fatal("thread data: " + err.Error())
	}
}

func (d *ThreadData) up() {
	if err := d.Sem.Up(); err != nil {
		d.k.Fatal("thread data: " + err.Error())
	}
}

func producer(arg any) {
	d := arg.(*ThreadData)
	for {
		d.down()
		if d.Inc == 1 {
			d.up()
			d.k.Yield()
			continue
		}
		d.Inc++
		d.con.PrintString("Producer incremented, now at " + console.Decimal(uint64(d.Inc)) + "\n")
		d.up()
	}
}

func consumer(arg any) {
	d := arg.(*ThreadData)
	for {
		d.down()
		if d.Inc == 0 {
			d.up()
			d.k.Yield()
			continue
		}
		d.Inc--
		d.con.PrintString("Consumer decremented, now at " + console.Decimal(uint64(d.Inc)) + "\n")
		d.up()
	}
}

func monitor(arg any) {
	d := arg.(*ThreadData)
	for {
		d.down()
		d.con.PrintString("Monitor running, no errors\n")
		d.con.PrintSchedulingMetrics()
		if d.Inc > 1 || d.Inc < 0 {
			d.con.Printf("Monitor caught error, inc is at %d\n", d.Inc)
			d.k.Fatal("monitor: shared counter out of range")
		}
		d.up()
		d.k.Yield()
	}
}

// idle reports periodically and toggles the LED on every wakeup.
func idle(arg any) {
	d := arg.(*ThreadData)
	for {
		d.con.PrintString("Idle thread sleeping for 10 seconds...\n")
		d.k.Sleep(IdleSleepSeconds)
		d.con.PrintString("Idle thread waking up\n")
		d.toggleLED()
	}
}

func (d *ThreadData) toggleLED() {
	if d.led == nil {
		return
	}
	d.on = !d.on
	if d.on {
		d.led.High()
	} else {
		d.led.Low()
	}
}
