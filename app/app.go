package app

import (
	"errors"

	"tk/arch"
	"tk/console"
	"tk/ddf"
	"tk/ddf/serial"
	"tk/ddf/term"
	"tk/ddf/testdrv"
	"tk/hal"
	"tk/internal/buildinfo"
	"tk/kernel"
	"tk/selftest"
)

// ErrHalted is returned by the step function once the kernel stopped.
var ErrHalted = errors.New("kernel halted")

type Config struct {
	// TickHz is the timer rate; zero takes the platform rate.
	TickHz uint32
	// Quantum is the number of ticks between preemptive switches.
	Quantum uint32
	// SelfTest runs the boot checks before the kernel starts.
	SelfTest bool
	// TermConsole mirrors console output to the display.
	TermConsole bool
}

type system struct {
	h     hal.HAL
	cpu   *arch.CPU
	k     *kernel.Kernel
	con   *console.Console
	table *ddf.Table
	data  *ThreadData
}

// New boots the kernel with default config and returns the host step
// function.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, Config{})
}

// Run boots the kernel and blocks forever (TinyGo/native entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, Config{})
}

// NewWithConfig boots the kernel on its own goroutine. The returned step
// function reports ErrHalted once the kernel stopped.
func NewWithConfig(h hal.HAL, cfg Config) func() error {
	s := newSystem(h)
	go s.run(cfg)
	return s.step
}

func RunWithConfig(h hal.HAL, cfg Config) {
	newSystem(h).run(cfg)
	select {}
}

func newSystem(h hal.HAL) *system {
	return &system{h: h, cpu: arch.New()}
}

func (s *system) step() error {
	select {
	case <-s.cpu.Halted():
		return ErrHalted
	default:
		return nil
	}
}

// run boots and starts the kernel. A fatal error during boot halts the CPU
// and run never returns; otherwise it returns once the kernel halted.
func (s *system) run(cfg Config) {
	s.boot(cfg)
	s.k.Start()
}

func (s *system) boot(cfg Config) {
	h := s.h

	hz := cfg.TickHz
	if t := h.Time(); t != nil && hz == 0 {
		hz = t.Hz()
	}

	var log kernel.Logger
	if l := h.Logger(); l != nil {
		log = l
		l.WriteLineString(buildinfo.Banner("tk"))
	}

	bootStep(h, "kernel")
	s.k = kernel.New(kernel.Config{
		TickHz:  hz,
		Quantum: cfg.Quantum,
		Logger:  log,
	}, s.cpu)
	installFatalHandler(h, s.k)

	s.con = console.New(s.k, h.Serial())
	s.con.RawPrintString("Hardware initialized!\n")

	if cfg.SelfTest {
		bootStep(h, "self test")
		if passed, total := selftest.Run(s.con, s.k); passed != total {
			s.k.Fatal("boot self test failed")
		}
	}

	bootStep(h, "drivers")
	drivers := []ddf.Driver{
		testdrv.New(),
		serial.New(h.Serial(), serial.DefaultClock, s.k),
	}
	var td *term.Driver
	if cfg.TermConsole {
		if d := term.New(h.Display()); d.Usable() {
			td = d
			drivers = append(drivers, td)
		} else if log != nil {
			log.WriteLineString("tk: no framebuffer, terminal console disabled")
		}
	}

	table, err := ddf.NewTable(s.k, drivers...)
	if err != nil {
		s.k.Fatal(err.Error())
	}
	s.table = table

	s.con.Init(table)
	if td != nil {
		th, err := table.Open(term.Major, term.Minor)
		if err != nil {
			s.k.Fatal("terminal open failed: " + err.Error())
		}
		s.con.Mirror(th)
	}
	s.con.PrintString("Tiny Kernel initialized!\n")

	bootStep(h, "threads")
	s.data = NewThreadData(s.k, s.con, h.LED())
	for _, th := range s.data.Threads() {
		if err := s.k.CreateThread(th.Name, kernel.PriorityNormal, th.Entry, s.data); err != nil {
			s.con.PrintString("Error creating " + th.Name + " thread\n")
		}
	}

	s.startTimer()
}

// startTimer turns platform ticks into timer interrupts.
func (s *system) startTimer() {
	t := s.h.Time()
	if t == nil {
		return
	}
	ch := t.Ticks()
	if ch == nil {
		return
	}
	go func() {
		for {
			select {
			case <-s.cpu.Halted():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				s.cpu.Raise()
			}
		}
	}()
}
