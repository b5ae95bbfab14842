//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"tk/app"
	"tk/hal"
)

func main() {
	var cfg hal.HeadlessConfig
	var hc hal.Config
	var ac app.Config
	var tickHz, quantum uint
	flag.BoolVar(&cfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&cfg.Hz, "hz", 60, "Host poll rate in headless mode.")
	flag.Uint64Var(&cfg.Ticks, "ticks", 0, "Stop after N polls in headless mode (0 = run until the kernel halts).")
	flag.UintVar(&tickHz, "tick-hz", hal.DefaultTickHz, "Timer interrupt rate.")
	flag.UintVar(&quantum, "quantum", 1, "Ticks between preemptive switches.")
	flag.BoolVar(&ac.SelfTest, "selftest", true, "Run the boot self test.")
	flag.BoolVar(&ac.TermConsole, "term", false, "Mirror the console to the window.")
	flag.Parse()

	hc.TickHz = uint32(tickHz)
	ac.TickHz = uint32(tickHz)
	ac.Quantum = uint32(quantum)

	newApp := func(h hal.HAL) func() error {
		return app.NewWithConfig(h, ac)
	}

	var err error
	if cfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, hc, newApp, cfg)
	} else {
		err = hal.RunWindow(hc, newApp)
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
