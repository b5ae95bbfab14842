//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled bool
	// Hz is the rate at which the app step function is polled.
	Hz int
	// Ticks stops the runner after N polls (0 = run until the app stops).
	Ticks uint64
}

// RunHeadless runs the app without opening a window. It returns the first
// step error, ctx's error, or nil once cfg.Ticks polls have passed. The
// timer stops on return and a summary line is logged.
func RunHeadless(ctx context.Context, hc Config, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := NewWithConfig(hc).(*hostHAL)
	defer h.t.Stop()
	step := newApp(h)

	poll := time.NewTicker(d)
	defer poll.Stop()

	var polls uint64
	defer func() {
		h.logger.WriteLineString(fmt.Sprintf("headless: %d polls, %d timer ticks dropped", polls, h.t.Dropped()))
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-poll.C:
		}
		if step != nil {
			if err := step(); err != nil {
				return err
			}
		}
		polls++
		if cfg.Ticks > 0 && polls >= cfg.Ticks {
			return nil
		}
	}
}
