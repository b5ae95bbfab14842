//go:build tinygo && bootdebug

package app

import (
	"image/color"
	"machine"
	"sync"
	"time"

	"tk/hal"
	"tk/internal/fbdisplay"

	"tinygo.org/x/tinyfont"
)

var (
	bootDiagMu   sync.Mutex
	bootDiagStep string
	bootDiagOnce sync.Once
)

// bootStep records the boot step, shows it on the display and starts the
// reporter that repeats it on the log and USB CDC.
func bootStep(h hal.HAL, msg string) {
	bootDiagMu.Lock()
	bootDiagStep = msg
	bootDiagMu.Unlock()

	bootDiagOnce.Do(func() { bootDiagStart(h) })
	bootScreen(h, msg)
}

func bootDiagStart(h hal.HAL) {
	l := h.Logger()

	go func() {
		for {
			bootDiagMu.Lock()
			step := bootDiagStep
			bootDiagMu.Unlock()

			line := "bootdiag: " + step
			if l != nil {
				l.WriteLineString(line)
			}

			// USB CDC catches early boot output without a UART adapter.
			if usb := machine.USBCDC; usb != nil {
				_, _ = usb.Write([]byte(line + "\r\n"))
			}

			time.Sleep(250 * time.Millisecond)
		}
	}()
}

func bootScreen(h hal.HAL, msg string) {
	disp := h.Display()
	if disp == nil {
		return
	}
	d := fbdisplay.New(disp.Framebuffer())
	if !d.Usable() {
		return
	}

	d.Framebuffer().ClearRGB(0, 0, 0)
	fg := color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	tinyfont.WriteLine(d, fatalFont, 0, 12, "tk boot", fg)
	tinyfont.WriteLine(d, fatalFont, 0, 28, msg, fg)
	_ = d.Display()
}
