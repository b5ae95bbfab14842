//go:build tinygo && baremetal

package hal

import (
	"machine"
)

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	fb     Framebuffer
	t      *tickSource
	serial Serial
}

// New returns a Pico 2 (RP2350) HAL implementation with the default config.
func New() HAL {
	return NewWithConfig(Config{})
}

// NewWithConfig returns a Pico 2 (RP2350) HAL implementation.
//
// Log lines go to UART0 on GP0 (TX) / GP1 (RX) at 115200 8N1. The console
// serial port is UART1 on GP4 (TX) / GP5 (RX); its line settings are
// programmed by the serial driver.
func NewWithConfig(cfg Config) HAL {
	logUART := machine.UART0
	logUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	consoleUART := machine.UART1
	consoleUART.Configure(machine.UARTConfig{
		BaudRate: 38400,
		TX:       machine.GP4,
		RX:       machine.GP5,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	return &tinyGoHAL{
		logger: &uartLogger{uart: logUART},
		led:    &pinLED{pin: ledPin},
		fb:     &stubFramebuffer{w: 320, h: 240, format: PixelFormatRGB565},
		t:      newTickSource(cfg.tickHz()),
		serial: &uartSerial{uart: consoleUART},
	}
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) Time() Time       { return h.t }
func (h *tinyGoHAL) Serial() Serial   { return h.serial }
