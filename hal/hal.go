package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides the timer interrupt source.
//
// Every value received from Ticks is one timer interrupt; Hz is their nominal
// rate. Ticks that the consumer does not pick up in time are dropped.
type Time interface {
	Ticks() <-chan uint64
	Hz() uint32
}

// Serial is the UART used by the console driver.
type Serial interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
}

// HAL provides the only contact point between the kernel and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	Display() Display
	Time() Time
	Serial() Serial
}

// DefaultTickHz is the timer rate used when Config.TickHz is zero.
const DefaultTickHz = 500

// Config selects platform parameters.
type Config struct {
	// TickHz is the timer interrupt rate.
	TickHz uint32
}

func (c Config) tickHz() uint32 {
	if c.TickHz == 0 {
		return DefaultTickHz
	}
	return c.TickHz
}

// Parity selects the UART parity mode.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// LineConfig is a UART line setting.
type LineConfig struct {
	Baud     uint32
	DataBits uint8
	StopBits uint8
	Parity   Parity
}

// LineConfigurer is implemented by serial ports whose line settings can be
// changed at run time.
type LineConfigurer interface {
	SetLine(cfg LineConfig) error
}
