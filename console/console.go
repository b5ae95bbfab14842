// Package console prints text on the serial console.
//
// The Print functions go through the driver framework and are safe to call
// from any thread; the Raw functions write straight to the UART for use
// before the driver table exists and from fatal handlers.
package console

import (
	"fmt"
	"strconv"
	"time"

	"tk/ddf"
	"tk/ddf/serial"
	"tk/hal"
	"tk/kernel"
)

// Baud is the console line rate.
const Baud = 38400

const chunkSize = 128

// Console is the kernel console.
type Console struct {
	k      *kernel.Kernel
	raw    hal.Serial
	h      *ddf.Handle
	mirror *ddf.Handle
}

// New returns a console that writes raw output to port. Call Init before any
// Print function.
func New(k *kernel.Kernel, port hal.Serial) *Console {
	return &Console{k: k, raw: port}
}

// Init opens the serial driver and sets the line to 38400 8N1. Failure is
// fatal.
func (c *Console) Init(t *ddf.Table) {
	h, err := t.Open(serial.Major, serial.Minor)
	if err != nil {
		c.k.Fatal("console: serial driver open failed: " + err.Error())
		return
	}

	info := serial.BaudInfo{
		Rate:     Baud,
		DataBits: serial.DataBits8,
		StopBits: serial.StopBits1,
		Parity:   serial.ParityNone,
	}
	in, _ := info.MarshalBinary()
	if err := h.Ioctl(serial.IoctlBaud, in, nil); err != nil {
		c.k.Fatal("console: failed to set baud rate: " + err.Error())
		return
	}
	c.h = h
}

// Mirror copies all driver output to h as well, typically the terminal.
func (c *Console) Mirror(h *ddf.Handle) { c.mirror = h }

// PrintString writes s. A failed write is fatal.
func (c *Console) PrintString(s string) {
	for len(s) > 0 {
		n := len(s)
		if n > chunkSize {
			n = chunkSize
		}
		c.write([]byte(s[:n]))
		s = s[n:]
	}
}

// Printf formats and writes like fmt.Printf.
func (c *Console) Printf(format string, args ...any) {
	c.PrintString(fmt.Sprintf(format, args...))
}

// PrintHex writes x as eight upper-case hex digits.
func (c *Console) PrintHex(x uint32) { c.PrintString(Hex(x)) }

// PrintDecimal writes x in decimal.
func (c *Console) PrintDecimal(x uint64) { c.PrintString(Decimal(x)) }

func (c *Console) write(p []byte) {
	if c.h == nil {
		c.k.Fatal("console: not initialized")
		return
	}
	for len(p) > 0 {
		n, err := c.h.Write(p)
		if err != nil || n <= 0 {
			c.k.Fatal("console: serial driver write failed")
			return
		}
		if c.mirror != nil {
			_, _ = c.mirror.Write(p[:n])
		}
		p = p[n:]
	}
}

// RawPrintString writes s to the UART, expanding '\n' to "\n\r".
func (c *Console) RawPrintString(s string) {
	if c.raw == nil {
		return
	}
	var buf [2]byte
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			buf[0], buf[1] = '\n', '\r'
			_, _ = c.raw.Write(buf[:2])
			continue
		}
		buf[0] = s[i]
		_, _ = c.raw.Write(buf[:1])
	}
}

// RawPrintHex writes x as eight upper-case hex digits to the UART.
func (c *Console) RawPrintHex(x uint32) { c.RawPrintString(Hex(x)) }

// RawPrintDecimal writes x in decimal to the UART.
func (c *Console) RawPrintDecimal(x uint64) { c.RawPrintString(Decimal(x)) }

// PrintSchedulingMetrics reports the time spent in the scheduler.
func (c *Console) PrintSchedulingMetrics() {
	m := c.k.SchedulingMetrics()
	us := func(d time.Duration) uint64 { return uint64(d / time.Microsecond) }

	c.PrintString("Time spent " + m.Name + ":\n")
	c.PrintString("Average: " + Decimal(us(m.Average)) + " us\n")
	c.PrintString("Min: " + Decimal(us(m.Min)) + " us\n")
	c.PrintString("Max: " + Decimal(us(m.Max)) + " us\n")
	c.PrintString("Ratio of scheduling to total: " + Decimal(us(m.Spent)) + "/" + Decimal(us(m.Elapsed)) + "\n")
}

// Hex formats x as eight upper-case hex digits.
func Hex(x uint32) string {
	const digits = "0123456789ABCDEF"
	var buf [8]byte
	for i := len(buf) - 1; i >= 0; i-- {
		buf[i] = digits[x&0xF]
		x >>= 4
	}
	return string(buf[:])
}

// Decimal formats x in decimal.
func Decimal(x uint64) string {
	return strconv.FormatUint(x, 10)
}
