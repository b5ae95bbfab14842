// Package serial is the console UART driver.
package serial

import (
	"encoding/binary"
	"errors"
	"fmt"

	"tk/ddf"
	"tk/hal"
)

const (
	Major = 1
	Minor = 0

	// IoctlBaud programs the line settings from an encoded BaudInfo.
	IoctlBaud uint32 = 0
)

// DataBits values are the word-length field of the line control register.
type DataBits uint8

const (
	DataBits5 DataBits = iota
	DataBits6
	DataBits7
	DataBits8
)

// StopBits values are the stop-bit field of the line control register.
type StopBits uint8

const (
	StopBits1 StopBits = iota
	StopBits2
)

// Parity selects the parity mode.
type Parity uint8

const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
)

// Line control register bits.
const (
	lcrStopShift     = 2
	lcrParityEnable  = 1 << 3
	lcrParityOdd     = 0 << 4
	lcrParityEven    = 1 << 4
	lcrDivisorAccess = 1 << 7

	terTxEnable = 1 << 7
)

// BaudInfoSize is the encoded size of a BaudInfo.
const BaudInfoSize = 8

// BaudInfo is the payload of IoctlBaud.
type BaudInfo struct {
	Rate     uint32
	DataBits DataBits
	StopBits StopBits
	Parity   Parity
}

// MarshalBinary encodes b as the ioctl input buffer.
func (b BaudInfo) MarshalBinary() ([]byte, error) {
	buf := make([]byte, BaudInfoSize)
	binary.LittleEndian.PutUint32(buf[0:4], b.Rate)
	buf[4] = byte(b.DataBits)
	buf[5] = byte(b.StopBits)
	buf[6] = byte(b.Parity)
	return buf, nil
}

// UnmarshalBinary decodes an ioctl input buffer.
func (b *BaudInfo) UnmarshalBinary(buf []byte) error {
	if len(buf) != BaudInfoSize {
		return ddf.ErrIoctlInBufBadSize
	}
	b.Rate = binary.LittleEndian.Uint32(buf[0:4])
	b.DataBits = DataBits(buf[4])
	b.StopBits = StopBits(buf[5])
	b.Parity = Parity(buf[6])
	return nil
}

var ErrBadBaud = errors.New("serial: bad baud setting")

// Clock describes the UART clock tree.
type Clock struct {
	// CCLK is the CPU clock in Hz.
	CCLK uint32
	// PCLKSel is the peripheral clock selector: 0 = CCLK/4, 1 = CCLK,
	// 2 = CCLK/2, 3 = CCLK/8.
	PCLKSel uint8
}

// DefaultClock is a 72 MHz CPU clock with the reset peripheral divider.
var DefaultClock = Clock{CCLK: 72_000_000, PCLKSel: 0}

// Registers is the UART register state programmed by IoctlBaud.
type Registers struct {
	DLL uint8
	DLM uint8
	LCR uint8
	TER uint8
}

// Fataler stops the system on an invariant violation. *kernel.Kernel
// implements it.
type Fataler interface {
	Fatal(msg string)
}

// Driver writes to a hal.Serial port.
type Driver struct {
	port  hal.Serial
	clock Clock
	fatal Fataler

	regs    Registers
	line    hal.LineConfig
	baud    ddf.Ioctl
	powered bool
}

var _ ddf.PowerController = (*Driver)(nil)

func New(port hal.Serial, clock Clock, fatal Fataler) *Driver {
	return &Driver{port: port, clock: clock, fatal: fatal}
}

func (d *Driver) Name() string  { return "serial" }
func (d *Driver) Major() uint32 { return Major }
func (d *Driver) Minor() uint32 { return Minor }

func (d *Driver) Init() error {
	if d.port == nil {
		return ddf.ErrNull
	}
	d.baud = ddf.Ioctl{Type: ddf.IoctlIn, InSize: BaudInfoSize, Op: d.setBaud}
	d.regs.TER = terTxEnable
	d.powered = true
	return nil
}

func (d *Driver) Open()  {}
func (d *Driver) Close() {}

// Registers returns the programmed register state.
func (d *Driver) Registers() Registers { return d.regs }

// Line returns the last line setting applied to the port.
func (d *Driver) Line() hal.LineConfig { return d.line }

func (d *Driver) Read(p []byte) (int, error) {
	for i := range p {
		n, err := d.port.Read(p[i : i+1])
		if err != nil {
			return i, fmt.Errorf("serial: read: %w", err)
		}
		if n == 0 {
			return i, nil
		}
	}
	return len(p), nil
}

// Write sends p, expanding every '\n' to "\n\r". It reports len(p) on
// success.
func (d *Driver) Write(p []byte) (int, error) {
	var buf [64]byte
	out := buf[:0]
	flush := func() error {
		if len(out) == 0 {
			return nil
		}
		if _, err := d.port.Write(out); err != nil {
			return fmt.Errorf("serial: write: %w", err)
		}
		out = buf[:0]
		return nil
	}

	for _, b := range p {
		if len(out)+2 > cap(out) {
			if err := flush(); err != nil {
				return 0, err
			}
		}
		if b == '\n' {
			out = append(out, '\n', '\r')
		} else {
			out = append(out, b)
		}
	}
	if err := flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (d *Driver) Ioctl(code uint32) *ddf.Ioctl {
	switch code {
	case IoctlBaud:
		return &d.baud
	default:
		return nil
	}
}

func (d *Driver) PowerUp() error {
	d.powered = true
	return nil
}

func (d *Driver) PowerDown() error {
	d.powered = false
	return nil
}

// Powered reports the peripheral power bit.
func (d *Driver) Powered() bool { return d.powered }

func (d *Driver) pclkDiv() uint32 {
	switch d.clock.PCLKSel {
	case 0:
		return 4
	case 1:
		return 1
	case 2:
		return 2
	case 3:
		return 8
	default:
		return 0
	}
}

func (d *Driver) setBaud(in, _ []byte) error {
	var info BaudInfo
	if err := info.UnmarshalBinary(in); err != nil {
		return err
	}
	if info.Rate == 0 || info.DataBits > DataBits8 || info.StopBits > StopBits2 || info.Parity > ParityEven {
		return ErrBadBaud
	}

	// Stop transmissions while the divisor changes.
	d.regs.TER = 0

	div := d.pclkDiv()
	if div == 0 {
		d.fatal.Fatal("serial: peripheral clock divider reached an impossible value")
		return ErrBadBaud
	}

	latch := 2 * ((d.clock.CCLK / div) / (info.Rate * 16))
	round := uint8(latch & 1)
	latch /= 2
	d.regs.LCR = lcrDivisorAccess
	d.regs.DLL = uint8(latch) + round
	d.regs.DLM = uint8(latch >> 8)

	lcr := uint8(info.DataBits) | uint8(info.StopBits)<<lcrStopShift
	switch info.Parity {
	case ParityOdd:
		lcr |= lcrParityEnable | lcrParityOdd
	case ParityEven:
		lcr |= lcrParityEnable | lcrParityEven
	}
	d.regs.LCR = lcr

	if lc, ok := d.port.(hal.LineConfigurer); ok {
		line := hal.LineConfig{
			Baud:     info.Rate,
			DataBits: uint8(info.DataBits) + 5,
			StopBits: uint8(info.StopBits) + 1,
			Parity:   hal.Parity(info.Parity),
		}
		if err := lc.SetLine(line); err != nil {
			d.regs.TER = terTxEnable
			return fmt.Errorf("serial: set line: %w", err)
		}
		d.line = line
	}

	d.regs.TER = terTxEnable
	return nil
}
