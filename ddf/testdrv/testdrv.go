// Package testdrv is a loopback driver that exercises every path of the
// driver framework.
package testdrv

import "tk/ddf"

const (
	Major = 0
	Minor = 0

	// BufSize is the loopback buffer size and the size of every ioctl buffer.
	BufSize = 4
)

// Ioctl codes.
const (
	IoctlNone uint32 = iota
	IoctlIn
	IoctlOut
	IoctlInOut
)

// Driver keeps the last write and returns it on read.
type Driver struct {
	buf     [BufSize]byte
	ioctls  [4]ddf.Ioctl
	opens   int
	powered bool
}

var _ ddf.PowerController = (*Driver)(nil)

func New() *Driver { return &Driver{} }

func (d *Driver) Name() string  { return "test" }
func (d *Driver) Major() uint32 { return Major }
func (d *Driver) Minor() uint32 { return Minor }

func (d *Driver) Init() error {
	ok := func(in, out []byte) error { return nil }
	d.ioctls = [4]ddf.Ioctl{
		IoctlNone:  {Type: ddf.IoctlNone, Op: ok},
		IoctlIn:    {Type: ddf.IoctlIn, InSize: BufSize, Op: ok},
		IoctlOut:   {Type: ddf.IoctlOut, OutSize: BufSize, Op: ok},
		IoctlInOut: {Type: ddf.IoctlInOut, InSize: BufSize, OutSize: BufSize, Op: ok},
	}
	d.powered = true
	return nil
}

func (d *Driver) Open()  { d.opens++ }
func (d *Driver) Close() {}

// Opens counts Open calls.
func (d *Driver) Opens() int { return d.opens }

// Powered reports the simulated supply state.
func (d *Driver) Powered() bool { return d.powered }

func (d *Driver) Read(p []byte) (int, error) {
	return copy(p, d.buf[:]), nil
}

func (d *Driver) Write(p []byte) (int, error) {
	return copy(d.buf[:], p), nil
}

func (d *Driver) Ioctl(code uint32) *ddf.Ioctl {
	if code >= uint32(len(d.ioctls)) {
		return nil
	}
	return &d.ioctls[code]
}

func (d *Driver) PowerUp() error {
	d.powered = true
	return nil
}

func (d *Driver) PowerDown() error {
	d.powered = false
	return nil
}
