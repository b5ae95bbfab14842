// Package term is a VT100 console driver that renders into the display
// framebuffer.
package term

import (
	"encoding/binary"
	"image/color"

	"tk/ddf"
	"tk/hal"
	"tk/internal/fbdisplay"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

const (
	Major = 2
	Minor = 0
)

// Ioctl codes.
const (
	// IoctlClear blanks the screen and homes the cursor.
	IoctlClear uint32 = iota
	// IoctlSize returns the text grid as two little-endian uint16: columns
	// then rows.
	IoctlSize
)

const (
	fontHeight = 10
	fontOffset = 6
)

// Font is the terminal font.
var Font tinyfont.Fonter = &proggy.TinySZ8pt7b

// Driver is a write-only terminal.
type Driver struct {
	disp *fbdisplay.Display
	t    *tinyterm.Terminal

	cols, rows int16
	ioctls     [2]ddf.Ioctl
}

func New(d hal.Display) *Driver {
	var fb hal.Framebuffer
	if d != nil {
		fb = d.Framebuffer()
	}
	return &Driver{disp: fbdisplay.New(fb)}
}

func (d *Driver) Name() string  { return "term" }
func (d *Driver) Major() uint32 { return Major }
func (d *Driver) Minor() uint32 { return Minor }

// Usable reports whether the display has a framebuffer to render into.
// Init fails otherwise.
func (d *Driver) Usable() bool { return d.disp.Usable() }

func (d *Driver) Init() error {
	if !d.disp.Usable() {
		return hal.ErrNotImplemented
	}
	d.ioctls = [2]ddf.Ioctl{
		IoctlClear: {Type: ddf.IoctlNone, Op: func(_, _ []byte) error {
			d.reset()
			return nil
		}},
		IoctlSize: {Type: ddf.IoctlOut, OutSize: 4, Op: func(_, out []byte) error {
			binary.LittleEndian.PutUint16(out[0:2], uint16(d.cols))
			binary.LittleEndian.PutUint16(out[2:4], uint16(d.rows))
			return nil
		}},
	}
	d.reset()
	return nil
}

func (d *Driver) reset() {
	d.t = tinyterm.NewTerminal(d.disp)
	d.t.Configure(&tinyterm.Config{
		Font:              Font,
		FontHeight:        fontHeight,
		FontOffset:        fontOffset,
		UseSoftwareScroll: true,
	})

	w, h := d.disp.Size()
	_, cw := tinyfont.LineWidth(Font, "0")
	d.cols, d.rows = 0, h/fontHeight
	if cw > 0 {
		d.cols = w / int16(cw)
	}

	_ = d.disp.FillRectangle(0, 0, w, h, color.RGBA{A: 255})
	_ = d.disp.Display()
}

// Size returns the text grid.
func (d *Driver) Size() (cols, rows int16) { return d.cols, d.rows }

func (d *Driver) Open()  {}
func (d *Driver) Close() {}

func (d *Driver) Read(p []byte) (int, error) {
	return 0, hal.ErrNotImplemented
}

func (d *Driver) Write(p []byte) (int, error) {
	n, err := d.t.Write(p)
	d.t.Display()
	return n, err
}

func (d *Driver) Ioctl(code uint32) *ddf.Ioctl {
	if code >= uint32(len(d.ioctls)) {
		return nil
	}
	return &d.ioctls[code]
}
