// Package fbdisplay draws into a hal.Framebuffer through the TinyGo drivers
// display interface, so tinyfont and tinyterm can render into it.
package fbdisplay

import (
	"image/color"

	"tk/hal"

	"tinygo.org/x/drivers"
)

// Display adapts an RGB565 framebuffer. The geometry is read once; pixels
// outside it and framebuffers of other formats are ignored.
type Display struct {
	fb     hal.Framebuffer
	w, h   int
	stride int
}

var _ drivers.Displayer = (*Display)(nil)

func New(fb hal.Framebuffer) *Display {
	d := &Display{fb: fb}
	if fb != nil {
		d.w, d.h, d.stride = fb.Width(), fb.Height(), fb.StrideBytes()
	}
	return d
}

// Framebuffer returns the underlying framebuffer.
func (d *Display) Framebuffer() hal.Framebuffer { return d.fb }

// Usable reports whether the framebuffer has pixels to draw into.
func (d *Display) Usable() bool {
	return d.pixels() != nil
}

func (d *Display) pixels() []byte {
	if d.fb == nil || d.fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	buf := d.fb.Buffer()
	if len(buf) < d.h*d.stride || d.stride < d.w*2 {
		return nil
	}
	return buf
}

func (d *Display) Size() (x, y int16) {
	return int16(d.w), int16(d.h)
}

func (d *Display) SetPixel(x, y int16, c color.RGBA) {
	buf := d.pixels()
	if buf == nil || int(x) < 0 || int(x) >= d.w || int(y) < 0 || int(y) >= d.h {
		return
	}
	p := hal.RGB565(c.R, c.G, c.B)
	off := int(y)*d.stride + int(x)*2
	buf[off], buf[off+1] = byte(p), byte(p>>8)
}

func (d *Display) Display() error {
	if d.fb == nil {
		return nil
	}
	return d.fb.Present()
}

// ScrollUp moves the content up by lines pixel rows and clears the rows
// exposed at the bottom with bg.
func (d *Display) ScrollUp(lines int16, bg color.RGBA) error {
	buf := d.pixels()
	n := int(lines)
	if buf == nil || n <= 0 {
		return nil
	}
	if n < d.h {
		copy(buf[:(d.h-n)*d.stride], buf[n*d.stride:d.h*d.stride])
	} else {
		n = d.h
	}
	d.fill(buf, 0, d.h-n, d.w, d.h, bg)
	return nil
}

func (d *Display) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	buf := d.pixels()
	if buf == nil {
		return nil
	}
	d.fill(buf,
		clamp(int(x), d.w), clamp(int(y), d.h),
		clamp(int(x)+int(width), d.w), clamp(int(y)+int(height), d.h),
		c)
	return nil
}

// fill paints the half-open rectangle [x0,x1) x [y0,y1), already clipped.
func (d *Display) fill(buf []byte, x0, y0, x1, y1 int, c color.RGBA) {
	if x0 >= x1 || y0 >= y1 {
		return
	}
	p := hal.RGB565(c.R, c.G, c.B)
	lo, hi := byte(p), byte(p>>8)
	for y := y0; y < y1; y++ {
		row := buf[y*d.stride+x0*2 : y*d.stride+x1*2]
		for i := 0; i < len(row); i += 2 {
			row[i], row[i+1] = lo, hi
		}
	}
}

// SetScroll is a no-op: framebuffers scroll in software.
func (d *Display) SetScroll(line int16) {}

func (d *Display) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

func clamp(v, hi int) int {
	if v < 0 {
		return 0
	}
	if v > hi {
		return hi
	}
	return v
}
