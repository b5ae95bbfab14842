//go:build tinygo && !baremetal

package hal

// tinyGoHostFramebuffer keeps pixels in memory. Nothing displays them; the
// terminal and fatal screens still render so their output can be inspected
// from a debugger.
type tinyGoHostFramebuffer struct {
	w, h   int
	buf    []byte
	frames uint64
}

func newTinyGoHostFramebuffer(w, h int) *tinyGoHostFramebuffer {
	return &tinyGoHostFramebuffer{w: w, h: h, buf: make([]byte, w*h*2)}
}

func (f *tinyGoHostFramebuffer) Width() int          { return f.w }
func (f *tinyGoHostFramebuffer) Height() int         { return f.h }
func (f *tinyGoHostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *tinyGoHostFramebuffer) StrideBytes() int    { return f.w * 2 }
func (f *tinyGoHostFramebuffer) Buffer() []byte      { return f.buf }

func (f *tinyGoHostFramebuffer) ClearRGB(r, g, b uint8) {
	p := rgb565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i], f.buf[i+1] = byte(p), byte(p>>8)
	}
}

// Present counts frames.
func (f *tinyGoHostFramebuffer) Present() error {
	f.frames++
	return nil
}
