package app

import (
	"fmt"
	"image/color"
	"strings"
	"unicode/utf8"

	"tk/hal"
	"tk/internal/fbdisplay"
	"tk/kernel"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	fatalFontHeight = 10
	fatalFontOffset = 6
)

var fatalFont = &proggy.TinySZ8pt7b

func installFatalHandler(h hal.HAL, k *kernel.Kernel) {
	k.SetFatalHandler(func(info kernel.FatalInfo) {
		if l := h.Logger(); l != nil {
			for _, line := range stackLines(info.Stack) {
				l.WriteLineString(line)
			}
		}

		disp := h.Display()
		if disp == nil {
			return
		}
		drawFatal(fbdisplay.New(disp.Framebuffer()), info)
	})
}

func stackLines(stack []byte) []string {
	var out []string
	for _, line := range strings.Split(string(stack), "\n") {
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// drawFatal paints the fatal report black on white, wrapping long lines and
// dropping whatever does not fit.
func drawFatal(d *fbdisplay.Display, info kernel.FatalInfo) {
	if !d.Usable() {
		return
	}
	d.Framebuffer().ClearRGB(255, 255, 255)

	_, outboxWidth := tinyfont.LineWidth(fatalFont, "0")
	fontWidth := int16(outboxWidth)
	if fontWidth <= 0 {
		_ = d.Display()
		return
	}

	lines := []string{
		"tk fatal:",
		"thread: " + info.Thread,
		fmt.Sprintf("tick: %d", info.Tick),
		info.Message,
	}
	if st := stackLines(info.Stack); len(st) > 0 {
		lines = append(lines, "stack:")
		lines = append(lines, st...)
	} else {
		lines = append(lines, "stack: unavailable")
	}

	fg := color.RGBA{A: 255}
	maxW, maxH := d.Size()
	cols := maxW / fontWidth
	if cols <= 0 {
		cols = 1
	}

	y := int16(0)
	for _, line := range lines {
		for len(line) > 0 {
			if y+fatalFontHeight > maxH {
				_ = d.Display()
				return
			}
			chunk, rest := takeRunes(line, cols)
			drawTextLine(d, fontWidth, 0, y, chunk, fg)
			y += fatalFontHeight
			line = strings.TrimLeft(rest, " ")
		}
	}
	_ = d.Display()
}

func drawTextLine(d *fbdisplay.Display, fontWidth, x0, y0 int16, s string, fg color.RGBA) {
	x := x0
	for _, r := range s {
		tinyfont.DrawChar(d, fatalFont, x, y0+fatalFontOffset, r, fg)
		x += fontWidth
	}
}

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	var i int
	var count int16
	for i < len(s) && count < n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
		count++
	}
	return s[:i], s[i:]
}
