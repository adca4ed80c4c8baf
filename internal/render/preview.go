package render

import (
	"fmt"
	"image"
	"image/color"
	"io"
)

// PreviewLines downsamples img onto cols x rows braille cells. A dot is set
// when any pixel of its block differs from bg. rows <= 0 keeps the aspect
// ratio, cols <= 0 uses the terminal width.
func PreviewLines(img image.Image, cols, rows int, bg color.RGBA, useColor bool) []string {
	b := img.Bounds()
	if b.Empty() {
		return nil
	}
	if cols <= 0 {
		cols = TerminalWidth()
	}
	if rows <= 0 {
		dotsH := cols * 2 * b.Dy() / b.Dx()
		rows = (dotsH + 3) / 4
	}
	grid := NewDotGrid(cols, rows)
	dotsW, dotsH := grid.Dots()
	for dy := 0; dy < dotsH; dy++ {
		y0 := b.Min.Y + dy*b.Dy()/dotsH
		y1 := maxInt(y0+1, b.Min.Y+(dy+1)*b.Dy()/dotsH)
		for dx := 0; dx < dotsW; dx++ {
			x0 := b.Min.X + dx*b.Dx()/dotsW
			x1 := maxInt(x0+1, b.Min.X+(dx+1)*b.Dx()/dotsW)
			if c, ok := firstInk(img, x0, y0, x1, y1, bg); ok {
				grid.Set(dx, dy, xterm256(c))
			}
		}
	}
	return grid.Lines(useColor)
}

// Preview writes PreviewLines to w, colouring when w is a terminal or force is set.
func Preview(w io.Writer, img image.Image, cols, rows int, bg color.RGBA, force bool) error {
	for _, line := range PreviewLines(img, cols, rows, bg, ShouldUseColor(w, force)) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func firstInk(img image.Image, x0, y0, x1, y1 int, bg color.RGBA) (color.RGBA, bool) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if differs(c, bg) {
				return c, true
			}
		}
	}
	return color.RGBA{}, false
}

func differs(a, b color.RGBA) bool {
	const threshold = 48
	return absDiff(a.R, b.R)+absDiff(a.G, b.G)+absDiff(a.B, b.B) > threshold
}

func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

// xterm256 maps c onto the 6x6x6 colour cube.
func xterm256(c color.RGBA) int {
	q := func(v uint8) int { return (int(v)*5 + 127) / 255 }
	return 16 + 36*q(c.R) + 6*q(c.G) + q(c.B)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
