package render

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	colorReset          = "\x1b[0m"
	terminalWidthBackup = 80
)

// DotGrid is a grid of braille cells; each cell holds 2x4 dots and
// remembers the colour of the first dot set in it.
type DotGrid struct {
	cells [][]uint8
	color [][]int
}

// NewDotGrid returns an empty grid of cols x rows cells.
func NewDotGrid(cols, rows int) *DotGrid {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	g := &DotGrid{cells: make([][]uint8, rows), color: make([][]int, rows)}
	for y := 0; y < rows; y++ {
		g.cells[y] = make([]uint8, cols)
		g.color[y] = make([]int, cols)
		for x := range g.color[y] {
			g.color[y][x] = -1
		}
	}
	return g
}

// Dots returns the grid size in dots.
func (g *DotGrid) Dots() (int, int) {
	return len(g.cells[0]) * 2, len(g.cells) * 4
}

// Set turns on dot (x, y). colorCode is an xterm-256 colour or -1.
func (g *DotGrid) Set(x, y, colorCode int) {
	if y < 0 || x < 0 {
		return
	}
	cellY := y / 4
	cellX := x / 2
	if cellY >= len(g.cells) || cellX >= len(g.cells[cellY]) {
		return
	}
	g.cells[cellY][cellX] |= brailleDotMask(x%2, y%4)
	if g.color[cellY][cellX] < 0 {
		g.color[cellY][cellX] = colorCode
	}
}

// Line sets every dot on the segment between two dots.
func (g *DotGrid) Line(x0, y0, x1, y1, colorCode int) {
	drawLine(x0, y0, x1, y1, func(x, y int) {
		g.Set(x, y, colorCode)
	})
}

// Lines renders the grid, one string per cell row.
func (g *DotGrid) Lines(useColor bool) []string {
	out := make([]string, 0, len(g.cells))
	for y, row := range g.cells {
		var b strings.Builder
		for x, mask := range row {
			ch := brailleFromMask(mask)
			code := g.color[y][x]
			if useColor && mask != 0 && code >= 0 {
				fmt.Fprintf(&b, "\x1b[38;5;%dm%c%s", code, ch, colorReset)
				continue
			}
			b.WriteRune(ch)
		}
		out = append(out, b.String())
	}
	return out
}

func drawLine(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := int(math.Abs(float64(x1 - x0)))
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	dy := -int(math.Abs(float64(y1 - y0)))
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func brailleDotMask(x, y int) uint8 {
	switch {
	case x == 0 && y == 0:
		return 0x01
	case x == 0 && y == 1:
		return 0x02
	case x == 0 && y == 2:
		return 0x04
	case x == 0 && y == 3:
		return 0x40
	case x == 1 && y == 0:
		return 0x08
	case x == 1 && y == 1:
		return 0x10
	case x == 1 && y == 2:
		return 0x20
	case x == 1 && y == 3:
		return 0x80
	default:
		return 0
	}
}

func brailleFromMask(mask uint8) rune {
	return rune(0x2800 + int(mask))
}

// TerminalWidth returns the stdout width, or 80 when it is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

// ShouldUseColor reports whether ANSI colour should be written to w.
// NO_COLOR always wins over force.
func ShouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
