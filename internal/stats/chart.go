package stats

import (
	"math"

	"github.com/verte-zerg/weekcloud/internal/render"
)

const chartColor = 208 // xterm orange

// ChartLines draws values as a braille line chart of width x height cells,
// scaled between the series min and max.
func ChartLines(values []float64, width, height int, useColor bool) []string {
	if len(values) == 0 || width <= 0 || height <= 0 {
		return nil
	}
	grid := render.NewDotGrid(width, height)
	dotsW, dotsH := grid.Dots()
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		minVal--
		maxVal++
	}
	code := -1
	if useColor {
		code = chartColor
	}
	prevX, prevY := -1, -1
	for i, v := range values {
		x := 0
		if len(values) > 1 {
			x = int(math.Round(float64(i) * float64(dotsW-1) / float64(len(values)-1)))
		}
		y := int(math.Round((1 - (v-minVal)/(maxVal-minVal)) * float64(dotsH-1)))
		if prevX >= 0 {
			grid.Line(prevX, prevY, x, y, code)
		} else {
			grid.Set(x, y, code)
		}
		prevX, prevY = x, y
	}
	return grid.Lines(useColor)
}
