package render

import (
	"fmt"
	"hash/fnv"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"white": {255, 255, 255, 255},
	"black": {0, 0, 0, 255},
	"gray":  {128, 128, 128, 255},
	"navy":  {0, 0, 128, 255},
}

// DefaultPalette is used when no fixed colour is set.
var DefaultPalette = []color.RGBA{
	{31, 119, 180, 255},
	{255, 127, 14, 255},
	{44, 160, 44, 255},
	{214, 39, 40, 255},
	{148, 103, 189, 255},
	{140, 86, 75, 255},
	{227, 119, 194, 255},
	{127, 127, 127, 255},
	{188, 189, 34, 255},
	{23, 190, 207, 255},
}

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa" or a few names. Hex
// values need the leading "#". Alpha is straight and the result is
// premultiplied.
func ParseColor(s string) (color.RGBA, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(s, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	c := color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}

func paletteColor(palette []color.RGBA, term string) color.RGBA {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return palette[h.Sum32()%uint32(len(palette))]
}
