// Package render rasterizes word cloud placements and previews them in a terminal.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/draw"

	"github.com/verte-zerg/weekcloud/internal/layout"
)

// Renderer draws placements onto an RGBA buffer.
type Renderer struct {
	Fonts      *FontSet
	Background color.RGBA
	// Color, when non-nil, overrides the palette for every term.
	Color   *color.RGBA
	Palette []color.RGBA
}

// NewRenderer returns a renderer with a white background and the default palette.
func NewRenderer(fonts *FontSet) *Renderer {
	return &Renderer{
		Fonts:      fonts,
		Background: namedColors["white"],
		Palette:    DefaultPalette,
	}
}

type drawTarget struct {
	img draw.Image
	src image.Image
}

// Render returns a canvas-sized buffer filled with the background and every
// placement drawn in order, each clipped to its box.
func (r *Renderer) Render(placements []layout.Placement, canvas layout.Canvas) (*image.RGBA, error) {
	if err := canvas.Validate(); err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, canvas.Width, canvas.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)

	for _, p := range placements {
		if p.Box.Empty() {
			continue
		}
		tile := r.tile(p)
		if p.Rotation == layout.Rotate90 {
			tile = rotateCCW(tile)
		}
		box := image.Rect(p.Box.X, p.Box.Y, p.Box.X+p.Box.W, p.Box.Y+p.Box.H)
		clip := box.Intersect(img.Bounds())
		draw.Draw(img, clip, tile, clip.Min.Sub(box.Min), draw.Over)
	}
	return img, nil
}

func (r *Renderer) termColor(term string) color.RGBA {
	if r.Color != nil {
		return *r.Color
	}
	return paletteColor(r.Palette, term)
}

func (r *Renderer) tile(p layout.Placement) *image.RGBA {
	w, h := r.Fonts.Measure(p.Term, p.FontSize)
	tile := image.NewRGBA(image.Rect(0, 0, w, h))
	r.Fonts.draw(p.Term, p.FontSize, drawTarget{img: tile, src: image.NewUniform(r.termColor(p.Term))})
	return tile
}

// rotateCCW turns src a quarter turn counter-clockwise so text reads bottom to top.
func rotateCCW(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dst.SetRGBA(y, w-1-x, src.RGBAAt(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	return png.Encode(w, img)
}
