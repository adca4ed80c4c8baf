package render

import (
	"fmt"
	"os"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// FontSet holds one parsed TrueType font and caches a face per pixel size.
// Faces are not safe for concurrent use, so every access goes through mu.
type FontSet struct {
	font  *truetype.Font
	mu    sync.Mutex
	faces map[int]font.Face
}

// LoadFont parses the TTF at path, or the embedded Go Regular font when path
// is empty.
func LoadFont(path string) (*FontSet, error) {
	data := goregular.TTF
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read font: %w", err)
		}
		data = raw
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}
	return &FontSet{font: f, faces: make(map[int]font.Face)}, nil
}

// face must be called with mu held.
func (fs *FontSet) face(size int) font.Face {
	if face, ok := fs.faces[size]; ok {
		return face
	}
	face := truetype.NewFace(fs.font, &truetype.Options{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	fs.faces[size] = face
	return face
}

// Measure returns the pixel box of term at size. The box covers the line
// height and the advance, widened to any glyph ink that overhangs them.
func (fs *FontSet) Measure(term string, size int) (int, int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, w, h := extent(fs.face(size), term)
	return w, h
}

// extent returns the tile size for term and the dot that places its baseline
// inside the tile.
func extent(face font.Face, term string) (fixed.Point26_6, int, int) {
	m := face.Metrics()
	bounds, advance := font.BoundString(face, term)
	minX, maxX := min(bounds.Min.X, 0), max(bounds.Max.X, advance)
	minY, maxY := min(bounds.Min.Y, -m.Ascent), max(bounds.Max.Y, m.Descent)
	// Snap the origin to whole pixels so the drawn tile matches the box.
	fx, fy := fixed.I(minX.Floor()), fixed.I(minY.Floor())
	return fixed.Point26_6{X: -fx, Y: -fy}, (maxX - fx).Ceil(), (maxY - fy).Ceil()
}

// draw rasterizes term at size into an unrotated tile laid out by extent.
func (fs *FontSet) draw(term string, size int, dst drawTarget) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	face := fs.face(size)
	dot, _, _ := extent(face, term)
	d := font.Drawer{
		Dst:  dst.img,
		Src:  dst.src,
		Face: face,
		Dot:  dot,
	}
	d.DrawString(term)
}

// Close releases cached faces.
func (fs *FontSet) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	for size, face := range fs.faces {
		_ = face.Close()
		delete(fs.faces, size)
	}
	return nil
}
