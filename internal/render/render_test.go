package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/verte-zerg/weekcloud/internal/layout"
	"github.com/verte-zerg/weekcloud/internal/wordfreq"
)

func loadTestFont(t *testing.T) *FontSet {
	t.Helper()
	fonts, err := LoadFont("")
	if err != nil {
		t.Fatalf("LoadFont failed: %v", err)
	}
	t.Cleanup(func() { _ = fonts.Close() })
	return fonts
}

func TestFontSetMeasure(t *testing.T) {
	fonts := loadTestFont(t)
	w1, h1 := fonts.Measure("cloud", 12)
	w2, h2 := fonts.Measure("cloud", 48)
	if w1 <= 0 || h1 <= 0 {
		t.Fatalf("expected positive size, got %dx%d", w1, h1)
	}
	if w2 <= w1 || h2 <= h1 {
		t.Fatalf("expected larger box at larger size: %dx%d vs %dx%d", w2, h2, w1, h1)
	}
	if w, _ := fonts.Measure("", 12); w != 0 {
		t.Fatalf("expected zero width for empty term, got %d", w)
	}
}

func TestFontSetBoxCoversInk(t *testing.T) {
	fonts := loadTestFont(t)
	const pad = 20
	for _, term := range []string{"jiffy", "fj", "Wave", "quick", "T"} {
		for _, size := range []int{12, 48} {
			w, h := fonts.Measure(term, size)
			// The padded tile shares the coordinate space of a w x h tile, so
			// anything drawn outside [0,w) x [0,h) would be clipped in a render.
			tile := image.NewRGBA(image.Rect(-pad, -pad, w+pad, h+pad))
			fonts.draw(term, size, drawTarget{img: tile, src: image.NewUniform(color.Black)})
			for y := -pad; y < h+pad; y++ {
				for x := -pad; x < w+pad; x++ {
					if tile.RGBAAt(x, y).A == 0 {
						continue
					}
					if x < 0 || y < 0 || x >= w || y >= h {
						t.Fatalf("%q at %d: ink at %d,%d outside %dx%d box", term, size, x, y, w, h)
					}
				}
			}
		}
	}
}

func TestLoadFontMissingFile(t *testing.T) {
	if _, err := LoadFont("/nonexistent/font.ttf"); err == nil {
		t.Fatalf("expected error for missing font")
	}
}

func TestRenderBackgroundOnly(t *testing.T) {
	r := NewRenderer(loadTestFont(t))
	img, err := r.Render(nil, layout.Canvas{Width: 30, Height: 20})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if img.Bounds().Dx() != 30 || img.Bounds().Dy() != 20 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
	for y := 0; y < 20; y++ {
		for x := 0; x < 30; x++ {
			if img.RGBAAt(x, y) != r.Background {
				t.Fatalf("expected background at %d,%d", x, y)
			}
		}
	}
}

func TestRenderInvalidCanvas(t *testing.T) {
	r := NewRenderer(loadTestFont(t))
	img, err := r.Render(nil, layout.Canvas{Width: 0, Height: 10})
	if !errors.Is(err, layout.ErrInvalidCanvas) || img != nil {
		t.Fatalf("expected ErrInvalidCanvas and no buffer, got %v", err)
	}
}

func TestRenderInkStaysInBoxes(t *testing.T) {
	fonts := loadTestFont(t)
	table := wordfreq.NewTable()
	table.Add("weekly", 9)
	table.Add("reviews", 5)
	table.Add("cloud", 3)
	table.Add("app", 2)
	cfg := layout.DefaultConfig()
	cfg.PreferHorizontal = 0.5
	canvas := layout.Canvas{Width: 200, Height: 120}
	res, err := layout.NewEngine(cfg, fonts).Layout(context.Background(), table, canvas)
	if err != nil {
		t.Fatalf("Layout failed: %v", err)
	}
	if len(res.Placements) == 0 {
		t.Fatalf("expected placements")
	}
	r := NewRenderer(fonts)
	img, err := r.Render(res.Placements, canvas)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	ink := 0
	for y := 0; y < canvas.Height; y++ {
		for x := 0; x < canvas.Width; x++ {
			if img.RGBAAt(x, y) == r.Background {
				continue
			}
			ink++
			inside := false
			for _, p := range res.Placements {
				b := p.Box
				if x >= b.X && x < b.X+b.W && y >= b.Y && y < b.Y+b.H {
					inside = true
					break
				}
			}
			if !inside {
				t.Fatalf("ink outside every box at %d,%d", x, y)
			}
		}
	}
	if ink == 0 {
		t.Fatalf("expected some ink")
	}
}

func TestRenderFixedColor(t *testing.T) {
	fonts := loadTestFont(t)
	red := color.RGBA{R: 255, A: 255}
	r := NewRenderer(fonts)
	r.Color = &red
	w, h := fonts.Measure("X", 40)
	p := layout.Placement{Term: "X", FontSize: 40, Box: layout.Rect{X: 0, Y: 0, W: w, H: h}}
	img, err := r.Render([]layout.Placement{p}, layout.Canvas{Width: w, Height: h})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	found := false
	for y := 0; y < h && !found; y++ {
		for x := 0; x < w; x++ {
			if img.RGBAAt(x, y) == red {
				found = true
				break
			}
		}
	}
	if !found {
		t.Fatalf("expected fully red pixels")
	}
}

func TestRotateCCW(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3, 2))
	mark := color.RGBA{R: 1, A: 255}
	src.SetRGBA(2, 0, mark)
	dst := rotateCCW(src)
	if dst.Bounds().Dx() != 2 || dst.Bounds().Dy() != 3 {
		t.Fatalf("unexpected rotated bounds %v", dst.Bounds())
	}
	if dst.RGBAAt(0, 0) != mark {
		t.Fatalf("expected top-right pixel to move to top-left")
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"white":     {255, 255, 255, 255},
		"#000":      {0, 0, 0, 255},
		"#ff8000":   {255, 128, 0, 255},
		"#10203080": {8, 16, 24, 128},
		"#10203040": {4, 8, 12, 64},
		"#ff000000": {0, 0, 0, 0},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil || got != want {
			t.Fatalf("ParseColor(%q) = %v, %v", in, got, err)
		}
	}
	for _, bad := range []string{"", "ffffff", "abc", "102030ff", "#12", "#zzzzzz"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestPaletteColorDeterministic(t *testing.T) {
	if paletteColor(nil, "app") != paletteColor(DefaultPalette, "app") {
		t.Fatalf("expected stable palette colour")
	}
}

func TestEncodePNG(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	var buf bytes.Buffer
	if err := EncodePNG(&buf, img); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	decoded, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Fatalf("unexpected bounds %v", decoded.Bounds())
	}
}

func TestPreviewLines(t *testing.T) {
	white := color.RGBA{255, 255, 255, 255}
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, white)
		}
	}
	lines := PreviewLines(img, 4, 2, white, false)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	blank := string(brailleFromMask(0))
	if lines[0] != strings.Repeat(blank, 4) {
		t.Fatalf("expected blank preview, got %q", lines[0])
	}
	img.SetRGBA(0, 0, color.RGBA{A: 255})
	lines = PreviewLines(img, 4, 2, white, false)
	if []rune(lines[0])[0] != brailleFromMask(0x01) {
		t.Fatalf("expected top-left dot, got %q", lines[0])
	}
	colored := PreviewLines(img, 4, 2, white, true)
	if !strings.Contains(colored[0], "\x1b[38;5;16m") {
		t.Fatalf("expected xterm colour code, got %q", colored[0])
	}
}

func TestShouldUseColorNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ShouldUseColor(&bytes.Buffer{}, true) {
		t.Fatalf("NO_COLOR must disable colour")
	}
	t.Setenv("NO_COLOR", "")
	if !ShouldUseColor(&bytes.Buffer{}, true) {
		t.Fatalf("force must enable colour")
	}
	if ShouldUseColor(&bytes.Buffer{}, false) {
		t.Fatalf("buffers are not terminals")
	}
}

func TestDotGridLine(t *testing.T) {
	g := NewDotGrid(2, 1)
	g.Line(0, 0, 3, 3, -1)
	lines := g.Lines(false)
	want := string(brailleFromMask(0x01|0x10)) + string(brailleFromMask(0x04|0x80))
	if lines[0] != want {
		t.Fatalf("unexpected line rendering %q, want %q", lines[0], want)
	}
}
