// Package layout places weighted terms on a canvas without overlaps.
//
// Terms are processed by descending count. Each term gets a font size from a
// monotonic scaling of count/maxCount and is then searched for along an
// Archimedean spiral that starts at the canvas center (or at a seeded
// pseudo-random point). A term that does not fit is retried at smaller sizes
// and dropped once it falls below the minimum font size.
package layout

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"math/rand"
	"unicode/utf8"

	"github.com/verte-zerg/weekcloud/internal/wordfreq"
)

var (
	// ErrInvalidCanvas is returned for non-positive canvas dimensions.
	ErrInvalidCanvas = errors.New("invalid canvas dimensions")
	// ErrInvalidConfig is returned for inconsistent layout settings.
	ErrInvalidConfig = errors.New("invalid layout config")
)

// Rotation is the orientation of a placed term.
type Rotation int

const (
	Rotate0  Rotation = 0
	Rotate90 Rotation = 90 // counter-clockwise, text reads bottom to top
)

// Scaling names.
const (
	ScalingLinear = "linear"
	ScalingSqrt   = "sqrt"
	ScalingLog    = "log"
)

// Canvas is the pixel size of the output image.
type Canvas struct {
	Width  int
	Height int
}

// Validate rejects non-positive dimensions.
func (c Canvas) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidCanvas, c.Width, c.Height)
	}
	return nil
}

// Measurer reports the unrotated pixel box of term at a font size.
type Measurer interface {
	Measure(term string, size int) (width, height int)
}

// Config controls sizing and search.
type Config struct {
	MinFontSize int
	// MaxFontSize of 0 means half the canvas height.
	MaxFontSize      int
	FontStep         int
	MaxWords         int
	Scaling          string
	Margin           int
	PreferHorizontal float64
	RandomStart      bool
	Seed             int64
	SpiralStep       float64
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		MinFontSize:      10,
		FontStep:         2,
		MaxWords:         200,
		Scaling:          ScalingSqrt,
		Margin:           2,
		PreferHorizontal: 0.9,
		SpiralStep:       2,
	}
}

func (c Config) resolve(canvas Canvas) (Config, error) {
	if c.MaxFontSize == 0 {
		c.MaxFontSize = maxInt(c.MinFontSize, canvas.Height/2)
	}
	switch {
	case c.MinFontSize < 1:
		return c, fmt.Errorf("%w: min font size must be >= 1", ErrInvalidConfig)
	case c.MaxFontSize < c.MinFontSize:
		return c, fmt.Errorf("%w: max font size %d < min font size %d", ErrInvalidConfig, c.MaxFontSize, c.MinFontSize)
	case c.FontStep < 1:
		return c, fmt.Errorf("%w: font step must be >= 1", ErrInvalidConfig)
	case c.MaxWords < 0:
		return c, fmt.Errorf("%w: max words must be >= 0", ErrInvalidConfig)
	case c.Margin < 0:
		return c, fmt.Errorf("%w: margin must be >= 0", ErrInvalidConfig)
	case c.PreferHorizontal < 0 || c.PreferHorizontal > 1:
		return c, fmt.Errorf("%w: prefer horizontal must be between 0 and 1", ErrInvalidConfig)
	case c.SpiralStep <= 0:
		return c, fmt.Errorf("%w: spiral step must be > 0", ErrInvalidConfig)
	}
	switch c.Scaling {
	case "":
		c.Scaling = ScalingSqrt
	case ScalingLinear, ScalingSqrt, ScalingLog:
	default:
		return c, fmt.Errorf("%w: unknown scaling %q", ErrInvalidConfig, c.Scaling)
	}
	return c, nil
}

// Validate checks the config against a canvas without laying anything out.
func (c Config) Validate(canvas Canvas) error {
	if err := canvas.Validate(); err != nil {
		return err
	}
	_, err := c.resolve(canvas)
	return err
}

// Placement is one term positioned on the canvas. X and Y are the top-left
// corner of Box.
type Placement struct {
	Term     string   `yaml:"term"`
	Count    int      `yaml:"count"`
	FontSize int      `yaml:"font_size"`
	Rotation Rotation `yaml:"rotation"`
	X        int      `yaml:"x"`
	Y        int      `yaml:"y"`
	Box      Rect     `yaml:"box"`
}

// Result holds the placements in output order and the terms that did not fit.
type Result struct {
	Placements []Placement
	Dropped    []string
	// Truncated counts terms skipped by MaxWords.
	Truncated int
}

// Engine lays out frequency tables. It holds no per-run state.
type Engine struct {
	cfg     Config
	measure Measurer
}

// NewEngine returns an engine using m for text boxes.
func NewEngine(cfg Config, m Measurer) *Engine {
	return &Engine{cfg: cfg, measure: m}
}

// Config returns the engine settings.
func (e *Engine) Config() Config {
	return e.cfg
}

// Layout places the terms of table on canvas. Identical inputs give identical
// results. A cancelled ctx aborts between terms and no partial result is returned.
func (e *Engine) Layout(ctx context.Context, table *wordfreq.Table, canvas Canvas) (Result, error) {
	if err := canvas.Validate(); err != nil {
		return Result{}, err
	}
	cfg, err := e.cfg.resolve(canvas)
	if err != nil {
		return Result{}, err
	}
	if e.measure == nil {
		return Result{}, fmt.Errorf("%w: measurer is required", ErrInvalidConfig)
	}

	var res Result
	entries := table.Entries()
	if cfg.MaxWords > 0 && len(entries) > cfg.MaxWords {
		res.Truncated = len(entries) - cfg.MaxWords
		entries = entries[:cfg.MaxWords]
	}
	if len(entries) == 0 {
		return res, nil
	}

	occ := NewOccupancy(canvas.Width, canvas.Height)
	path := spiralPath(canvas, cfg.SpiralStep, cfg.RandomStart)
	maxCount := entries[0].Count
	lastSize := cfg.MaxFontSize
	var misses scanMisses

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		size := minInt(fontSize(cfg, entry.Count, maxCount), lastSize)
		rotations := rotationOrder(entry.Term, cfg)
		startX, startY := startPoint(entry.Term, canvas, cfg)

		placed := false
		for {
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			w, h := e.measure.Measure(entry.Term, size)
			box, rot, ok := search(occ, path, canvas, startX, startY, w, h, rotations, cfg.Margin)
			if !ok && size == cfg.MinFontSize {
				box, rot, ok = scan(occ, canvas, w, h, rotations, cfg.Margin, &misses)
			}
			if !ok {
				if size == cfg.MinFontSize {
					break
				}
				// The last attempt is always exactly MinFontSize.
				size = maxInt(size-cfg.FontStep, cfg.MinFontSize)
				continue
			}
			occ.Claim(box.Inset(cfg.Margin))
			res.Placements = append(res.Placements, Placement{
				Term:     entry.Term,
				Count:    entry.Count,
				FontSize: size,
				Rotation: rot,
				X:        box.X,
				Y:        box.Y,
				Box:      box,
			})
			lastSize = size
			placed = true
			break
		}
		if !placed {
			res.Dropped = append(res.Dropped, entry.Term)
		}
	}
	return res, nil
}

func fontSize(cfg Config, count, maxCount int) int {
	if maxCount <= 0 || count <= 0 {
		return cfg.MinFontSize
	}
	ratio := float64(count) / float64(maxCount)
	var scale float64
	switch cfg.Scaling {
	case ScalingLinear:
		scale = ratio
	case ScalingLog:
		scale = math.Log1p(float64(count)) / math.Log1p(float64(maxCount))
	default:
		scale = math.Sqrt(ratio)
	}
	scale = math.Max(0, math.Min(1, scale))
	return cfg.MinFontSize + int(math.Floor(float64(cfg.MaxFontSize-cfg.MinFontSize)*scale+1e-9))
}

func termHash(term string, seed int64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(term))
	return h.Sum64() ^ uint64(seed)
}

func rotationOrder(term string, cfg Config) []Rotation {
	switch {
	case cfg.PreferHorizontal >= 1:
		return []Rotation{Rotate0}
	case cfg.PreferHorizontal <= 0:
		return []Rotation{Rotate90}
	}
	frac := float64(termHash(term, cfg.Seed)%10000) / 10000
	if frac < cfg.PreferHorizontal {
		return []Rotation{Rotate0, Rotate90}
	}
	return []Rotation{Rotate90, Rotate0}
}

func startPoint(term string, canvas Canvas, cfg Config) (int, int) {
	if !cfg.RandomStart {
		return canvas.Width / 2, canvas.Height / 2
	}
	rnd := rand.New(rand.NewSource(int64(termHash(term, cfg.Seed))))
	return rnd.Intn(canvas.Width), rnd.Intn(canvas.Height)
}

type point struct {
	x, y int
}

// spiralPath returns integer offsets along an elliptical Archimedean spiral,
// stretched to the canvas aspect ratio, long enough to reach every pixel from
// the start point. Consecutive duplicates are removed.
func spiralPath(canvas Canvas, step float64, fromAnywhere bool) []point {
	aspect := float64(canvas.Width) / float64(canvas.Height)
	// x is stretched by aspect below, so in spiral units the canvas is a
	// Height x Height square and its diagonal reaches every pixel from any start.
	reach := math.Hypot(float64(canvas.Height), float64(canvas.Height))
	if !fromAnywhere {
		reach /= 2
	}
	reach += step
	b := step / (2 * math.Pi)
	stretch := math.Max(aspect, 1)

	path := []point{{0, 0}}
	theta := 0.0
	for {
		r := b * theta
		if r > reach {
			break
		}
		theta += step / math.Max(step, r*stretch)
		r = b * theta
		p := point{
			x: int(math.Round(aspect * r * math.Cos(theta))),
			y: int(math.Round(r * math.Sin(theta))),
		}
		if p != path[len(path)-1] {
			path = append(path, p)
		}
	}
	return path
}

func search(occ *Occupancy, path []point, canvas Canvas, cx, cy, w, h int, rotations []Rotation, margin int) (Rect, Rotation, bool) {
	fits := false
	for _, rot := range rotations {
		bw, bh := rotatedSize(w, h, rot)
		if bw > 0 && bh > 0 && bw <= canvas.Width && bh <= canvas.Height {
			fits = true
		}
	}
	if !fits {
		return Rect{}, Rotate0, false
	}
	for _, off := range path {
		px, py := cx+off.x, cy+off.y
		for _, rot := range rotations {
			bw, bh := rotatedSize(w, h, rot)
			if bw <= 0 || bh <= 0 {
				continue
			}
			box := Rect{X: px - bw/2, Y: py - bh/2, W: bw, H: bh}
			if !box.Within(canvas.Width, canvas.Height) {
				continue
			}
			if occ.Free(box.Inset(margin)) {
				return box, rot, true
			}
		}
	}
	return Rect{}, Rotate0, false
}

// scanMisses remembers box sizes a full scan found no room for. Claims only
// add pixels, so any box at least as large in both dimensions fails too.
type scanMisses []point

func (m scanMisses) covers(w, h int) bool {
	for _, p := range m {
		if w >= p.x && h >= p.y {
			return true
		}
	}
	return false
}

// scan tries every top-left corner in row-major order. It runs only after the
// spiral failed at the minimum size, so a dropped term has no free position.
func scan(occ *Occupancy, canvas Canvas, w, h int, rotations []Rotation, margin int, misses *scanMisses) (Rect, Rotation, bool) {
	for _, rot := range rotations {
		bw, bh := rotatedSize(w, h, rot)
		if bw <= 0 || bh <= 0 || bw > canvas.Width || bh > canvas.Height || misses.covers(bw, bh) {
			continue
		}
		for y := 0; y+bh <= canvas.Height; y++ {
			for x := 0; x+bw <= canvas.Width; x++ {
				box := Rect{X: x, Y: y, W: bw, H: bh}
				if occ.Free(box.Inset(margin)) {
					return box, rot, true
				}
			}
		}
		*misses = append(*misses, point{bw, bh})
	}
	return Rect{}, Rotate0, false
}

func rotatedSize(w, h int, rot Rotation) (int, int) {
	if rot == Rotate90 {
		return h, w
	}
	return w, h
}

// EstimateMeasurer approximates text boxes from character counts; useful
// when no font is loaded.
type EstimateMeasurer struct {
	CharWidth  float64 // fraction of font size per character
	LineHeight float64 // fraction of font size per line
}

// Measure implements Measurer.
func (m EstimateMeasurer) Measure(term string, size int) (int, int) {
	cw := m.CharWidth
	if cw <= 0 {
		cw = 0.6
	}
	lh := m.LineHeight
	if lh <= 0 {
		lh = 1.2
	}
	w := int(math.Ceil(float64(utf8.RuneCountInString(term)) * cw * float64(size)))
	h := int(math.Ceil(lh * float64(size)))
	return w, h
}
