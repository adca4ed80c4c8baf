// Package pipeline turns a dataset and a selected date into a rendered word cloud.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/weekcloud/internal/layout"
	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/render"
	"github.com/verte-zerg/weekcloud/internal/textnorm"
	"github.com/verte-zerg/weekcloud/internal/week"
	"github.com/verte-zerg/weekcloud/internal/wordfreq"
)

// ErrSuperseded is returned by Runner when a newer request replaced a run.
var ErrSuperseded = errors.New("run superseded by a newer request")

// Result is the output of one run. Table and Placements may be shared with
// the cache and must not be modified.
type Result struct {
	RunID      string
	Window     week.Window
	Stats      week.Stats
	Table      *wordfreq.Table
	Placements []layout.Placement
	Dropped    []string
	Truncated  int
	Image      *image.RGBA
}

// Options configures a Pipeline. Zero values pick defaults.
type Options struct {
	Canvas   layout.Canvas
	Bucketer week.Bucketer
	Store    FrequencyCache
	Logger   *slog.Logger
}

// Pipeline runs normalize → aggregate → layout → render for one week.
type Pipeline struct {
	norm     *textnorm.Normalizer
	engine   *layout.Engine
	renderer *render.Renderer
	canvas   layout.Canvas
	bucketer week.Bucketer
	store    FrequencyCache
	cache    *Cache
	logger   *slog.Logger
}

// New validates the canvas and layout settings and returns a pipeline.
func New(norm *textnorm.Normalizer, engine *layout.Engine, renderer *render.Renderer, opts Options) (*Pipeline, error) {
	if norm == nil || engine == nil || renderer == nil {
		return nil, errors.New("pipeline: normalizer, engine and renderer are required")
	}
	if err := engine.Config().Validate(opts.Canvas); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		norm:     norm,
		engine:   engine,
		renderer: renderer,
		canvas:   opts.Canvas,
		bucketer: opts.Bucketer,
		store:    opts.Store,
		cache:    NewCache(),
		logger:   logger,
	}, nil
}

// Canvas returns the output size.
func (p *Pipeline) Canvas() layout.Canvas {
	return p.canvas
}

// Bucketer returns the week bucketer used for selections.
func (p *Pipeline) Bucketer() week.Bucketer {
	return p.bucketer
}

// Cache exposes the in-memory cache.
func (p *Pipeline) Cache() *Cache {
	return p.cache
}

// Run builds the cloud for the week containing date. An empty week yields an
// empty table and a background-only image.
func (p *Pipeline) Run(ctx context.Context, ds *Dataset, date time.Time) (Result, error) {
	start := time.Now()
	res := Result{
		RunID:  uuid.NewString(),
		Window: p.bucketer.WindowFor(date),
	}
	logger := p.logger.With("run", res.RunID, "week", res.Window.Key())

	records := week.Filter(ds.records, res.Window)
	res.Stats = week.Summarize(records)

	key := ds.id + "/" + res.Window.Key()
	table, err := p.table(ctx, key, res.Window, records)
	if err != nil {
		return Result{}, err
	}
	res.Table = table

	placed, ok := p.cache.layout(key)
	if !ok {
		placed, err = p.engine.Layout(ctx, table, p.canvas)
		if err != nil {
			return Result{}, fmt.Errorf("layout: %w", err)
		}
		p.cache.putLayout(key, placed)
	}
	res.Placements = placed.Placements
	res.Dropped = placed.Dropped
	res.Truncated = placed.Truncated
	if len(res.Dropped) > 0 {
		logger.Debug("terms dropped", "terms", res.Dropped)
	}

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	img, err := p.renderer.Render(res.Placements, p.canvas)
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}
	res.Image = img

	logger.Debug("run complete",
		"records", res.Stats.Count,
		"terms", table.Len(),
		"placed", len(res.Placements),
		"dropped", len(res.Dropped),
		"duration", time.Since(start),
	)
	return res, nil
}

func (p *Pipeline) table(ctx context.Context, key string, w week.Window, records []model.Record) (*wordfreq.Table, error) {
	if t, ok := p.cache.table(key); ok {
		return t, nil
	}
	fingerprint := p.norm.Fingerprint()
	if p.store != nil {
		entries, ok, err := p.store.LoadTermCounts(ctx, fingerprint, w.Key())
		if err != nil {
			p.logger.Warn("load cached term counts", "week", w.Key(), "err", err)
		} else if ok {
			t := wordfreq.FromEntries(entries)
			p.cache.putTable(key, t)
			return t, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t := wordfreq.Aggregate(records, p.norm)
	if p.store != nil {
		if err := p.store.SaveTermCounts(ctx, fingerprint, w.Key(), t.Entries()); err != nil {
			p.logger.Warn("save term counts", "week", w.Key(), "err", err)
		}
	}
	p.cache.putTable(key, t)
	return t, nil
}
