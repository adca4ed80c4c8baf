package pipeline

import (
	"context"
	"sync"
	"time"
)

// Runner serializes selections with last-request-wins semantics: starting a
// run cancels the one in flight, and the cancelled caller gets ErrSuperseded.
type Runner struct {
	p      *Pipeline
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

// NewRunner wraps p.
func NewRunner(p *Pipeline) *Runner {
	return &Runner{p: p}
}

// Pipeline returns the wrapped pipeline.
func (r *Runner) Pipeline() *Pipeline {
	return r.p
}

// Run supersedes any in-flight run and executes a new one.
func (r *Runner) Run(ctx context.Context, ds *Dataset, date time.Time) (Result, error) {
	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.seq++
	seq := r.seq
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		if r.seq == seq {
			r.cancel = nil
		}
		r.mu.Unlock()
		cancel()
	}()

	res, err := r.p.Run(runCtx, ds, date)
	if !r.latest(seq) {
		return Result{}, ErrSuperseded
	}
	return res, err
}

// Cancel aborts the in-flight run, if any.
func (r *Runner) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Runner) latest(seq uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seq == seq
}
