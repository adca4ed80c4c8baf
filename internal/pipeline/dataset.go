package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/weekcloud/internal/model"
)

// Dataset is an immutable snapshot of loaded reviews and posts. Runs share it
// without locking; nothing mutates it after NewDataset.
type Dataset struct {
	id      string
	records []model.Record
	posts   []model.Post
}

// NewDataset copies records and posts into a fresh snapshot.
func NewDataset(records []model.Record, posts []model.Post) *Dataset {
	ds := &Dataset{
		id:      uuid.NewString(),
		records: make([]model.Record, len(records)),
		posts:   make([]model.Post, len(posts)),
	}
	copy(ds.records, records)
	copy(ds.posts, posts)
	return ds
}

// ID identifies the snapshot; two loads of the same data get different ids.
func (d *Dataset) ID() string {
	return d.id
}

// Len returns the number of review records.
func (d *Dataset) Len() int {
	return len(d.records)
}

// Records returns a copy of the review records.
func (d *Dataset) Records() []model.Record {
	out := make([]model.Record, len(d.records))
	copy(out, d.records)
	return out
}

// Posts returns a copy of the posts.
func (d *Dataset) Posts() []model.Post {
	out := make([]model.Post, len(d.posts))
	copy(out, d.posts)
	return out
}

// Span returns the earliest and latest record timestamps.
func (d *Dataset) Span() (time.Time, time.Time, bool) {
	if len(d.records) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last := d.records[0].At, d.records[0].At
	for _, r := range d.records[1:] {
		if r.At.Before(first) {
			first = r.At
		}
		if r.At.After(last) {
			last = r.At
		}
	}
	return first, last, true
}
