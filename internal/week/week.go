// Package week buckets records into ISO calendar weeks.
package week

import (
	"fmt"
	"sort"
	"time"

	"github.com/verte-zerg/weekcloud/internal/model"
)

const days = 7

// Window is the half-open interval [Start, End) of one calendar week.
type Window struct {
	Start time.Time
	End   time.Time
}

// Key returns the ISO week label, e.g. 2024-W01.
func (w Window) Key() string {
	year, wk := w.Start.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, wk)
}

// String renders the inclusive date range of the week.
func (w Window) String() string {
	last := w.End.AddDate(0, 0, -1)
	return fmt.Sprintf("%s..%s", w.Start.Format("2006-01-02"), last.Format("2006-01-02"))
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Next returns the following week.
func (w Window) Next() Window {
	return Window{Start: w.End, End: w.End.AddDate(0, 0, days)}
}

// Prev returns the preceding week.
func (w Window) Prev() Window {
	return Window{Start: w.Start.AddDate(0, 0, -days), End: w.Start}
}

// Stats summarizes the records of a window.
type Stats struct {
	Count     int
	MeanScore float64
}

// Bucketer aligns weeks to Monday 00:00 in Location.
type Bucketer struct {
	Location *time.Location
}

// NewBucketer returns a UTC bucketer.
func NewBucketer() Bucketer {
	return Bucketer{Location: time.UTC}
}

func (b Bucketer) loc() *time.Location {
	if b.Location == nil {
		return time.UTC
	}
	return b.Location
}

// WindowFor returns the week containing t.
func (b Bucketer) WindowFor(t time.Time) Window {
	local := t.In(b.loc())
	offset := (int(local.Weekday()) + 6) % days // Monday = 0
	start := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, b.loc())
	return Window{Start: start, End: start.AddDate(0, 0, days)}
}

// Filter returns records inside w, preserving order.
func Filter(records []model.Record, w Window) []model.Record {
	var out []model.Record
	for _, rec := range records {
		if w.Contains(rec.At) {
			out = append(out, rec)
		}
	}
	return out
}

// Summarize computes record count and mean score.
func Summarize(records []model.Record) Stats {
	if len(records) == 0 {
		return Stats{}
	}
	var sum float64
	for _, rec := range records {
		sum += rec.Score
	}
	return Stats{Count: len(records), MeanScore: sum / float64(len(records))}
}

// Weeks lists populated weeks in chronological order.
func (b Bucketer) Weeks(records []model.Record) []model.WeekSummary {
	type acc struct {
		window Window
		count  int
		sum    float64
	}
	byStart := map[int64]*acc{}
	var starts []int64
	for _, rec := range records {
		w := b.WindowFor(rec.At)
		key := w.Start.Unix()
		a, ok := byStart[key]
		if !ok {
			a = &acc{window: w}
			byStart[key] = a
			starts = append(starts, key)
		}
		a.count++
		a.sum += rec.Score
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	out := make([]model.WeekSummary, 0, len(starts))
	for _, key := range starts {
		a := byStart[key]
		out = append(out, model.WeekSummary{
			Key:       a.window.Key(),
			Start:     a.window.Start,
			End:       a.window.End,
			Count:     a.count,
			MeanScore: a.sum / float64(a.count),
		})
	}
	return out
}
