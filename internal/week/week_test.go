package week

import (
	"testing"
	"time"

	"github.com/verte-zerg/weekcloud/internal/model"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWindowForMondayAligned(t *testing.T) {
	b := NewBucketer()
	w := b.WindowFor(day(2024, 1, 2).Add(15 * time.Hour))
	if !w.Start.Equal(day(2024, 1, 1)) || !w.End.Equal(day(2024, 1, 8)) {
		t.Fatalf("unexpected window %s", w)
	}
	if w.Key() != "2024-W01" {
		t.Fatalf("unexpected key %s", w.Key())
	}
	if w.String() != "2024-01-01..2024-01-07" {
		t.Fatalf("unexpected string %s", w.String())
	}
	sunday := b.WindowFor(day(2024, 1, 7).Add(23*time.Hour + 59*time.Minute))
	if sunday != w {
		t.Fatalf("expected sunday to fall in the same week, got %s", sunday)
	}
	monday := b.WindowFor(day(2024, 1, 8))
	if monday != w.Next() || monday.Prev() != w {
		t.Fatalf("expected monday to start the next week, got %s", monday)
	}
}

func TestWindowTiling(t *testing.T) {
	b := NewBucketer()
	start := day(2023, 12, 20)
	prev := b.WindowFor(start)
	for h := 0; h < 24*40; h += 5 {
		ts := start.Add(time.Duration(h) * time.Hour)
		w := b.WindowFor(ts)
		if !w.Contains(ts) {
			t.Fatalf("window %s does not contain %s", w, ts)
		}
		if w.End.Sub(w.Start) != 7*24*time.Hour {
			t.Fatalf("expected 7 day window, got %s", w.End.Sub(w.Start))
		}
		if w != prev {
			if !w.Start.Equal(prev.End) {
				t.Fatalf("gap or overlap between %s and %s", prev, w)
			}
			prev = w
		}
	}
}

func TestWindowForOtherLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	b := Bucketer{Location: loc}
	// Sunday 20:00 UTC is Monday 05:00 in UTC+9.
	w := b.WindowFor(time.Date(2024, 1, 7, 20, 0, 0, 0, time.UTC))
	if w.Start.Day() != 8 || w.Start.Location() != loc {
		t.Fatalf("unexpected window in location: %s", w)
	}
}

func TestFilterAndSummarize(t *testing.T) {
	records := []model.Record{
		{At: day(2023, 12, 31), Text: "before", Score: 1},
		{At: day(2024, 1, 2), Text: "good app good", Score: 5},
		{At: day(2024, 1, 8), Text: "after", Score: 1},
		{At: day(2024, 1, 3), Text: "bad app", Score: 2},
		{At: day(2024, 1, 1), Text: "edge", Score: 4},
	}
	w := NewBucketer().WindowFor(day(2024, 1, 2))
	got := Filter(records, w)
	if len(got) != 3 {
		t.Fatalf("expected 3 records, got %d", len(got))
	}
	if got[0].Text != "good app good" || got[1].Text != "bad app" || got[2].Text != "edge" {
		t.Fatalf("expected original order, got %+v", got)
	}
	stats := Summarize(got)
	if stats.Count != 3 || stats.MeanScore != 11.0/3.0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestFilterOutsideRange(t *testing.T) {
	records := []model.Record{{At: day(2024, 1, 2), Text: "x"}}
	w := NewBucketer().WindowFor(day(2030, 6, 1))
	if got := Filter(records, w); len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
	if stats := Summarize(nil); stats.Count != 0 || stats.MeanScore != 0 {
		t.Fatalf("expected zero stats, got %+v", stats)
	}
}

func TestWeeks(t *testing.T) {
	records := []model.Record{
		{At: day(2024, 1, 10), Score: 4},
		{At: day(2024, 1, 2), Score: 5},
		{At: day(2024, 1, 3), Score: 1},
	}
	weeks := NewBucketer().Weeks(records)
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
	if weeks[0].Key != "2024-W01" || weeks[0].Count != 2 || weeks[0].MeanScore != 3 {
		t.Fatalf("unexpected first week %+v", weeks[0])
	}
	if weeks[1].Key != "2024-W02" || weeks[1].Count != 1 {
		t.Fatalf("unexpected second week %+v", weeks[1])
	}
}
