// Package wordfreq counts term occurrences across review records.
package wordfreq

import (
	"sort"

	"github.com/verte-zerg/weekcloud/internal/model"
)

// Normalizer turns text into terms.
type Normalizer interface {
	Normalize(text string) []string
}

// Entry is one term with its occurrence count.
type Entry struct {
	Term  string `yaml:"term"`
	Count int    `yaml:"count"`
}

// Table maps terms to positive counts and remembers first-seen order.
type Table struct {
	order  []string
	counts map[string]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{counts: map[string]int{}}
}

// Aggregate normalizes every record and counts all resulting terms.
func Aggregate(records []model.Record, n Normalizer) *Table {
	t := NewTable()
	for _, rec := range records {
		for _, term := range n.Normalize(rec.Text) {
			t.Add(term, 1)
		}
	}
	return t
}

// FromEntries rebuilds a table; entry order becomes first-seen order.
// Entries with non-positive counts are ignored.
func FromEntries(entries []Entry) *Table {
	t := NewTable()
	for _, e := range entries {
		t.Add(e.Term, e.Count)
	}
	return t
}

// Add increases the count of term by delta. Non-positive deltas and empty terms are ignored.
func (t *Table) Add(term string, delta int) {
	if term == "" || delta <= 0 {
		return
	}
	if _, ok := t.counts[term]; !ok {
		t.order = append(t.order, term)
	}
	t.counts[term] += delta
}

// Count returns the count for term, 0 when absent.
func (t *Table) Count(term string) int {
	return t.counts[term]
}

// Len returns the number of distinct terms.
func (t *Table) Len() int {
	return len(t.order)
}

// Total returns the sum of all counts.
func (t *Table) Total() int {
	total := 0
	for _, c := range t.counts {
		total += c
	}
	return total
}

// Max returns the highest count, 0 for an empty table.
func (t *Table) Max() int {
	maxCount := 0
	for _, c := range t.counts {
		if c > maxCount {
			maxCount = c
		}
	}
	return maxCount
}

// Terms returns terms in first-seen order.
func (t *Table) Terms() []string {
	return append([]string(nil), t.order...)
}

// Entries returns entries sorted by descending count; ties keep first-seen order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.order))
	for i, term := range t.order {
		out[i] = Entry{Term: term, Count: t.counts[term]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Top returns the first n entries of Entries; n <= 0 returns all.
func (t *Table) Top(n int) []Entry {
	entries := t.Entries()
	if n > 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}
