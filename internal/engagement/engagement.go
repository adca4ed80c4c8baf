// Package engagement summarizes social post metrics over recent frames.
package engagement

import (
	"fmt"
	"sort"
	"strings"

	"github.com/verte-zerg/weekcloud/internal/model"
)

// Frame selects the most recent posts.
type Frame string

// Frames.
const (
	FrameAll   Frame = "all"
	FrameWeek  Frame = "week"
	FrameMonth Frame = "month"
)

// Frames lists every frame in display order.
func Frames() []Frame {
	return []Frame{FrameAll, FrameWeek, FrameMonth}
}

// ParseFrame accepts all, week or month.
func ParseFrame(s string) (Frame, error) {
	switch f := Frame(strings.ToLower(strings.TrimSpace(s))); f {
	case FrameAll, FrameWeek, FrameMonth:
		return f, nil
	case "":
		return FrameAll, nil
	default:
		return "", fmt.Errorf("unknown frame %q (want all, week or month)", s)
	}
}

// Size is the number of trailing posts in the frame; 0 means all posts.
func (f Frame) Size() int {
	switch f {
	case FrameWeek:
		return 7
	case FrameMonth:
		return 30
	default:
		return 0
	}
}

// Label is the display name of the frame.
func (f Frame) Label() string {
	switch f {
	case FrameWeek:
		return "Last 7 Days"
	case FrameMonth:
		return "Last 30 Days"
	default:
		return "All Time"
	}
}

// Next cycles through Frames.
func (f Frame) Next() Frame {
	frames := Frames()
	for i, fr := range frames {
		if fr == f {
			return frames[(i+1)%len(frames)]
		}
	}
	return FrameAll
}

var weekdayNames = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// WeekdayName maps 1..7 to Monday..Sunday.
func WeekdayName(d int) string {
	if d < 1 || d > 7 {
		return fmt.Sprintf("day %d", d)
	}
	return weekdayNames[d-1]
}

// Totals are frame-wide sums. Rate is engaged users per reach, in percent.
type Totals struct {
	Posts        int
	Reach        int64
	EngagedUsers int64
	Rate         float64
}

// Change compares a frame to the preceding frame of the same size. Reach and
// EngagedUsers are relative changes in percent; Rate is in percentage points.
type Change struct {
	Reach        float64
	EngagedUsers float64
	Rate         float64
}

// Slice is one group of a group-by.
type Slice struct {
	Label string
	Value float64
}

// PostRate is one post with its engagement rate. Index is the position in
// the full dataset.
type PostRate struct {
	Index        int
	Type         string
	Reach        int64
	EngagedUsers int64
	Rate         float64
}

// Summary is everything the dashboard shows for one frame.
type Summary struct {
	Frame  Frame
	Totals Totals
	// Change is nil for FrameAll or when there is no full preceding frame.
	Change    *Change
	ByType    []Slice // total interactions per post type
	ByWeekday []Slice // engaged users summed per weekday, Monday first
	ByHour    []Slice // mean engaged users per posting hour
	TopPosts  []PostRate
}

// Window splits posts into the frame and the equally sized frame before it.
func Window(posts []model.Post, frame Frame) (current, previous []model.Post, offset int) {
	n := frame.Size()
	if n == 0 || n >= len(posts) {
		return posts, nil, 0
	}
	offset = len(posts) - n
	current = posts[offset:]
	if offset >= n {
		previous = posts[offset-n : offset]
	}
	return current, previous, offset
}

// Summarize computes the dashboard for frame. topN limits TopPosts.
func Summarize(posts []model.Post, frame Frame, topN int) Summary {
	current, previous, offset := Window(posts, frame)
	s := Summary{
		Frame:     frame,
		Totals:    totals(current),
		ByType:    byType(current),
		ByWeekday: byWeekday(current),
		ByHour:    byHour(current),
		TopPosts:  topPosts(current, offset, topN),
	}
	if frame != FrameAll && len(previous) > 0 {
		prev := totals(previous)
		s.Change = &Change{
			Reach:        percentChange(float64(s.Totals.Reach), float64(prev.Reach)),
			EngagedUsers: percentChange(float64(s.Totals.EngagedUsers), float64(prev.EngagedUsers)),
			Rate:         s.Totals.Rate - prev.Rate,
		}
	}
	return s
}

// Rate returns engaged/reach*100, or 0 when reach is 0.
func Rate(engaged, reach int64) float64 {
	if reach <= 0 {
		return 0
	}
	return float64(engaged) / float64(reach) * 100
}

func totals(posts []model.Post) Totals {
	t := Totals{Posts: len(posts)}
	for _, p := range posts {
		t.Reach += p.Reach
		t.EngagedUsers += p.EngagedUsers
	}
	t.Rate = Rate(t.EngagedUsers, t.Reach)
	return t
}

func percentChange(cur, prev float64) float64 {
	if prev == 0 {
		return 0
	}
	return (cur - prev) / prev * 100
}

func byType(posts []model.Post) []Slice {
	sums := map[string]float64{}
	for _, p := range posts {
		sums[p.Type] += float64(p.Interactions)
	}
	out := make([]Slice, 0, len(sums))
	for label, v := range sums {
		out = append(out, Slice{Label: label, Value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func byWeekday(posts []model.Post) []Slice {
	var sums [8]float64
	var seen [8]bool
	for _, p := range posts {
		if p.Weekday < 1 || p.Weekday > 7 {
			continue
		}
		sums[p.Weekday] += float64(p.EngagedUsers)
		seen[p.Weekday] = true
	}
	var out []Slice
	for d := 1; d <= 7; d++ {
		if seen[d] {
			out = append(out, Slice{Label: WeekdayName(d), Value: sums[d]})
		}
	}
	return out
}

func byHour(posts []model.Post) []Slice {
	sums := map[int]float64{}
	counts := map[int]int{}
	for _, p := range posts {
		sums[p.Hour] += float64(p.EngagedUsers)
		counts[p.Hour]++
	}
	hours := make([]int, 0, len(sums))
	for h := range sums {
		hours = append(hours, h)
	}
	sort.Ints(hours)
	out := make([]Slice, 0, len(hours))
	for _, h := range hours {
		out = append(out, Slice{Label: fmt.Sprintf("%02d", h), Value: sums[h] / float64(counts[h])})
	}
	return out
}

func topPosts(posts []model.Post, offset, n int) []PostRate {
	out := make([]PostRate, 0, len(posts))
	for i, p := range posts {
		out = append(out, PostRate{
			Index:        offset + i,
			Type:         p.Type,
			Reach:        p.Reach,
			EngagedUsers: p.EngagedUsers,
			Rate:         Rate(p.EngagedUsers, p.Reach),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rate > out[j].Rate
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// FormatChange renders a change like "+5.2% vs last period".
func FormatChange(v float64, points bool) string {
	unit := "%"
	if points {
		unit = " pp"
	}
	return fmt.Sprintf("%+.1f%s vs last period", v, unit)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
