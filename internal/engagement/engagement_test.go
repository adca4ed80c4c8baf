package engagement

import (
	"math"
	"testing"

	"github.com/verte-zerg/weekcloud/internal/model"
)

func makePosts(n int) []model.Post {
	posts := make([]model.Post, n)
	for i := range posts {
		posts[i] = model.Post{
			Type:         []string{"Photo", "Status", "Link"}[i%3],
			Weekday:      i%7 + 1,
			Hour:         i % 4,
			Reach:        100,
			EngagedUsers: int64(10 + i),
			Interactions: int64(i),
		}
	}
	return posts
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseFrame(t *testing.T) {
	for in, want := range map[string]Frame{"": FrameAll, "all": FrameAll, "Week": FrameWeek, " month ": FrameMonth} {
		got, err := ParseFrame(in)
		if err != nil || got != want {
			t.Fatalf("ParseFrame(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFrame("year"); err == nil {
		t.Fatalf("expected error for unknown frame")
	}
	if FrameAll.Next() != FrameWeek || FrameMonth.Next() != FrameAll {
		t.Fatalf("unexpected frame cycle")
	}
}

func TestSummarizeAll(t *testing.T) {
	posts := makePosts(10)
	s := Summarize(posts, FrameAll, 3)
	if s.Totals.Posts != 10 || s.Totals.Reach != 1000 || s.Totals.EngagedUsers != 145 {
		t.Fatalf("unexpected totals %+v", s.Totals)
	}
	if !near(s.Totals.Rate, 14.5) {
		t.Fatalf("expected rate 14.5, got %v", s.Totals.Rate)
	}
	if s.Change != nil {
		t.Fatalf("expected no change for all-time frame")
	}
	if len(s.TopPosts) != 3 || s.TopPosts[0].Index != 9 || !near(s.TopPosts[0].Rate, 19) {
		t.Fatalf("unexpected top posts %+v", s.TopPosts)
	}
}

func TestSummarizeWeekChange(t *testing.T) {
	posts := makePosts(14)
	s := Summarize(posts, FrameWeek, 0)
	if s.Totals.Posts != 7 {
		t.Fatalf("expected 7 posts, got %d", s.Totals.Posts)
	}
	// current engaged: 17..23 = 140, previous: 10..16 = 91
	if s.Totals.EngagedUsers != 140 {
		t.Fatalf("unexpected engaged users %d", s.Totals.EngagedUsers)
	}
	if s.Change == nil {
		t.Fatalf("expected change against previous week")
	}
	if !near(s.Change.Reach, 0) || !near(s.Change.EngagedUsers, (140.0-91.0)/91.0*100) || !near(s.Change.Rate, 20-13) {
		t.Fatalf("unexpected change %+v", s.Change)
	}
	if s.TopPosts[0].Index != 13 {
		t.Fatalf("expected dataset index for top post, got %d", s.TopPosts[0].Index)
	}
}

func TestSummarizeShortHistory(t *testing.T) {
	s := Summarize(makePosts(10), FrameWeek, 0)
	if s.Change != nil {
		t.Fatalf("expected no change without a full previous frame")
	}
	s = Summarize(makePosts(5), FrameMonth, 0)
	if s.Totals.Posts != 5 || s.Change != nil {
		t.Fatalf("expected whole dataset for short month, got %+v", s)
	}
}

func TestGroupBys(t *testing.T) {
	posts := []model.Post{
		{Type: "Photo", Weekday: 3, Hour: 10, EngagedUsers: 10, Interactions: 5},
		{Type: "Status", Weekday: 1, Hour: 10, EngagedUsers: 30, Interactions: 7},
		{Type: "Photo", Weekday: 3, Hour: 2, EngagedUsers: 5, Interactions: 4},
	}
	s := Summarize(posts, FrameAll, 0)
	if len(s.ByType) != 2 || s.ByType[0] != (Slice{Label: "Photo", Value: 9}) || s.ByType[1] != (Slice{Label: "Status", Value: 7}) {
		t.Fatalf("unexpected by type %+v", s.ByType)
	}
	if len(s.ByWeekday) != 2 || s.ByWeekday[0] != (Slice{Label: "Monday", Value: 30}) || s.ByWeekday[1] != (Slice{Label: "Wednesday", Value: 15}) {
		t.Fatalf("unexpected by weekday %+v", s.ByWeekday)
	}
	if len(s.ByHour) != 2 || s.ByHour[0] != (Slice{Label: "02", Value: 5}) || s.ByHour[1] != (Slice{Label: "10", Value: 20}) {
		t.Fatalf("unexpected by hour %+v", s.ByHour)
	}
	if s.Totals.Rate != 0 {
		t.Fatalf("expected zero rate without reach")
	}
}

func TestFormatting(t *testing.T) {
	cases := map[int64]string{0: "0", 999: "999", 1000: "1,000", 1234567: "1,234,567", -4500: "-4,500"}
	for in, want := range cases {
		if got := FormatCount(in); got != want {
			t.Fatalf("FormatCount(%d) = %q, want %q", in, got, want)
		}
	}
	if got := FormatChange(5.23, false); got != "+5.2% vs last period" {
		t.Fatalf("unexpected change %q", got)
	}
	if got := FormatChange(-0.5, true); got != "-0.5 pp vs last period" {
		t.Fatalf("unexpected change %q", got)
	}
}
