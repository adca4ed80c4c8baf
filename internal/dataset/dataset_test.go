package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestReadReviews(t *testing.T) {
	in := "reviewId,content,score,at\n" +
		"r1,\"Great app, love it\",5,2024-01-02 10:00:00\n" +
		"r2,,1,2024-01-03\n"
	records, err := ReadReviews(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadReviews failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	want := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	if !records[0].At.Equal(want) || records[0].Text != "Great app, love it" || records[0].Score != 5 {
		t.Fatalf("unexpected first record %+v", records[0])
	}
	if records[1].Text != "" || records[1].Score != 1 {
		t.Fatalf("unexpected second record %+v", records[1])
	}
}

func TestReadReviewsRejectsBadRows(t *testing.T) {
	cases := []struct {
		name   string
		in     string
		row    int
		column string
	}{
		{"bad time", "at,content,score\nyesterday,ok,3\n", 2, ColumnAt},
		{"bad score", "at,content,score\n2024-01-02,ok,3\n2024-01-03,ok,great\n", 3, ColumnScore},
		{"short row", "at,content,score\n2024-01-02,ok\n", 2, ColumnScore},
		{"nan score", "at,content,score\n2024-01-02,good app,NaN\n", 2, ColumnScore},
		{"inf score", "at,content,score\n2024-01-02,good app,4\n2024-01-03,bad,+Inf\n", 3, ColumnScore},
		{"missing header", "at,content\n2024-01-02,ok\n", 0, ColumnScore},
	}
	for _, tc := range cases {
		records, err := ReadReviews(strings.NewReader(tc.in))
		var rowErr *RowError
		if !errors.As(err, &rowErr) {
			t.Fatalf("%s: expected RowError, got %v", tc.name, err)
		}
		if rowErr.Row != tc.row || rowErr.Column != tc.column {
			t.Fatalf("%s: unexpected error position %+v", tc.name, rowErr)
		}
		if records != nil {
			t.Fatalf("%s: expected nothing returned", tc.name)
		}
	}
}

func TestReadReviewsEmpty(t *testing.T) {
	if _, err := ReadReviews(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty input")
	}
	records, err := ReadReviews(strings.NewReader("at,content,score\n"))
	if err != nil || len(records) != 0 {
		t.Fatalf("expected no records, got %v %v", records, err)
	}
}

func TestParseTime(t *testing.T) {
	for _, s := range []string{"2024-01-02T03:04:05Z", "2024-01-02 03:04:05", "2024-01-02T03:04:05", "2024-01-02 03:04"} {
		ts, err := ParseTime(s)
		if err != nil {
			t.Fatalf("ParseTime(%q) failed: %v", s, err)
		}
		if ts.Year() != 2024 || ts.Hour() != 3 || ts.Minute() != 4 {
			t.Fatalf("ParseTime(%q) = %v", s, ts)
		}
	}
}

const postsCSV = "Page total likes;Type;Category;Post Month;Post Weekday;Post Hour;Paid;" +
	"Lifetime Post Total Reach;Lifetime Post Total Impressions;Lifetime Engaged Users;comment;like;share;Total Interactions\n" +
	"139441;Photo;2;12;4;3;0;2752;5091;178;4;79;17;100\n" +
	"139441;Status;2;12;3;10;;10460;19057;1457;5;130;;135\n"

func TestReadPosts(t *testing.T) {
	posts, err := ReadPosts(strings.NewReader(postsCSV))
	if err != nil {
		t.Fatalf("ReadPosts failed: %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("expected 2 posts, got %d", len(posts))
	}
	p := posts[0]
	if p.Type != "Photo" || p.Weekday != 4 || p.Hour != 3 || p.Reach != 2752 || p.EngagedUsers != 178 ||
		p.Interactions != 100 || p.Likes != 79 || p.Shares != 17 || p.Category != 2 || p.Month != 12 || p.Paid {
		t.Fatalf("unexpected post %+v", p)
	}
	if posts[1].Shares != 0 || posts[1].Paid {
		t.Fatalf("expected empty optional cells to read as zero, got %+v", posts[1])
	}
}

func TestReadPostsRejectsWeekday(t *testing.T) {
	in := "Type,Post Weekday,Post Hour,Lifetime Post Total Reach,Lifetime Engaged Users,Total Interactions\n" +
		"Photo,9,3,10,1,1\n"
	_, err := ReadPosts(strings.NewReader(in))
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Column != ColumnWeekday || rowErr.Row != 2 {
		t.Fatalf("expected weekday RowError, got %v", err)
	}
}

func TestReadPostsRejectsInfiniteReach(t *testing.T) {
	in := "Type,Post Weekday,Post Hour,Lifetime Post Total Reach,Lifetime Engaged Users,Total Interactions\n" +
		"Photo,4,3,Inf,1,1\n"
	_, err := ReadPosts(strings.NewReader(in))
	var rowErr *RowError
	if !errors.As(err, &rowErr) || rowErr.Column != ColumnReach || rowErr.Row != 2 {
		t.Fatalf("expected reach RowError, got %v", err)
	}
}

func TestReadPostsMissingColumn(t *testing.T) {
	_, err := ReadPosts(strings.NewReader("Type,Post Hour\nPhoto,3\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}

func TestLoadFiles(t *testing.T) {
	dir := t.TempDir()
	reviews := filepath.Join(dir, "reviews.csv")
	posts := filepath.Join(dir, "posts.csv")
	if err := os.WriteFile(reviews, []byte("\ufeffat,content,score\n2024-01-02,hello,4\n"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := os.WriteFile(posts, []byte(postsCSV), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	records, err := LoadReviews(reviews)
	if err != nil || len(records) != 1 {
		t.Fatalf("LoadReviews: %v %v", records, err)
	}
	loaded, err := LoadPosts(posts)
	if err != nil || len(loaded) != 2 {
		t.Fatalf("LoadPosts: %v %v", loaded, err)
	}
	if _, err := LoadReviews(filepath.Join(dir, "missing.csv")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
