package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/wordfreq"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "weekcloud.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestReviewsRoundTripKeepsOrder(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	records := []model.Record{
		{At: time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC), Text: "second day", Score: 2},
		{At: time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC), Text: "first day", Score: 4.5},
	}
	if err := st.ReplaceReviews(ctx, records, "a.csv"); err != nil {
		t.Fatalf("ReplaceReviews failed: %v", err)
	}
	got, err := st.ListReviews(ctx)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(got) != 2 || got[0].Text != "second day" || !got[1].At.Equal(records[1].At) || got[1].Score != 4.5 {
		t.Fatalf("unexpected reviews %+v", got)
	}

	if err := st.ReplaceReviews(ctx, records[:1], "b.csv"); err != nil {
		t.Fatalf("ReplaceReviews failed: %v", err)
	}
	got, err = st.ListReviews(ctx)
	if err != nil || len(got) != 1 {
		t.Fatalf("expected replaced dataset, got %+v %v", got, err)
	}
}

func TestPostsRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	posts := []model.Post{
		{Type: "Photo", Category: 2, Month: 12, Weekday: 4, Hour: 3, Paid: true, Reach: 2752, Impressions: 5091,
			EngagedUsers: 178, Interactions: 100, Likes: 79, Comments: 4, Shares: 17},
		{Type: "Status", Weekday: 1, Hour: 10, Reach: 10, EngagedUsers: 1},
	}
	if err := st.ReplacePosts(ctx, posts, "posts.csv"); err != nil {
		t.Fatalf("ReplacePosts failed: %v", err)
	}
	got, err := st.ListPosts(ctx)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 || got[0] != posts[0] || got[1] != posts[1] {
		t.Fatalf("unexpected posts %+v", got)
	}
}

func TestTermCountsCache(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if _, ok, err := st.LoadTermCounts(ctx, "fp", "2024-W01"); err != nil || ok {
		t.Fatalf("expected cache miss, got ok=%v err=%v", ok, err)
	}
	entries := []wordfreq.Entry{{Term: "good", Count: 2}, {Term: "app", Count: 2}, {Term: "bad", Count: 1}}
	if err := st.SaveTermCounts(ctx, "fp", "2024-W01", entries); err != nil {
		t.Fatalf("SaveTermCounts failed: %v", err)
	}
	got, ok, err := st.LoadTermCounts(ctx, "fp", "2024-W01")
	if err != nil || !ok || len(got) != 3 || got[1] != entries[1] {
		t.Fatalf("unexpected cached counts %+v ok=%v err=%v", got, ok, err)
	}
	if _, ok, _ := st.LoadTermCounts(ctx, "other", "2024-W01"); ok {
		t.Fatalf("expected fingerprints to be isolated")
	}
	if err := st.SaveTermCounts(ctx, "fp", "2024-W01", entries[:1]); err != nil {
		t.Fatalf("SaveTermCounts failed: %v", err)
	}
	if got, _, _ := st.LoadTermCounts(ctx, "fp", "2024-W01"); len(got) != 1 {
		t.Fatalf("expected overwrite, got %+v", got)
	}

	if err := st.ReplaceReviews(ctx, nil, "empty.csv"); err != nil {
		t.Fatalf("ReplaceReviews failed: %v", err)
	}
	if _, ok, _ := st.LoadTermCounts(ctx, "fp", "2024-W01"); ok {
		t.Fatalf("expected review import to clear term counts")
	}
}

func TestListImports(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	if err := st.ReplaceReviews(ctx, []model.Record{{At: time.Now(), Text: "x"}}, "r.csv"); err != nil {
		t.Fatalf("ReplaceReviews failed: %v", err)
	}
	if err := st.ReplacePosts(ctx, nil, "p.csv"); err != nil {
		t.Fatalf("ReplacePosts failed: %v", err)
	}
	imports, err := st.ListImports(ctx)
	if err != nil {
		t.Fatalf("ListImports failed: %v", err)
	}
	if len(imports) != 2 || imports[0].Kind != KindPosts || imports[1].Source != "r.csv" || imports[1].Rows != 1 {
		t.Fatalf("unexpected imports %+v", imports)
	}
}
