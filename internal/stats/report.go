package stats

import (
	"context"

	"github.com/verte-zerg/weekcloud/internal/engagement"
	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/pipeline"
	"github.com/verte-zerg/weekcloud/internal/store"
	"github.com/verte-zerg/weekcloud/internal/week"
)

// DefaultTopPosts is the size of the dashboard's top posts table.
const DefaultTopPosts = 10

// LoadDataset reads both imported datasets into an immutable snapshot.
func LoadDataset(ctx context.Context, st *store.Store) (*pipeline.Dataset, error) {
	records, err := st.ListReviews(ctx)
	if err != nil {
		return nil, err
	}
	posts, err := st.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return pipeline.NewDataset(records, posts), nil
}

// BuildWeeks lists populated weeks of the dataset.
func BuildWeeks(ds *pipeline.Dataset, b week.Bucketer) []model.WeekSummary {
	return b.Weeks(ds.Records())
}

// BuildDashboard summarizes the dataset's posts for frame.
func BuildDashboard(ds *pipeline.Dataset, frame engagement.Frame) engagement.Summary {
	return engagement.Summarize(ds.Posts(), frame, DefaultTopPosts)
}
