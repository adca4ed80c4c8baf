package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/verte-zerg/weekcloud/internal/model"
)

// Post export columns, lower-cased.
const (
	ColumnType         = "type"
	ColumnCategory     = "category"
	ColumnMonth        = "post month"
	ColumnWeekday      = "post weekday"
	ColumnHour         = "post hour"
	ColumnPaid         = "paid"
	ColumnReach        = "lifetime post total reach"
	ColumnImpressions  = "lifetime post total impressions"
	ColumnEngagedUsers = "lifetime engaged users"
	ColumnInteractions = "total interactions"
	ColumnLikes        = "like"
	ColumnComments     = "comment"
	ColumnShares       = "share"
)

// ReadPosts parses a post metrics CSV (comma or semicolon separated). Rows
// keep file order, which the dashboard frames rely on.
func ReadPosts(r io.Reader) ([]model.Post, error) {
	t, err := openTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColumnType, ColumnWeekday, ColumnHour, ColumnReach, ColumnEngagedUsers, ColumnInteractions); err != nil {
		return nil, err
	}
	var out []model.Post
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		p, err := readPost(t, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
}

func readPost(t *table, rec []string) (model.Post, error) {
	var p model.Post
	typ, err := t.required(rec, ColumnType)
	if err != nil {
		return p, err
	}
	p.Type = typ

	ints := []struct {
		column   string
		optional bool
		dst      *int64
	}{
		{ColumnReach, false, &p.Reach},
		{ColumnEngagedUsers, false, &p.EngagedUsers},
		{ColumnInteractions, false, &p.Interactions},
		{ColumnImpressions, true, &p.Impressions},
		{ColumnLikes, true, &p.Likes},
		{ColumnComments, true, &p.Comments},
		{ColumnShares, true, &p.Shares},
	}
	for _, f := range ints {
		v, err := t.integer(rec, f.column, f.optional)
		if err != nil {
			return p, err
		}
		*f.dst = v
	}

	weekday, err := t.integer(rec, ColumnWeekday, false)
	if err != nil {
		return p, err
	}
	if weekday < 1 || weekday > 7 {
		return p, &RowError{Row: t.row, Column: ColumnWeekday, Err: fmt.Errorf("weekday %d out of range 1..7", weekday)}
	}
	hour, err := t.integer(rec, ColumnHour, false)
	if err != nil {
		return p, err
	}
	if hour < 0 || hour > 24 {
		return p, &RowError{Row: t.row, Column: ColumnHour, Err: fmt.Errorf("hour %d out of range 0..24", hour)}
	}
	category, err := t.integer(rec, ColumnCategory, true)
	if err != nil {
		return p, err
	}
	month, err := t.integer(rec, ColumnMonth, true)
	if err != nil {
		return p, err
	}
	paid, err := t.integer(rec, ColumnPaid, true)
	if err != nil {
		return p, err
	}
	p.Weekday = int(weekday)
	p.Hour = int(hour)
	p.Category = int(category)
	p.Month = int(month)
	p.Paid = paid != 0
	return p, nil
}

// LoadPosts reads a post metrics CSV file.
func LoadPosts(path string) ([]model.Post, error) {
	var out []model.Post
	err := openFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadPosts(r)
		return err
	})
	return out, err
}
