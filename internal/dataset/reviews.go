package dataset

import (
	"errors"
	"io"

	"github.com/verte-zerg/weekcloud/internal/model"
)

// Review export columns.
const (
	ColumnAt      = "at"
	ColumnContent = "content"
	ColumnScore   = "score"
)

// ReadReviews parses a review CSV with at, content and score columns. Other
// columns are ignored. Any bad row rejects the whole file.
func ReadReviews(r io.Reader) ([]model.Record, error) {
	t, err := openTable(r)
	if err != nil {
		return nil, err
	}
	if err := t.require(ColumnAt, ColumnContent, ColumnScore); err != nil {
		return nil, err
	}
	var out []model.Record
	for {
		rec, err := t.next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		at, err := t.required(rec, ColumnAt)
		if err != nil {
			return nil, err
		}
		ts, err := ParseTime(at)
		if err != nil {
			return nil, &RowError{Row: t.row, Column: ColumnAt, Err: err}
		}
		content, _ := t.field(rec, ColumnContent)
		score, err := t.float(rec, ColumnScore)
		if err != nil {
			return nil, err
		}
		out = append(out, model.Record{At: ts, Text: content, Score: score})
	}
}

// LoadReviews reads a review CSV file.
func LoadReviews(path string) ([]model.Record, error) {
	var out []model.Record
	err := openFile(path, func(r io.Reader) error {
		var err error
		out, err = ReadReviews(r)
		return err
	})
	return out, err
}
