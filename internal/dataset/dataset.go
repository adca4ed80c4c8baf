// Package dataset reads review and post CSV exports into model types.
package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is wrapped by RowError when a required header is absent.
var ErrMissingColumn = errors.New("missing column")

// RowError reports a rejected CSV row. Row counts the header as row 1.
type RowError struct {
	Row    int
	Column string
	Err    error
}

func (e *RowError) Error() string {
	if e.Row == 0 {
		return fmt.Sprintf("column %q: %v", e.Column, e.Err)
	}
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime accepts the timestamp layouts found in review exports. Values
// without a zone are read as UTC.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// table is a header-indexed CSV reader.
type table struct {
	r     *csv.Reader
	index map[string]int
	row   int
}

func openTable(r io.Reader) (*table, error) {
	br := bufio.NewReader(r)
	comma := sniffDelimiter(br)
	cr := csv.NewReader(br)
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty csv")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return &table{r: cr, index: index, row: 1}, nil
}

// sniffDelimiter picks ';' or '\t' when the header line uses them more than ','.
func sniffDelimiter(br *bufio.Reader) rune {
	peek, _ := br.Peek(4096)
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, c := range []rune{';', '\t'} {
		if n := strings.Count(line, string(c)); n > bestCount {
			best, bestCount = c, n
		}
	}
	return best
}

func (t *table) require(names ...string) error {
	for _, name := range names {
		if _, ok := t.index[name]; !ok {
			return &RowError{Column: name, Err: ErrMissingColumn}
		}
	}
	return nil
}

// next returns the following record, or io.EOF.
func (t *table) next() ([]string, error) {
	rec, err := t.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, &RowError{Row: t.row + 1, Err: err}
	}
	t.row++
	return rec, nil
}

func (t *table) field(rec []string, name string) (string, bool) {
	i, ok := t.index[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}

func (t *table) required(rec []string, name string) (string, error) {
	v, ok := t.field(rec, name)
	if !ok {
		return "", &RowError{Row: t.row, Column: name, Err: ErrMissingColumn}
	}
	return v, nil
}

func (t *table) float(rec []string, name string) (float64, error) {
	v, err := t.required(rec, name)
	if err != nil {
		return 0, err
	}
	f, err := parseNumber(v)
	if err != nil {
		return 0, &RowError{Row: t.row, Column: name, Err: err}
	}
	return f, nil
}

// integer parses a whole number; empty optional cells read as 0.
func (t *table) integer(rec []string, name string, optional bool) (int64, error) {
	v, ok := t.field(rec, name)
	if !ok || v == "" {
		if optional {
			return 0, nil
		}
		return 0, &RowError{Row: t.row, Column: name, Err: ErrMissingColumn}
	}
	f, err := parseNumber(v)
	if err != nil {
		return 0, &RowError{Row: t.row, Column: name, Err: err}
	}
	return int64(f), nil
}

// parseNumber rejects NaN and infinities, which strconv accepts.
func parseNumber(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not a finite number", v)
	}
	return f, nil
}

func openFile(path string, read func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()
	return read(f)
}
