// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/weekcloud/internal/model"
	"github.com/verte-zerg/weekcloud/internal/wordfreq"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Import kinds.
const (
	KindReviews = "reviews"
	KindPosts   = "posts"
)

// Store wraps SQLite access for imported datasets and cached term counts.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY,
			at TEXT NOT NULL,
			content TEXT NOT NULL,
			score REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS posts (
			id INTEGER PRIMARY KEY,
			type TEXT NOT NULL,
			category INTEGER NOT NULL,
			month INTEGER NOT NULL,
			weekday INTEGER NOT NULL,
			hour INTEGER NOT NULL,
			paid INTEGER NOT NULL,
			reach INTEGER NOT NULL,
			impressions INTEGER NOT NULL,
			engaged_users INTEGER NOT NULL,
			interactions INTEGER NOT NULL,
			likes INTEGER NOT NULL,
			comments INTEGER NOT NULL,
			shares INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS term_counts (
			fingerprint TEXT NOT NULL,
			window_key TEXT NOT NULL,
			ord INTEGER NOT NULL,
			term TEXT NOT NULL,
			count INTEGER NOT NULL,
			PRIMARY KEY (fingerprint, window_key, ord)
		);`,
		`CREATE TABLE IF NOT EXISTS imports (
			id INTEGER PRIMARY KEY,
			kind TEXT NOT NULL,
			source TEXT NOT NULL,
			row_count INTEGER NOT NULL,
			imported_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_at ON reviews(at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in a transaction, rolling back on error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func insertAll(ctx context.Context, tx *sql.Tx, query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, args(i)...); err != nil {
			return err
		}
	}
	return nil
}

func logImport(ctx context.Context, tx *sql.Tx, kind, source string, rows int) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO imports (kind, source, row_count, imported_at) VALUES (?, ?, ?, ?)`,
		kind, source, rows, time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

// ReplaceReviews swaps the stored review dataset and clears cached term counts.
func (s *Store) ReplaceReviews(ctx context.Context, records []model.Record, source string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{`DELETE FROM reviews`, `DELETE FROM term_counts`} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return err
			}
		}
		err := insertAll(ctx, tx, `INSERT INTO reviews (at, content, score) VALUES (?, ?, ?)`, len(records), func(i int) []any {
			r := records[i]
			return []any{r.At.UTC().Format(time.RFC3339Nano), r.Text, r.Score}
		})
		if err != nil {
			return err
		}
		return logImport(ctx, tx, KindReviews, source, len(records))
	})
}

// ListReviews returns reviews in import order.
func (s *Store) ListReviews(ctx context.Context) ([]model.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT at, content, score FROM reviews ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Record
	for rows.Next() {
		var rec model.Record
		var at string
		if err := rows.Scan(&at, &rec.Text, &rec.Score); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		rec.At = parsed
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplacePosts swaps the stored post dataset, keeping file order.
func (s *Store) ReplacePosts(ctx context.Context, posts []model.Post, source string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts`); err != nil {
			return err
		}
		err := insertAll(ctx, tx,
			`INSERT INTO posts (type, category, month, weekday, hour, paid, reach, impressions, engaged_users, interactions, likes, comments, shares)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			len(posts), func(i int) []any {
				p := posts[i]
				return []any{p.Type, p.Category, p.Month, p.Weekday, p.Hour, p.Paid, p.Reach, p.Impressions,
					p.EngagedUsers, p.Interactions, p.Likes, p.Comments, p.Shares}
			})
		if err != nil {
			return err
		}
		return logImport(ctx, tx, KindPosts, source, len(posts))
	})
}

// ListPosts returns posts in import order.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT type, category, month, weekday, hour, paid, reach, impressions, engaged_users, interactions, likes, comments, shares
		 FROM posts ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.Post
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.Type, &p.Category, &p.Month, &p.Weekday, &p.Hour, &p.Paid, &p.Reach, &p.Impressions,
			&p.EngagedUsers, &p.Interactions, &p.Likes, &p.Comments, &p.Shares); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// LoadTermCounts returns cached counts for a normalizer fingerprint and week key.
// ok is false when nothing is cached.
func (s *Store) LoadTermCounts(ctx context.Context, fingerprint, windowKey string) ([]wordfreq.Entry, bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term, count FROM term_counts WHERE fingerprint = ? AND window_key = ? ORDER BY ord ASC`,
		fingerprint, windowKey)
	if err != nil {
		return nil, false, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []wordfreq.Entry
	for rows.Next() {
		var e wordfreq.Entry
		if err := rows.Scan(&e.Term, &e.Count); err != nil {
			return nil, false, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return result, len(result) > 0, nil
}

// SaveTermCounts replaces cached counts for a fingerprint and week key.
func (s *Store) SaveTermCounts(ctx context.Context, fingerprint, windowKey string, entries []wordfreq.Entry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM term_counts WHERE fingerprint = ? AND window_key = ?`, fingerprint, windowKey); err != nil {
			return err
		}
		return insertAll(ctx, tx, `INSERT INTO term_counts (fingerprint, window_key, ord, term, count) VALUES (?, ?, ?, ?, ?)`,
			len(entries), func(i int) []any {
				return []any{fingerprint, windowKey, i, entries[i].Term, entries[i].Count}
			})
	})
}

// ListImports returns the import log, newest first.
func (s *Store) ListImports(ctx context.Context) ([]model.ImportInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT kind, source, row_count, imported_at FROM imports ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.ImportInfo
	for rows.Next() {
		var info model.ImportInfo
		var at string
		if err := rows.Scan(&info.Kind, &info.Source, &info.Rows, &at); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, err
		}
		info.ImportedAt = parsed
		result = append(result, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
