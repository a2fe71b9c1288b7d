package storage

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/matzehuels/brickgrid/pkg/page"
)

// SQLiteRepository stores pages in a SQLite file.
type SQLiteRepository struct {
	conn *sql.DB
}

// OpenSQLite opens or creates the database at path and applies the
// migrations. ":memory:" gives a private in-memory database.
func OpenSQLite(path string) (*SQLiteRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite: empty database path")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; a single connection also keeps ":memory:" a
	// single database.
	conn.SetMaxOpenConns(1)

	r := &SQLiteRepository{conn: conn}
	if err := r.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS pages (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			doc TEXT NOT NULL,
			bricks INTEGER NOT NULL DEFAULT 0,
			version INTEGER NOT NULL DEFAULT 1,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_pages_updated ON pages(updated_at)`,
	}
	for _, m := range migrations {
		if _, err := r.conn.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Record, error) {
	var doc, updated string
	var version int64
	err := r.conn.QueryRowContext(ctx,
		`SELECT doc, version, updated_at FROM pages WHERE id = ?`, id,
	).Scan(&doc, &version, &updated)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("get page %s: %w", id, err)
	}
	p, err := decode(id, doc)
	if err != nil {
		return nil, err
	}
	return &Record{Page: p, Version: version, UpdatedAt: parseTime(updated)}, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, p *page.Page) (*Record, error) {
	doc, err := encode(p)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	var version int64
	err = r.conn.QueryRowContext(ctx, `
		INSERT INTO pages (id, title, doc, bricks, version, updated_at)
		VALUES (?, ?, ?, ?, 1, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			doc = excluded.doc,
			bricks = excluded.bricks,
			version = pages.version + 1,
			updated_at = excluded.updated_at
		RETURNING version`,
		p.ID, p.Title, doc, p.Count(), now.Format(time.RFC3339Nano),
	).Scan(&version)
	if err != nil {
		return nil, fmt.Errorf("put page %s: %w", p.ID, err)
	}
	return &Record{Page: p.Clone(), Version: version, UpdatedAt: now}, nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]Summary, error) {
	rows, err := r.conn.QueryContext(ctx,
		`SELECT id, title, bricks, version, updated_at FROM pages ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var s Summary
		var updated string
		if err := rows.Scan(&s.ID, &s.Title, &s.Bricks, &s.Version, &updated); err != nil {
			return nil, err
		}
		s.UpdatedAt = parseTime(updated)
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	res, err := r.conn.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete page %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

// Close closes the database.
func (r *SQLiteRepository) Close() error { return r.conn.Close() }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}

var _ Repository = (*SQLiteRepository)(nil)
