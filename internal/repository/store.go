// Package repository implements the Repository (C4): CRUD and pagination
// over the scripts table, built directly on the Storage Client rather than
// through a generic ORM.
package repository

import (
	"context"
	"strings"

	"github.com/scriptindex/scriptindex/domain/record"
	"github.com/scriptindex/scriptindex/internal/errs"
	"github.com/scriptindex/scriptindex/internal/storage"
)

// schemaDDL creates the scripts table and its indices. Safe to execute
// repeatedly (IF NOT EXISTS throughout).
const schemaDDL = `
CREATE TABLE IF NOT EXISTS scripts (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  path TEXT UNIQUE NOT NULL,
  category TEXT NOT NULL,
  description TEXT,
  usage TEXT,
  tags TEXT,
  dependencies TEXT,
  embedding_text TEXT,
  embedding TEXT,
  tokens INTEGER,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scripts_category ON scripts(category);
CREATE INDEX IF NOT EXISTS idx_scripts_path ON scripts(path);
`

// Store is the Repository implementation, holding a Storage Client.
type Store struct {
	client *storage.Client
}

// New wraps a connected (or not-yet-connected) Storage Client as a Store.
func New(client *storage.Client) *Store {
	return &Store{client: client}
}

// InitializeSchema creates the scripts table and indices if absent.
func (s *Store) InitializeSchema(ctx context.Context) error {
	for _, stmt := range splitStatements(schemaDDL) {
		if _, err := s.client.Execute(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

func splitStatements(ddl string) []string {
	var out []string
	for _, stmt := range strings.Split(ddl, ";") {
		trimmed := strings.TrimSpace(stmt)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// Create inserts record, replacing any existing row sharing its path
// (upsert semantics). Rejects empty name/path/category. Returns the
// assigned id.
func (s *Store) Create(ctx context.Context, r record.Script) (int64, error) {
	if strings.TrimSpace(r.Name()) == "" {
		return 0, errs.NewInvalidInput("name", "must not be empty")
	}
	if strings.TrimSpace(r.Path()) == "" {
		return 0, errs.NewInvalidInput("path", "must not be empty")
	}
	if strings.TrimSpace(r.Category()) == "" {
		return 0, errs.NewInvalidInput("category", "must not be empty")
	}

	row, err := scriptToRow(r)
	if err != nil {
		return 0, err
	}

	const stmt = `
INSERT INTO scripts (name, path, category, description, usage, tags, dependencies, embedding_text, embedding, tokens, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(path) DO UPDATE SET
  name = excluded.name,
  category = excluded.category,
  description = excluded.description,
  usage = excluded.usage,
  tags = excluded.tags,
  dependencies = excluded.dependencies,
  embedding_text = excluded.embedding_text,
  embedding = excluded.embedding,
  tokens = excluded.tokens,
  updated_at = CURRENT_TIMESTAMP
`
	if _, err := s.client.Execute(ctx, stmt,
		row.name, row.path, row.category, row.description, row.usage,
		row.tags, row.dependencies, row.embeddingText, row.embedding, row.tokens,
	); err != nil {
		return 0, err
	}

	id, err := s.idByPath(ctx, r.Path())
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) idByPath(ctx context.Context, path string) (int64, error) {
	rows, err := s.client.Query(ctx, "SELECT id FROM scripts WHERE path = ?", path)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, errs.ErrNotFound
	}
	return toInt64(rows[0]["id"]), nil
}

// GetByID returns the record matching id, or errs.ErrNotFound.
func (s *Store) GetByID(ctx context.Context, id int64) (record.Script, error) {
	rows, err := s.client.Query(ctx, selectColumns+" FROM scripts WHERE id = ?", id)
	if err != nil {
		return record.Script{}, err
	}
	if len(rows) == 0 {
		return record.Script{}, errs.ErrNotFound
	}
	return rowToScript(rows[0])
}

// GetByPath returns the record matching path, or errs.ErrNotFound.
func (s *Store) GetByPath(ctx context.Context, path string) (record.Script, error) {
	rows, err := s.client.Query(ctx, selectColumns+" FROM scripts WHERE path = ?", path)
	if err != nil {
		return record.Script{}, err
	}
	if len(rows) == 0 {
		return record.Script{}, errs.ErrNotFound
	}
	return rowToScript(rows[0])
}

// Update applies partial to the record identified by id. id must be
// positive. Only provided fields are changed; updated_at is refreshed
// server-side. A Partial with no set fields is a no-op.
func (s *Store) Update(ctx context.Context, id int64, partial Partial) error {
	if id <= 0 {
		return errs.NewInvalidInput("id", "must be positive")
	}

	sets, args := partial.assignments()
	if len(sets) == 0 {
		return nil
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)

	stmt := "UPDATE scripts SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	_, err := s.client.Execute(ctx, stmt, args...)
	return err
}

// Delete removes the record identified by id. id must be positive.
// Idempotent: deleting a missing row succeeds.
func (s *Store) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return errs.NewInvalidInput("id", "must be positive")
	}
	_, err := s.client.Execute(ctx, "DELETE FROM scripts WHERE id = ?", id)
	return err
}

// ListOptions controls List's pagination and category filter.
type ListOptions struct {
	Limit    int
	Offset   int
	Category string // empty means unfiltered
}

// List returns records ordered by ascending id, applying the limit/offset/
// category filter in opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]record.Script, error) {
	query := selectColumns + " FROM scripts"
	var args []any

	if opts.Category != "" {
		query += " WHERE category = ?"
		args = append(args, opts.Category)
	}
	query += " ORDER BY id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	out := make([]record.Script, 0, len(rows))
	for _, row := range rows {
		s, err := rowToScript(row)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Count returns the number of records, optionally filtered by category.
func (s *Store) Count(ctx context.Context, category string) (int64, error) {
	query := "SELECT COUNT(*) AS n FROM scripts"
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}

	rows, err := s.client.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return toInt64(rows[0]["n"]), nil
}

// ListCategories returns the distinct categories present, lexicographically
// ordered.
func (s *Store) ListCategories(ctx context.Context) ([]string, error) {
	rows, err := s.client.Query(ctx, "SELECT DISTINCT category FROM scripts ORDER BY category ASC")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, toString(row["category"]))
	}
	return out, nil
}

// Stats is the Seeder's aggregate summary over the table.
type Stats struct {
	TotalScripts    int64
	TotalCategories int64
	AvgTokens       float64
}

// Stats computes the single aggregate query described in spec.md §4.5.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.client.Query(ctx, `
SELECT
  COUNT(*) AS total_scripts,
  COUNT(DISTINCT category) AS total_categories,
  COALESCE(AVG(tokens), 0) AS avg_tokens
FROM scripts
`)
	if err != nil {
		return Stats{}, err
	}
	if len(rows) == 0 {
		return Stats{}, nil
	}
	row := rows[0]
	return Stats{
		TotalScripts:    toInt64(row["total_scripts"]),
		TotalCategories: toInt64(row["total_categories"]),
		AvgTokens:       toFloat64(row["avg_tokens"]),
	}, nil
}
