// Package storage provides the Storage Client: a thin wrapper over
// database/sql targeting a remote libsql/Turso database, holding a single
// mutable connection per the single-threaded invariant.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"sync"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/scriptindex/scriptindex/internal/errs"
)

// Row is a single result row, mapping column name to scanned value.
type Row map[string]any

// Client holds a URL and bearer token and exposes connect/disconnect and
// query/execute operations against the underlying *sql.DB. Callers MUST NOT
// issue overlapping operations (single mutable connection).
type Client struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

// New constructs a Client. Empty tursoURL or authToken is rejected at
// construction, per contract.
func New(tursoURL, authToken string) (*Client, error) {
	if strings.TrimSpace(tursoURL) == "" {
		return nil, errs.NewConfigError("storage client requires a non-empty URL")
	}
	if strings.TrimSpace(authToken) == "" {
		return nil, errs.NewConfigError("storage client requires a non-empty auth token")
	}

	return &Client{dsn: buildDSN(tursoURL, authToken)}, nil
}

// buildDSN embeds the bearer token as the libsql driver's documented
// authToken query parameter.
func buildDSN(tursoURL, authToken string) string {
	sep := "?"
	if strings.Contains(tursoURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sauthToken=%s", tursoURL, sep, url.QueryEscape(authToken))
}

// Connect establishes the underlying session. Idempotent-safe: calling it
// again while already connected is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return nil
	}

	db, err := sql.Open("libsql", c.dsn)
	if err != nil {
		return errs.NewStorageError("connect", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return errs.NewStorageError("connect", err)
	}

	c.db = db
	return nil
}

// Disconnect releases resources. Subsequent operations fail with
// ErrNotConnected.
func (c *Client) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		return errs.NewStorageError("disconnect", err)
	}
	return nil
}

// Query executes a read statement with positional parameters and returns
// rows as column-name-to-value mappings.
func (c *Client) Query(ctx context.Context, query string, args ...any) ([]Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil, errs.ErrNotConnected
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewStorageError("query", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errs.NewStorageError("query", err)
	}

	var out []Row
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errs.NewStorageError("query", err)
		}

		row := make(Row, len(cols))
		for i, col := range cols {
			row[col] = dest[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.NewStorageError("query", err)
	}

	return out, nil
}

// Execute runs a write or DDL statement.
func (c *Client) Execute(ctx context.Context, query string, args ...any) (sql.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil, errs.ErrNotConnected
	}

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errs.NewStorageError("execute", err)
	}
	return res, nil
}

// Connected reports whether the client currently holds an open connection.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db != nil
}
