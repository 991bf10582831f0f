// Package store persists analysis records, deduplication entries, and
// overflow text chunks in PostgreSQL. Composite fields are JSON-serialized
// text blobs alongside scalar columns; schema changes run through versioned
// migrations at startup.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
)

var (
	// ErrNotFound means no row matched.
	ErrNotFound = errors.New("store: not found")
	// ErrDigestConflict means a concurrent writer already reserved the
	// content hash; the caller must adopt the existing canonical record.
	ErrDigestConflict = errors.New("store: content hash already reserved")
)

// Store wraps the database connection.
type Store struct {
	conn *sql.DB
}

// New opens the database, verifies connectivity, and runs migrations.
func New(dsn string) (*Store, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := Migrate(conn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{conn: conn}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.conn.Close()
}

// DB exposes the underlying pool for health checks.
func (s *Store) DB() *sql.DB {
	return s.conn
}

// jsonBlob serializes a composite field for a text column. Nil-ish values
// store as SQL NULL so the column stays distinguishable from "empty result".
func jsonBlob(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("marshal blob: %w", err)
	}
	if string(data) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// fromBlob decodes a nullable JSON column into target; NULL leaves the
// target untouched.
func fromBlob(col sql.NullString, target any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), target)
}
