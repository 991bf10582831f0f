package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/pagesift/pagesift/internal/model"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

// Reserve atomically claims a content hash for a new canonical record. The
// insert relies on the primary-key constraint: under concurrent writers
// exactly one insert succeeds and every other gets ErrDigestConflict. An
// insert-then-check pattern would race and must not replace this.
func (s *Store) Reserve(ctx context.Context, contentHash, canonicalID string) error {
	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO dedup_entries (content_hash, canonical_id)
		VALUES ($1, $2)`,
		contentHash, canonicalID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDigestConflict
		}
		return fmt.Errorf("reserve hash: %w", err)
	}
	return nil
}

// Lookup returns the canonical record id for a content hash.
func (s *Store) Lookup(ctx context.Context, contentHash string) (string, error) {
	var id string
	err := s.conn.QueryRowContext(ctx,
		"SELECT canonical_id FROM dedup_entries WHERE content_hash = $1", contentHash).Scan(&id)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup hash: %w", err)
	}
	return id, nil
}

// RecordHit bumps the duplicate and access counters for a hash whose
// canonical record served another request.
func (s *Store) RecordHit(ctx context.Context, contentHash string) error {
	_, err := s.conn.ExecContext(ctx, `
		UPDATE dedup_entries
		SET duplicate_count = duplicate_count + 1,
		    total_access_count = total_access_count + 1,
		    last_accessed_at = NOW()
		WHERE content_hash = $1`,
		contentHash)
	if err != nil {
		return fmt.Errorf("record dedup hit: %w", err)
	}
	return nil
}

// DedupEntry loads the dedup bookkeeping row for a hash.
func (s *Store) DedupEntry(ctx context.Context, contentHash string) (*model.DeduplicationEntry, error) {
	var entry model.DeduplicationEntry
	err := s.conn.QueryRowContext(ctx, `
		SELECT content_hash, canonical_id, duplicate_count, total_access_count,
		       first_analyzed_at, last_accessed_at
		FROM dedup_entries WHERE content_hash = $1`,
		contentHash).Scan(
		&entry.ContentHash, &entry.CanonicalID, &entry.DuplicateCount,
		&entry.TotalAccessCount, &entry.FirstAnalyzedAt, &entry.LastAccessedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load dedup entry: %w", err)
	}
	return &entry, nil
}
