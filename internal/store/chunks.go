package store

import (
	"context"
	"fmt"
	"strings"
)

// SplitChunks divides overflow text into fixed-size segments. The head
// (up to maxChars) stays on the record row; everything past it chunks.
func SplitChunks(text string, maxChars, chunkChars int) (head string, chunks []string) {
	if maxChars <= 0 || len(text) <= maxChars {
		return text, nil
	}
	if chunkChars <= 0 {
		chunkChars = maxChars
	}

	head = text[:maxChars]
	rest := text[maxChars:]
	for len(rest) > 0 {
		n := chunkChars
		if n > len(rest) {
			n = len(rest)
		}
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	return head, chunks
}

// SaveChunks replaces a record's overflow chunks.
func (s *Store) SaveChunks(ctx context.Context, analysisID string, chunks []string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin chunk save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM text_chunks WHERE analysis_id = $1", analysisID); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	for i, chunk := range chunks {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO text_chunks (analysis_id, chunk_index, content) VALUES ($1, $2, $3)",
			analysisID, i, chunk); err != nil {
			return fmt.Errorf("insert chunk %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// FullText reassembles a record's complete extracted text from the row head
// plus its overflow chunks, in index order.
func (s *Store) FullText(ctx context.Context, analysisID, head string) (string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT content FROM text_chunks WHERE analysis_id = $1 ORDER BY chunk_index", analysisID)
	if err != nil {
		return "", fmt.Errorf("load chunks: %w", err)
	}
	defer rows.Close()

	var b strings.Builder
	b.WriteString(head)
	for rows.Next() {
		var chunk string
		if err := rows.Scan(&chunk); err != nil {
			return "", fmt.Errorf("scan chunk: %w", err)
		}
		b.WriteString(chunk)
	}
	return b.String(), rows.Err()
}
