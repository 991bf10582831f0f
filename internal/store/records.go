package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pagesift/pagesift/internal/model"
)

const recordColumns = `
	id, url, url_normalized, content_hash,
	title, author, publish_date, domain, is_social_media, social_platform,
	extracted_text, word_count, summary,
	word_frequency, top_phrases, entities, sentiment_analysis,
	keyphrases, topics, claim_analysis, links,
	archive_urls, bypass_urls,
	save_link, link_note, link_tags,
	share_token, is_public,
	processing_mode, processing_duration_ms, fallback_source, fallback_attempts,
	access_count, created_at, updated_at`

// SaveRecord inserts or fully replaces a record by id.
func (s *Store) SaveRecord(ctx context.Context, rec *model.AnalysisRecord) error {
	rec.UpdatedAt = time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = rec.UpdatedAt
	}

	blobs := map[string]any{
		"word_frequency":     rec.WordFrequency,
		"top_phrases":        rec.TopPhrases,
		"entities":           rec.Entities,
		"sentiment_analysis": rec.Sentiment,
		"keyphrases":         rec.Keyphrases,
		"topics":             rec.Topics,
		"claim_analysis":     rec.ClaimAnalysis,
		"links":              rec.Links,
		"archive_urls":       rec.ArchiveURLs,
		"bypass_urls":        rec.BypassURLs,
		"link_tags":          rec.LinkTags,
		"fallback_attempts":  rec.FallbackAttempts,
	}
	cols := make(map[string]sql.NullString, len(blobs))
	for name, v := range blobs {
		blob, err := jsonBlob(v)
		if err != nil {
			return fmt.Errorf("serialize %s: %w", name, err)
		}
		cols[name] = blob
	}

	query := `
		INSERT INTO analysis_records (` + recordColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29,$30,$31,$32,$33,$34,$35)
		ON CONFLICT (id) DO UPDATE SET
			url = excluded.url,
			url_normalized = excluded.url_normalized,
			content_hash = excluded.content_hash,
			title = excluded.title,
			author = excluded.author,
			publish_date = excluded.publish_date,
			domain = excluded.domain,
			is_social_media = excluded.is_social_media,
			social_platform = excluded.social_platform,
			extracted_text = excluded.extracted_text,
			word_count = excluded.word_count,
			summary = excluded.summary,
			word_frequency = excluded.word_frequency,
			top_phrases = excluded.top_phrases,
			entities = excluded.entities,
			sentiment_analysis = excluded.sentiment_analysis,
			keyphrases = excluded.keyphrases,
			topics = excluded.topics,
			claim_analysis = excluded.claim_analysis,
			links = excluded.links,
			archive_urls = excluded.archive_urls,
			bypass_urls = excluded.bypass_urls,
			save_link = excluded.save_link,
			link_note = excluded.link_note,
			link_tags = excluded.link_tags,
			share_token = excluded.share_token,
			is_public = excluded.is_public,
			processing_mode = excluded.processing_mode,
			processing_duration_ms = excluded.processing_duration_ms,
			fallback_source = excluded.fallback_source,
			fallback_attempts = excluded.fallback_attempts,
			access_count = excluded.access_count,
			updated_at = excluded.updated_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		rec.ID, rec.URL, rec.URLNormalized, rec.ContentHash,
		rec.Title, rec.Author, rec.PublishDate, rec.Domain, rec.IsSocialMedia, rec.SocialPlatform,
		rec.ExtractedText, rec.WordCount, rec.Summary,
		cols["word_frequency"], cols["top_phrases"], cols["entities"], cols["sentiment_analysis"],
		cols["keyphrases"], cols["topics"], cols["claim_analysis"], cols["links"],
		cols["archive_urls"], cols["bypass_urls"],
		rec.SaveLink, rec.LinkNote, cols["link_tags"],
		rec.ShareToken, rec.IsPublic,
		string(rec.ProcessingMode), rec.ProcessingDurationMs, rec.FallbackSource, cols["fallback_attempts"],
		rec.AccessCount, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save record %s: %w", rec.ID, err)
	}
	return nil
}

// GetRecord loads one record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*model.AnalysisRecord, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM analysis_records WHERE id = $1", id)
	return scanRecord(row)
}

// GetByShareToken loads a publicly shared record by its token.
func (s *Store) GetByShareToken(ctx context.Context, token string) (*model.AnalysisRecord, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM analysis_records WHERE share_token = $1 AND is_public", token)
	return scanRecord(row)
}

// ListRecords returns recent records, newest first.
func (s *Store) ListRecords(ctx context.Context, limit, offset int) ([]*model.AnalysisRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM analysis_records ORDER BY created_at DESC LIMIT $1 OFFSET $2",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var records []*model.AnalysisRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DeleteRecord removes a record, its chunks (via cascade), and any dedup
// entries pointing at it.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM dedup_entries WHERE canonical_id = $1", id); err != nil {
		return fmt.Errorf("delete dedup entries: %w", err)
	}
	result, err := tx.ExecContext(ctx, "DELETE FROM analysis_records WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// SetShare assigns a share token and visibility to a record.
func (s *Store) SetShare(ctx context.Context, id, token string, public bool) error {
	return s.updateShare(ctx, id, sql.NullString{String: token, Valid: token != ""}, public)
}

// ClearShare revokes sharing for a record.
func (s *Store) ClearShare(ctx context.Context, id string) error {
	return s.updateShare(ctx, id, sql.NullString{}, false)
}

func (s *Store) updateShare(ctx context.Context, id string, token sql.NullString, public bool) error {
	result, err := s.conn.ExecContext(ctx,
		"UPDATE analysis_records SET share_token = $1, is_public = $2, updated_at = NOW() WHERE id = $3",
		token, public, id)
	if err != nil {
		return fmt.Errorf("update share: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementAccess bumps a record's access counter.
func (s *Store) IncrementAccess(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE analysis_records SET access_count = access_count + 1 WHERE id = $1", id)
	return err
}

// UpdateClaimAnalysis persists a recomputed claim set onto an existing
// record without touching other fields.
func (s *Store) UpdateClaimAnalysis(ctx context.Context, id string, analysis *model.ClaimAnalysis) error {
	blob, err := jsonBlob(analysis)
	if err != nil {
		return fmt.Errorf("serialize claim analysis: %w", err)
	}
	result, err := s.conn.ExecContext(ctx,
		"UPDATE analysis_records SET claim_analysis = $1, updated_at = NOW() WHERE id = $2",
		blob, id)
	if err != nil {
		return fmt.Errorf("update claim analysis: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*model.AnalysisRecord, error) {
	var (
		rec                                        model.AnalysisRecord
		title, author, publishDate, domain         sql.NullString
		socialPlatform, extractedText, summary     sql.NullString
		wordFrequency, topPhrases, entities        sql.NullString
		sentiment, keyphrases, topics              sql.NullString
		claimAnalysis, links, archives, bypasses   sql.NullString
		linkNote, linkTags, shareToken             sql.NullString
		processingMode, fallbackSource, fbAttempts sql.NullString
	)

	err := row.Scan(
		&rec.ID, &rec.URL, &rec.URLNormalized, &rec.ContentHash,
		&title, &author, &publishDate, &domain, &rec.IsSocialMedia, &socialPlatform,
		&extractedText, &rec.WordCount, &summary,
		&wordFrequency, &topPhrases, &entities, &sentiment,
		&keyphrases, &topics, &claimAnalysis, &links,
		&archives, &bypasses,
		&rec.SaveLink, &linkNote, &linkTags,
		&shareToken, &rec.IsPublic,
		&processingMode, &rec.ProcessingDurationMs, &fallbackSource, &fbAttempts,
		&rec.AccessCount, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	rec.Title = title.String
	rec.Author = author.String
	rec.PublishDate = publishDate.String
	rec.Domain = domain.String
	rec.SocialPlatform = socialPlatform.String
	rec.ExtractedText = extractedText.String
	rec.Summary = summary.String
	rec.LinkNote = linkNote.String
	rec.ShareToken = shareToken.String
	rec.ProcessingMode = model.ProcessingMode(processingMode.String)
	rec.FallbackSource = fallbackSource.String

	for _, blob := range []struct {
		col    sql.NullString
		target any
	}{
		{wordFrequency, &rec.WordFrequency},
		{topPhrases, &rec.TopPhrases},
		{entities, &rec.Entities},
		{sentiment, &rec.Sentiment},
		{keyphrases, &rec.Keyphrases},
		{topics, &rec.Topics},
		{claimAnalysis, &rec.ClaimAnalysis},
		{links, &rec.Links},
		{archives, &rec.ArchiveURLs},
		{bypasses, &rec.BypassURLs},
		{linkTags, &rec.LinkTags},
		{fbAttempts, &rec.FallbackAttempts},
	} {
		if err := fromBlob(blob.col, blob.target); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}
