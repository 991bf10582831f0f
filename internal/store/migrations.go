package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// Migration is one versioned schema change.
type Migration struct {
	Version int
	Name    string
	Up      string
}

var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_analysis_records",
		Up: `
			CREATE TABLE IF NOT EXISTS analysis_records (
				id TEXT PRIMARY KEY,
				url TEXT NOT NULL,
				url_normalized TEXT NOT NULL,
				content_hash TEXT NOT NULL,
				title TEXT,
				author TEXT,
				publish_date TEXT,
				domain TEXT,
				is_social_media BOOLEAN NOT NULL DEFAULT FALSE,
				social_platform TEXT,
				extracted_text TEXT,
				word_count INTEGER NOT NULL DEFAULT 0,
				summary TEXT,
				word_frequency TEXT,
				top_phrases TEXT,
				entities TEXT,
				sentiment_analysis TEXT,
				keyphrases TEXT,
				topics TEXT,
				claim_analysis TEXT,
				links TEXT,
				archive_urls TEXT,
				bypass_urls TEXT,
				save_link BOOLEAN NOT NULL DEFAULT FALSE,
				link_note TEXT,
				link_tags TEXT,
				share_token TEXT,
				is_public BOOLEAN NOT NULL DEFAULT FALSE,
				processing_mode TEXT NOT NULL DEFAULT 'normal',
				processing_duration_ms BIGINT NOT NULL DEFAULT 0,
				fallback_source TEXT,
				fallback_attempts TEXT,
				access_count INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_records_url_normalized ON analysis_records(url_normalized);
			CREATE INDEX IF NOT EXISTS idx_records_content_hash ON analysis_records(content_hash);
			CREATE INDEX IF NOT EXISTS idx_records_share_token ON analysis_records(share_token);
		`,
	},
	{
		Version: 2,
		Name:    "create_dedup_entries",
		Up: `
			CREATE TABLE IF NOT EXISTS dedup_entries (
				content_hash TEXT PRIMARY KEY,
				canonical_id TEXT NOT NULL,
				duplicate_count INTEGER NOT NULL DEFAULT 0,
				total_access_count INTEGER NOT NULL DEFAULT 1,
				first_analyzed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				last_accessed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`,
	},
	{
		Version: 3,
		Name:    "create_text_chunks",
		Up: `
			CREATE TABLE IF NOT EXISTS text_chunks (
				analysis_id TEXT NOT NULL REFERENCES analysis_records(id) ON DELETE CASCADE,
				chunk_index INTEGER NOT NULL,
				content TEXT NOT NULL,
				PRIMARY KEY (analysis_id, chunk_index)
			);
		`,
	},
}

// Migrate runs all pending migrations in version order.
func Migrate(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	current, err := currentVersion(db)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}

	sorted := make([]Migration, len(migrations))
	copy(sorted, migrations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Version < sorted[j].Version })

	for _, m := range sorted {
		if m.Version <= current {
			continue
		}
		if err := runMigration(db, m); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.Version, m.Name, err)
		}
	}
	return nil
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
	`)
	return err
}

func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	return version, err
}

func runMigration(db *sql.DB, m Migration) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(m.Up); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Version, m.Name); err != nil {
		return err
	}
	return tx.Commit()
}
