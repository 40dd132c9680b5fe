package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/blockstrings/internal"
)

// ErrNotFound is returned when an entry addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS translation_memory (
		id TEXT PRIMARY KEY,
		source_text TEXT NOT NULL,
		locale TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 0,
		invalidated BOOLEAN DEFAULT FALSE,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_text, locale)
	);

	-- extractions records every candidate string seen by the extract command
	CREATE TABLE IF NOT EXISTS extractions (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		block_name TEXT NOT NULL,
		source_text TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_memory_lookup ON translation_memory(source_text, locale);
	CREATE INDEX IF NOT EXISTS idx_extractions_text ON extractions(source_text);
	`

	_, err := s.db.Exec(schema)
	return err
}

// SaveTranslation inserts or replaces the translation of sourceText for locale.
// A replaced entry is re-validated.
func (s *Store) SaveTranslation(ctx context.Context, sourceText, locale, translatedText string) error {
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO translation_memory (id, source_text, locale, translated_text, usage_count, invalidated, last_used, created_at)
		 VALUES (?, ?, ?, ?, 0, FALSE, ?, ?)
		 ON CONFLICT(source_text, locale) DO UPDATE SET translated_text = excluded.translated_text, invalidated = FALSE, last_used = excluded.last_used`,
		uuid.NewString(), normalizeText(sourceText), locale, translatedText, now, now)
	return err
}

// Lookup returns the active translation of sourceText for locale and bumps its
// usage counter.
func (s *Store) Lookup(ctx context.Context, sourceText, locale string) (string, bool, error) {
	var translated string
	var invalidated bool

	key := normalizeText(sourceText)
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text, invalidated FROM translation_memory WHERE source_text = ? AND locale = ?`,
		key, locale).Scan(&translated, &invalidated)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	if invalidated {
		return "", false, nil
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_memory SET usage_count = usage_count + 1, last_used = ? WHERE source_text = ? AND locale = ?`,
		time.Now(), key, locale)

	return translated, true, err
}

// Replacements builds a replacement mapping for candidates from the memory.
// Keys are the candidates exactly as given; candidates without an active
// translation are left out.
func (s *Store) Replacements(ctx context.Context, locale string, candidates []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, done := out[c]; done {
			continue
		}
		translated, found, err := s.Lookup(ctx, c, locale)
		if err != nil {
			return nil, fmt.Errorf("lookup %q: %w", c, err)
		}
		if found {
			out[c] = translated
		}
	}
	return out, nil
}

// RecordExtraction stores a candidate seen in a source file. An empty ID or
// zero Timestamp is filled in.
func (s *Store) RecordExtraction(ctx context.Context, e internal.Extraction) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (id, source_file, block_name, source_text, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.SourceFile, e.BlockName, normalizeText(e.SourceText), e.Timestamp)
	return err
}

// Pending returns extracted strings that have no active translation for
// locale, in the order they were first recorded.
func (s *Store) Pending(ctx context.Context, locale string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.source_text FROM extractions e
		 LEFT JOIN translation_memory m
		   ON m.source_text = e.source_text AND m.locale = ? AND NOT m.invalidated
		 WHERE m.id IS NULL
		 GROUP BY e.source_text
		 ORDER BY MIN(e.rowid)`,
		locale)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		out = append(out, text)
	}
	return out, rows.Err()
}

// MemoryEntry is a row from the translation_memory table.
type MemoryEntry struct {
	ID             string
	SourceText     string
	Locale         string
	TranslatedText string
	UsageCount     int
	Invalidated    bool
	LastUsed       time.Time
}

// MemoryStats summarises translation memory usage.
type MemoryStats struct {
	TotalEntries   int
	ActiveEntries  int
	InvalidEntries int
	TotalUsage     int
	Extractions    int
}

func (s *Store) InvalidateMemory(ctx context.Context, id string) error {
	return s.execByID(ctx, `UPDATE translation_memory SET invalidated = TRUE WHERE id = ?`, id)
}

// DeleteMemory permanently removes a translation memory entry by ID.
func (s *Store) DeleteMemory(ctx context.Context, id string) error {
	return s.execByID(ctx, `DELETE FROM translation_memory WHERE id = ?`, id)
}

func (s *Store) execByID(ctx context.Context, query, id string) error {
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// ClearMemory removes all translation memory entries and recorded extractions.
func (s *Store) ClearMemory(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM translation_memory`)
	if err != nil {
		return 0, err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM extractions`); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListMemory returns translation memory entries ordered by most recently used,
// optionally restricted to one locale.
func (s *Store) ListMemory(ctx context.Context, locale string) ([]MemoryEntry, error) {
	query := `SELECT id, source_text, locale, translated_text, usage_count, invalidated, last_used FROM translation_memory`
	var args []interface{}
	if locale != "" {
		query += ` WHERE locale = ?`
		args = append(args, locale)
	}
	query += ` ORDER BY last_used DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []MemoryEntry
	for rows.Next() {
		var e MemoryEntry
		if err := rows.Scan(&e.ID, &e.SourceText, &e.Locale, &e.TranslatedText, &e.UsageCount, &e.Invalidated, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// Stats returns summary statistics for the translation memory.
func (s *Store) Stats(ctx context.Context) (*MemoryStats, error) {
	stats := &MemoryStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN NOT invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN invalidated THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(usage_count), 0)
		FROM translation_memory`).Scan(
		&stats.TotalEntries,
		&stats.ActiveEntries,
		&stats.InvalidEntries,
		&stats.TotalUsage,
	)
	if err != nil {
		return nil, err
	}

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extractions`).Scan(&stats.Extractions); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText applies Unicode NFC normalization for consistent key
// comparison. Whitespace is kept: replacement keys must match candidates
// exactly.
func normalizeText(text string) string {
	return norm.NFC.String(text)
}
