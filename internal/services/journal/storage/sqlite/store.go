package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/mirajournal/mira/internal/platform/storage/sqlitemigrate"
	"github.com/mirajournal/mira/internal/services/journal/storage"
	"github.com/mirajournal/mira/internal/services/journal/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for journal entries.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a journal SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS, "")
}

// PutJournal persists one journal row.
func (s *Store) PutJournal(ctx context.Context, record storage.JournalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeJournalRecord(record)
	if err != nil {
		return err
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO journals (
    id, owner_id, title, content, entry_date, streak_count,
    summary, insights, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		normalized.ID,
		normalized.OwnerID,
		normalized.Title,
		normalized.Content,
		toMillis(normalized.EntryDate),
		normalized.StreakCount,
		normalized.Summary,
		normalized.Insights,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	); err != nil {
		return fmt.Errorf("put journal: %w", err)
	}
	return nil
}

// GetJournal loads one journal row by id.
func (s *Store) GetJournal(ctx context.Context, journalID string) (storage.JournalRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.JournalRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.JournalRecord{}, fmt.Errorf("storage is not configured")
	}
	journalID = strings.TrimSpace(journalID)
	if journalID == "" {
		return storage.JournalRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, title, content, entry_date, streak_count,
       summary, insights, created_at, updated_at
FROM journals
WHERE id = ?
`, journalID)
	record, err := scanJournal(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.JournalRecord{}, storage.ErrNotFound
		}
		return storage.JournalRecord{}, fmt.Errorf("get journal: %w", err)
	}
	return record, nil
}

// UpdateJournal rewrites one journal row's mutable fields.
func (s *Store) UpdateJournal(ctx context.Context, record storage.JournalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeJournalRecord(record)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE journals
SET title = ?, content = ?, entry_date = ?, streak_count = ?,
    summary = ?, insights = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`,
		normalized.Title,
		normalized.Content,
		toMillis(normalized.EntryDate),
		normalized.StreakCount,
		normalized.Summary,
		normalized.Insights,
		toMillis(normalized.UpdatedAt),
		normalized.ID,
		normalized.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update journal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update journal rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteJournal removes one journal row scoped to its owner.
func (s *Store) DeleteJournal(ctx context.Context, ownerID, journalID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	journalID = strings.TrimSpace(journalID)
	if ownerID == "" || journalID == "" {
		return storage.ErrNotFound
	}

	result, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM journals WHERE id = ? AND owner_id = ?
`, journalID, ownerID)
	if err != nil {
		return fmt.Errorf("delete journal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete journal rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListJournalsByOwner lists all of one owner's journal entries, newest entry
// date first.
func (s *Store) ListJournalsByOwner(ctx context.Context, ownerID string) ([]storage.JournalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, title, content, entry_date, streak_count,
       summary, insights, created_at, updated_at
FROM journals
WHERE owner_id = ?
ORDER BY entry_date DESC, id DESC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list journals: %w", err)
	}
	defer rows.Close()
	return collectJournals(rows)
}

// ListRecentJournalsByOwner lists at most limit of one owner's most recent
// journal entries, excluding one journal id when provided.
func (s *Store) ListRecentJournalsByOwner(ctx context.Context, ownerID, excludingJournalID string, limit int) ([]storage.JournalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, fmt.Errorf("owner id is required")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, owner_id, title, content, entry_date, streak_count,
       summary, insights, created_at, updated_at
FROM journals
WHERE owner_id = ? AND id != ?
ORDER BY entry_date DESC, id DESC
LIMIT ?
`, ownerID, strings.TrimSpace(excludingJournalID), limit)
	if err != nil {
		return nil, fmt.Errorf("list recent journals: %w", err)
	}
	defer rows.Close()
	return collectJournals(rows)
}

func normalizeJournalRecord(record storage.JournalRecord) (storage.JournalRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.OwnerID = strings.TrimSpace(record.OwnerID)
	if record.ID == "" {
		return storage.JournalRecord{}, fmt.Errorf("journal id is required")
	}
	if record.OwnerID == "" {
		return storage.JournalRecord{}, fmt.Errorf("owner id is required")
	}
	if strings.TrimSpace(record.Content) == "" {
		return storage.JournalRecord{}, fmt.Errorf("content is required")
	}
	return record, nil
}

func scanJournal(scan func(dest ...any) error) (storage.JournalRecord, error) {
	var (
		record    storage.JournalRecord
		entryDate int64
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&record.ID,
		&record.OwnerID,
		&record.Title,
		&record.Content,
		&entryDate,
		&record.StreakCount,
		&record.Summary,
		&record.Insights,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.JournalRecord{}, err
	}
	record.EntryDate = fromMillis(entryDate)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectJournals(rows *sql.Rows) ([]storage.JournalRecord, error) {
	var records []storage.JournalRecord
	for rows.Next() {
		record, err := scanJournal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan journal: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journals: %w", err)
	}
	return records, nil
}

var _ storage.JournalStore = (*Store)(nil)
