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
	"github.com/mirajournal/mira/internal/services/reminder/storage"
	"github.com/mirajournal/mira/internal/services/reminder/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for reminder state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a reminder SQLite store at the provided path.
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

// PutReminder persists one reminder row.
func (s *Store) PutReminder(ctx context.Context, record storage.ReminderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeReminderRecord(record)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO reminders (
    id, owner_id, source_journal_id, title, description, event_at,
    original_sentence, status, external_calendar_event_id,
    sync_failure_reason, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		normalized.ID,
		normalized.OwnerID,
		normalized.SourceJournalID,
		normalized.Title,
		normalized.Description,
		toMillis(normalized.EventAt),
		normalized.OriginalSentence,
		normalized.Status,
		normalized.ExternalCalendarEventID,
		normalized.SyncFailureReason,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("put reminder: %w", err)
	}
	return nil
}

// GetReminder loads one reminder row by id.
func (s *Store) GetReminder(ctx context.Context, reminderID string) (storage.ReminderRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ReminderRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ReminderRecord{}, fmt.Errorf("storage is not configured")
	}
	reminderID = strings.TrimSpace(reminderID)
	if reminderID == "" {
		return storage.ReminderRecord{}, storage.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, owner_id, source_journal_id, title, description, event_at,
       original_sentence, status, external_calendar_event_id,
       sync_failure_reason, created_at, updated_at
FROM reminders
WHERE id = ?
`, reminderID)
	record, err := scanReminder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ReminderRecord{}, storage.ErrNotFound
		}
		return storage.ReminderRecord{}, fmt.Errorf("get reminder: %w", err)
	}
	return record, nil
}

// UpdateReminder rewrites one reminder row's mutable lifecycle fields.
func (s *Store) UpdateReminder(ctx context.Context, record storage.ReminderRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeReminderRecord(record)
	if err != nil {
		return err
	}

	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE reminders
SET title = ?, description = ?, event_at = ?, status = ?,
    external_calendar_event_id = ?, sync_failure_reason = ?, updated_at = ?
WHERE id = ? AND owner_id = ?
`,
		normalized.Title,
		normalized.Description,
		toMillis(normalized.EventAt),
		normalized.Status,
		normalized.ExternalCalendarEventID,
		normalized.SyncFailureReason,
		toMillis(normalized.UpdatedAt),
		normalized.ID,
		normalized.OwnerID,
	)
	if err != nil {
		return fmt.Errorf("update reminder: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update reminder rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ListRemindersByOwner lists all of one owner's reminders, soonest first.
func (s *Store) ListRemindersByOwner(ctx context.Context, ownerID string) ([]storage.ReminderRecord, error) {
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
SELECT id, owner_id, source_journal_id, title, description, event_at,
       original_sentence, status, external_calendar_event_id,
       sync_failure_reason, created_at, updated_at
FROM reminders
WHERE owner_id = ?
ORDER BY event_at ASC, id ASC
`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// ListActiveRemindersByOwner lists at most limit non-cancelled reminders for
// one owner, most recently created first.
func (s *Store) ListActiveRemindersByOwner(ctx context.Context, ownerID string, limit int) ([]storage.ReminderRecord, error) {
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
SELECT id, owner_id, source_journal_id, title, description, event_at,
       original_sentence, status, external_calendar_event_id,
       sync_failure_reason, created_at, updated_at
FROM reminders
WHERE owner_id = ? AND status != 'cancelled'
ORDER BY created_at DESC, id DESC
LIMIT ?
`, ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list active reminders: %w", err)
	}
	defer rows.Close()
	return collectReminders(rows)
}

// PutCalendarConnection upserts one owner's calendar connection row.
func (s *Store) PutCalendarConnection(ctx context.Context, record storage.CalendarConnectionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerID := strings.TrimSpace(record.OwnerID)
	if ownerID == "" {
		return fmt.Errorf("owner id is required")
	}
	refreshToken := strings.TrimSpace(record.RefreshToken)
	if refreshToken == "" {
		return fmt.Errorf("refresh token is required")
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO calendar_connections (owner_id, refresh_token, connected_at)
VALUES (?, ?, ?)
ON CONFLICT (owner_id) DO UPDATE SET
    refresh_token = excluded.refresh_token,
    connected_at = excluded.connected_at
`, ownerID, refreshToken, toMillis(record.ConnectedAt))
	if err != nil {
		return fmt.Errorf("put calendar connection: %w", err)
	}
	return nil
}

// GetCalendarConnection loads one owner's calendar connection row.
func (s *Store) GetCalendarConnection(ctx context.Context, ownerID string) (storage.CalendarConnectionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CalendarConnectionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CalendarConnectionRecord{}, fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return storage.CalendarConnectionRecord{}, storage.ErrNotFound
	}

	var (
		record      storage.CalendarConnectionRecord
		connectedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx, `
SELECT owner_id, refresh_token, connected_at
FROM calendar_connections
WHERE owner_id = ?
`, ownerID).Scan(&record.OwnerID, &record.RefreshToken, &connectedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CalendarConnectionRecord{}, storage.ErrNotFound
		}
		return storage.CalendarConnectionRecord{}, fmt.Errorf("get calendar connection: %w", err)
	}
	record.ConnectedAt = fromMillis(connectedAt)
	return record, nil
}

// DeleteCalendarConnection removes one owner's calendar connection row.
func (s *Store) DeleteCalendarConnection(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return storage.ErrNotFound
	}

	if _, err := s.sqlDB.ExecContext(ctx, `
DELETE FROM calendar_connections WHERE owner_id = ?
`, ownerID); err != nil {
		return fmt.Errorf("delete calendar connection: %w", err)
	}
	return nil
}

func normalizeReminderRecord(record storage.ReminderRecord) (storage.ReminderRecord, error) {
	record.ID = strings.TrimSpace(record.ID)
	record.OwnerID = strings.TrimSpace(record.OwnerID)
	record.Title = strings.TrimSpace(record.Title)
	record.Status = strings.TrimSpace(record.Status)
	if record.ID == "" {
		return storage.ReminderRecord{}, fmt.Errorf("reminder id is required")
	}
	if record.OwnerID == "" {
		return storage.ReminderRecord{}, fmt.Errorf("owner id is required")
	}
	if record.Title == "" {
		return storage.ReminderRecord{}, fmt.Errorf("title is required")
	}
	if record.Status == "" {
		return storage.ReminderRecord{}, fmt.Errorf("status is required")
	}
	if record.EventAt.IsZero() {
		return storage.ReminderRecord{}, fmt.Errorf("event time is required")
	}
	return record, nil
}

func scanReminder(scan func(dest ...any) error) (storage.ReminderRecord, error) {
	var (
		record    storage.ReminderRecord
		eventAt   int64
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&record.ID,
		&record.OwnerID,
		&record.SourceJournalID,
		&record.Title,
		&record.Description,
		&eventAt,
		&record.OriginalSentence,
		&record.Status,
		&record.ExternalCalendarEventID,
		&record.SyncFailureReason,
		&createdAt,
		&updatedAt,
	); err != nil {
		return storage.ReminderRecord{}, err
	}
	record.EventAt = fromMillis(eventAt)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

func collectReminders(rows *sql.Rows) ([]storage.ReminderRecord, error) {
	var records []storage.ReminderRecord
	for rows.Next() {
		record, err := scanReminder(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return records, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint") || strings.Contains(message, "constraint failed")
}

var _ storage.ReminderStore = (*Store)(nil)
var _ storage.CalendarConnectionStore = (*Store)(nil)
