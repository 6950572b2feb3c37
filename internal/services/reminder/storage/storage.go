// Package storage defines persistence contracts for reminder state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested reminder or connection record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrConflict indicates a write conflicts with uniqueness constraints.
	ErrConflict = errors.New("record conflict")
)

// ReminderRecord stores one owner-scoped commitment through its lifecycle.
type ReminderRecord struct {
	ID                      string
	OwnerID                 string
	SourceJournalID         string
	Title                   string
	Description             string
	EventAt                 time.Time
	OriginalSentence        string
	Status                  string
	ExternalCalendarEventID string
	SyncFailureReason       string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CalendarConnectionRecord stores one owner's external calendar credentials.
type CalendarConnectionRecord struct {
	OwnerID      string
	RefreshToken string
	ConnectedAt  time.Time
}

// ReminderStore persists reminder lifecycle state.
type ReminderStore interface {
	PutReminder(ctx context.Context, record ReminderRecord) error
	GetReminder(ctx context.Context, reminderID string) (ReminderRecord, error)
	UpdateReminder(ctx context.Context, record ReminderRecord) error
	// ListRemindersByOwner returns all reminders for one owner ordered by
	// event time, soonest first.
	ListRemindersByOwner(ctx context.Context, ownerID string) ([]ReminderRecord, error)
	// ListActiveRemindersByOwner returns at most limit non-cancelled
	// reminders for one owner, most recently created first.
	ListActiveRemindersByOwner(ctx context.Context, ownerID string, limit int) ([]ReminderRecord, error)
}

// CalendarConnectionStore persists external calendar connection state.
type CalendarConnectionStore interface {
	PutCalendarConnection(ctx context.Context, record CalendarConnectionRecord) error
	GetCalendarConnection(ctx context.Context, ownerID string) (CalendarConnectionRecord, error)
	DeleteCalendarConnection(ctx context.Context, ownerID string) error
}
