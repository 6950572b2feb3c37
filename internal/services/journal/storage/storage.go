// Package storage defines persistence contracts for journal entries.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested journal record is missing.
var ErrNotFound = errors.New("record not found")

// JournalRecord stores one owner-scoped journal entry.
type JournalRecord struct {
	ID          string
	OwnerID     string
	Title       string
	Content     string
	EntryDate   time.Time
	StreakCount int
	Summary     string
	Insights    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// JournalStore persists journal entries.
type JournalStore interface {
	PutJournal(ctx context.Context, record JournalRecord) error
	GetJournal(ctx context.Context, journalID string) (JournalRecord, error)
	UpdateJournal(ctx context.Context, record JournalRecord) error
	DeleteJournal(ctx context.Context, ownerID, journalID string) error
	// ListJournalsByOwner returns all entries for one owner, newest first.
	ListJournalsByOwner(ctx context.Context, ownerID string) ([]JournalRecord, error)
	// ListRecentJournalsByOwner returns at most limit entries for one owner,
	// newest first, excluding the given journal.
	ListRecentJournalsByOwner(ctx context.Context, ownerID string, excludingJournalID string, limit int) ([]JournalRecord, error)
}
