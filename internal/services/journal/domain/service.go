// Package domain implements journal entry lifecycle behavior.
package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "github.com/mirajournal/mira/internal/platform/errors"
	"github.com/mirajournal/mira/internal/platform/id"
)

var (
	// ErrNotFound indicates a journal entry was not found.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "journal entry not found")
	// ErrNotAuthorized indicates the caller does not own the journal entry.
	ErrNotAuthorized = apperrors.New(apperrors.CodeNotAuthorized, "journal entry belongs to another user")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("journal store is not configured")
	// ErrOwnerRequired indicates owner identity is required.
	ErrOwnerRequired = apperrors.New(apperrors.CodeInvalidInput, "journal owner id is required")
	// ErrContentRequired indicates journal content is required.
	ErrContentRequired = apperrors.New(apperrors.CodeJournalContentEmpty, "journal content is required")
	// ErrJournalIDRequired indicates a journal id is required.
	ErrJournalIDRequired = apperrors.New(apperrors.CodeInvalidInput, "journal id is required")
)

// Journal captures one dated journal entry.
type Journal struct {
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

// CreateInput describes one new journal entry request.
type CreateInput struct {
	OwnerID   string
	Title     string
	Content   string
	EntryDate time.Time
}

// UpdateInput describes one journal entry edit.
type UpdateInput struct {
	OwnerID   string
	JournalID string
	Title     string
	Content   string
}

// Store is the domain persistence boundary for journal entries.
type Store interface {
	PutJournal(ctx context.Context, journal Journal) error
	GetJournal(ctx context.Context, journalID string) (Journal, error)
	UpdateJournal(ctx context.Context, journal Journal) error
	DeleteJournal(ctx context.Context, ownerID, journalID string) error
	ListJournalsByOwner(ctx context.Context, ownerID string) ([]Journal, error)
	ListRecentJournalsByOwner(ctx context.Context, ownerID, excludingJournalID string, limit int) ([]Journal, error)
}

// Service orchestrates journal entry lifecycle behavior.
type Service struct {
	store Store
	clock func() time.Time
	newID func() (string, error)
}

// NewService constructs journal domain use-cases.
func NewService(store Store, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store: store,
		clock: clock,
		newID: newID,
	}
}

// Create stores one journal entry. Consecutive-day entries extend the
// owner's writing streak, a gap resets it to one.
func (s *Service) Create(ctx context.Context, input CreateInput) (Journal, error) {
	if s == nil || s.store == nil {
		return Journal{}, ErrStoreNotConfigured
	}
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return Journal{}, ErrOwnerRequired
	}
	if strings.TrimSpace(input.Content) == "" {
		return Journal{}, ErrContentRequired
	}

	journalID, err := s.newID()
	if err != nil {
		return Journal{}, err
	}
	now := s.nowUTC()
	entryDate := input.EntryDate.UTC()
	if entryDate.IsZero() {
		entryDate = now
	}

	streak, err := s.streakFor(ctx, ownerID, entryDate)
	if err != nil {
		return Journal{}, err
	}

	journal := Journal{
		ID:          journalID,
		OwnerID:     ownerID,
		Title:       strings.TrimSpace(input.Title),
		Content:     input.Content,
		EntryDate:   entryDate,
		StreakCount: streak,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.PutJournal(ctx, journal); err != nil {
		return Journal{}, err
	}
	return journal, nil
}

// Get loads one journal entry scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID, journalID string) (Journal, error) {
	if s == nil || s.store == nil {
		return Journal{}, ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Journal{}, ErrOwnerRequired
	}
	journalID = strings.TrimSpace(journalID)
	if journalID == "" {
		return Journal{}, ErrJournalIDRequired
	}

	journal, err := s.store.GetJournal(ctx, journalID)
	if err != nil {
		return Journal{}, err
	}
	if journal.OwnerID != ownerID {
		return Journal{}, ErrNotAuthorized
	}
	return journal, nil
}

// Update edits one journal entry's title and content.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Journal, error) {
	if s == nil || s.store == nil {
		return Journal{}, ErrStoreNotConfigured
	}
	if strings.TrimSpace(input.Content) == "" {
		return Journal{}, ErrContentRequired
	}

	journal, err := s.Get(ctx, input.OwnerID, input.JournalID)
	if err != nil {
		return Journal{}, err
	}
	journal.Title = strings.TrimSpace(input.Title)
	journal.Content = input.Content
	journal.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateJournal(ctx, journal); err != nil {
		return Journal{}, err
	}
	return journal, nil
}

// RecordAnalysis stores generated summary and insight text on one entry.
func (s *Service) RecordAnalysis(ctx context.Context, ownerID, journalID, summary, insights string) (Journal, error) {
	if s == nil || s.store == nil {
		return Journal{}, ErrStoreNotConfigured
	}

	journal, err := s.Get(ctx, ownerID, journalID)
	if err != nil {
		return Journal{}, err
	}
	journal.Summary = strings.TrimSpace(summary)
	journal.Insights = strings.TrimSpace(insights)
	journal.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateJournal(ctx, journal); err != nil {
		return Journal{}, err
	}
	return journal, nil
}

// Delete removes one journal entry scoped to its owner.
func (s *Service) Delete(ctx context.Context, ownerID, journalID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	if _, err := s.Get(ctx, ownerID, journalID); err != nil {
		return err
	}
	return s.store.DeleteJournal(ctx, strings.TrimSpace(ownerID), strings.TrimSpace(journalID))
}

// List lists all of one owner's journal entries, newest entry date first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Journal, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	return s.store.ListJournalsByOwner(ctx, ownerID)
}

// ListRecent lists at most limit of one owner's most recent entries,
// excluding one journal id when provided.
func (s *Service) ListRecent(ctx context.Context, ownerID, excludingJournalID string, limit int) ([]Journal, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	return s.store.ListRecentJournalsByOwner(ctx, ownerID, strings.TrimSpace(excludingJournalID), limit)
}

func (s *Service) streakFor(ctx context.Context, ownerID string, entryDate time.Time) (int, error) {
	recent, err := s.store.ListRecentJournalsByOwner(ctx, ownerID, "", 1)
	if err != nil {
		return 0, err
	}
	if len(recent) == 0 {
		return 1, nil
	}

	previous := startOfDay(recent[0].EntryDate)
	current := startOfDay(entryDate)
	if current.Sub(previous) == 24*time.Hour {
		return recent[0].StreakCount + 1, nil
	}
	if current.Equal(previous) {
		return recent[0].StreakCount, nil
	}
	return 1, nil
}

func startOfDay(value time.Time) time.Time {
	value = value.UTC()
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
