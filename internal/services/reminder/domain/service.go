// Package domain implements reminder lifecycle behavior, from natural
// language event detection through calendar synchronization.
package domain

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	apperrors "github.com/mirajournal/mira/internal/platform/errors"
	"github.com/mirajournal/mira/internal/platform/id"
	"github.com/mirajournal/mira/internal/services/reminder/adjudicate"
	"github.com/mirajournal/mira/internal/services/reminder/temporal"
)

var (
	// ErrNotFound indicates a reminder was not found.
	ErrNotFound = apperrors.New(apperrors.CodeNotFound, "reminder not found")
	// ErrNotAuthorized indicates the caller does not own the reminder.
	ErrNotAuthorized = apperrors.New(apperrors.CodeNotAuthorized, "reminder belongs to another user")
	// ErrStoreNotConfigured indicates the service is missing persistence wiring.
	ErrStoreNotConfigured = errors.New("reminder store is not configured")
	// ErrOwnerRequired indicates owner identity is required.
	ErrOwnerRequired = apperrors.New(apperrors.CodeReminderOwnerEmpty, "reminder owner id is required")
	// ErrTitleRequired indicates a reminder title is required.
	ErrTitleRequired = apperrors.New(apperrors.CodeReminderTitleEmpty, "reminder title is required")
	// ErrReminderIDRequired indicates a reminder id is required.
	ErrReminderIDRequired = apperrors.New(apperrors.CodeInvalidInput, "reminder id is required")
	// ErrInvalidTransition indicates a lifecycle transition is not permitted.
	ErrInvalidTransition = apperrors.New(apperrors.CodeReminderInvalidTransition, "reminder status transition not permitted")
	// ErrCalendarNotConnected indicates the owner has no linked calendar.
	ErrCalendarNotConnected = apperrors.New(apperrors.CodeCalendarNotConnected, "no calendar connected for user")
	// ErrSyncFailed indicates the calendar provider rejected a sync attempt.
	ErrSyncFailed = apperrors.New(apperrors.CodeSyncFailure, "calendar sync failed")
	// ErrUpstreamUnavailable indicates a required collaborator could not serve.
	ErrUpstreamUnavailable = apperrors.New(apperrors.CodeUpstreamUnavailable, "event detection is temporarily unavailable")
)

// Reminder captures one scheduled intention surfaced from journaling.
type Reminder struct {
	ID                      string
	OwnerID                 string
	SourceJournalID         string
	Title                   string
	Description             string
	EventAt                 time.Time
	OriginalSentence        string
	Status                  Status
	ExternalCalendarEventID string
	SyncFailureReason       string
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// CalendarConnection links one owner to an external calendar account.
type CalendarConnection struct {
	OwnerID      string
	RefreshToken string
	ConnectedAt  time.Time
}

// CalendarEvent is the provider-neutral shape of one synced event.
type CalendarEvent struct {
	Title       string
	Description string
	StartsAt    time.Time
}

// Store is the domain persistence boundary for reminder lifecycle behavior.
type Store interface {
	PutReminder(ctx context.Context, reminder Reminder) error
	GetReminder(ctx context.Context, reminderID string) (Reminder, error)
	UpdateReminder(ctx context.Context, reminder Reminder) error
	ListRemindersByOwner(ctx context.Context, ownerID string) ([]Reminder, error)

	PutCalendarConnection(ctx context.Context, connection CalendarConnection) error
	GetCalendarConnection(ctx context.Context, ownerID string) (CalendarConnection, error)
	DeleteCalendarConnection(ctx context.Context, ownerID string) error
}

// Extractor surfaces candidate future events mentioned in journal text.
type Extractor interface {
	ExtractEvents(ctx context.Context, content string, recentEntries []string) ([]temporal.Candidate, error)
}

// Calendar is the external calendar provider boundary.
type Calendar interface {
	CreateEvent(ctx context.Context, refreshToken string, event CalendarEvent) (string, error)
	DeleteEvent(ctx context.Context, refreshToken string, externalEventID string) error
}

// HistorySnapshot carries prior context consulted during reconciliation.
type HistorySnapshot struct {
	RecentEntries []string
	Reminders     []adjudicate.Existing
}

// History provides the recent journal and reminder context for one owner.
type History interface {
	Snapshot(ctx context.Context, ownerID string, excludingJournalID string) (HistorySnapshot, error)
}

// ProposeInput describes one user-authored reminder request.
type ProposeInput struct {
	OwnerID          string
	SourceJournalID  string
	Title            string
	Description      string
	EventAt          time.Time
	OriginalSentence string
}

// Service orchestrates reminder lifecycle behavior.
type Service struct {
	store       Store
	extractor   Extractor
	calendar    Calendar
	history     History
	adjudicator *adjudicate.Adjudicator
	clock       func() time.Time
	newID       func() (string, error)
}

// NewService constructs reminder domain use-cases. The extractor, calendar,
// and history collaborators are optional; operations that need an absent
// collaborator fail with a descriptive error.
func NewService(store Store, extractor Extractor, calendar Calendar, history History, clock func() time.Time, newID func() (string, error)) *Service {
	if clock == nil {
		clock = time.Now
	}
	if newID == nil {
		newID = id.NewID
	}
	return &Service{
		store:       store,
		extractor:   extractor,
		calendar:    calendar,
		history:     history,
		adjudicator: adjudicate.New(nil),
		clock:       clock,
		newID:       newID,
	}
}

// Propose stores one user-authored reminder awaiting confirmation.
func (s *Service) Propose(ctx context.Context, input ProposeInput) (Reminder, error) {
	if s == nil || s.store == nil {
		return Reminder{}, ErrStoreNotConfigured
	}
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return Reminder{}, ErrOwnerRequired
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return Reminder{}, ErrTitleRequired
	}
	if input.EventAt.IsZero() {
		return Reminder{}, apperrors.New(apperrors.CodeInvalidInput, "reminder event time is required")
	}

	reminderID, err := s.newID()
	if err != nil {
		return Reminder{}, err
	}
	now := s.nowUTC()
	reminder := Reminder{
		ID:               reminderID,
		OwnerID:          ownerID,
		SourceJournalID:  strings.TrimSpace(input.SourceJournalID),
		Title:            title,
		Description:      strings.TrimSpace(input.Description),
		EventAt:          input.EventAt.UTC(),
		OriginalSentence: strings.TrimSpace(input.OriginalSentence),
		Status:           StatusProposed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.PutReminder(ctx, reminder); err != nil {
		return Reminder{}, err
	}
	return reminder, nil
}

// Confirm moves one proposed reminder to confirmed.
func (s *Service) Confirm(ctx context.Context, ownerID, reminderID string) (Reminder, error) {
	if s == nil || s.store == nil {
		return Reminder{}, ErrStoreNotConfigured
	}
	reminder, err := s.ownedReminder(ctx, ownerID, reminderID)
	if err != nil {
		return Reminder{}, err
	}
	if !CanTransition(reminder.Status, StatusConfirmed) {
		return Reminder{}, apperrors.WithMetadata(apperrors.CodeReminderInvalidTransition,
			"reminder cannot be confirmed", map[string]string{"status": string(reminder.Status)})
	}

	reminder.Status = StatusConfirmed
	reminder.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateReminder(ctx, reminder); err != nil {
		return Reminder{}, err
	}
	return reminder, nil
}

// AttemptSync materializes one confirmed reminder as an external calendar
// event. Syncing an already synced reminder is a no-op. A provider failure
// leaves the reminder confirmed with the failure reason recorded so the
// attempt can be retried.
func (s *Service) AttemptSync(ctx context.Context, ownerID, reminderID string) (Reminder, error) {
	if s == nil || s.store == nil {
		return Reminder{}, ErrStoreNotConfigured
	}
	if s.calendar == nil {
		return Reminder{}, errors.New("calendar provider is not configured")
	}
	reminder, err := s.ownedReminder(ctx, ownerID, reminderID)
	if err != nil {
		return Reminder{}, err
	}
	if reminder.Status == StatusSynced {
		return reminder, nil
	}
	if !CanTransition(reminder.Status, StatusSynced) {
		return Reminder{}, apperrors.WithMetadata(apperrors.CodeReminderInvalidTransition,
			"reminder cannot be synced", map[string]string{"status": string(reminder.Status)})
	}

	connection, err := s.store.GetCalendarConnection(ctx, reminder.OwnerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Reminder{}, ErrCalendarNotConnected
		}
		return Reminder{}, err
	}

	externalID, syncErr := s.calendar.CreateEvent(ctx, connection.RefreshToken, CalendarEvent{
		Title:       reminder.Title,
		Description: syncDescription(reminder),
		StartsAt:    reminder.EventAt,
	})
	now := s.nowUTC()
	if syncErr != nil {
		reminder.SyncFailureReason = syncErr.Error()
		reminder.UpdatedAt = now
		if err := s.store.UpdateReminder(ctx, reminder); err != nil {
			return Reminder{}, err
		}
		return Reminder{}, apperrors.Wrap(apperrors.CodeSyncFailure, "calendar sync failed", syncErr)
	}

	reminder.Status = StatusSynced
	reminder.ExternalCalendarEventID = externalID
	reminder.SyncFailureReason = ""
	reminder.UpdatedAt = now
	if err := s.store.UpdateReminder(ctx, reminder); err != nil {
		return Reminder{}, err
	}
	return reminder, nil
}

// Cancel terminally dismisses one reminder. Cancelling a synced reminder
// attempts to delete the external calendar event on a best-effort basis.
func (s *Service) Cancel(ctx context.Context, ownerID, reminderID string) (Reminder, error) {
	if s == nil || s.store == nil {
		return Reminder{}, ErrStoreNotConfigured
	}
	reminder, err := s.ownedReminder(ctx, ownerID, reminderID)
	if err != nil {
		return Reminder{}, err
	}
	if !CanTransition(reminder.Status, StatusCancelled) {
		return Reminder{}, apperrors.WithMetadata(apperrors.CodeReminderInvalidTransition,
			"reminder cannot be cancelled", map[string]string{"status": string(reminder.Status)})
	}

	if reminder.Status == StatusSynced && reminder.ExternalCalendarEventID != "" && s.calendar != nil {
		connection, err := s.store.GetCalendarConnection(ctx, reminder.OwnerID)
		if err == nil {
			if err := s.calendar.DeleteEvent(ctx, connection.RefreshToken, reminder.ExternalCalendarEventID); err != nil {
				log.Printf("reminder %s: external event %s delete failed: %v", reminder.ID, reminder.ExternalCalendarEventID, err)
			}
		} else if !errors.Is(err, ErrNotFound) {
			log.Printf("reminder %s: calendar connection lookup failed: %v", reminder.ID, err)
		}
	}

	reminder.Status = StatusCancelled
	reminder.ExternalCalendarEventID = ""
	reminder.UpdatedAt = s.nowUTC()
	if err := s.store.UpdateReminder(ctx, reminder); err != nil {
		return Reminder{}, err
	}
	return reminder, nil
}

// Get loads one reminder scoped to its owner.
func (s *Service) Get(ctx context.Context, ownerID, reminderID string) (Reminder, error) {
	if s == nil || s.store == nil {
		return Reminder{}, ErrStoreNotConfigured
	}
	return s.ownedReminder(ctx, ownerID, reminderID)
}

// List lists all of one owner's reminders, soonest event first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Reminder, error) {
	if s == nil || s.store == nil {
		return nil, ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, ErrOwnerRequired
	}
	return s.store.ListRemindersByOwner(ctx, ownerID)
}

// ConnectCalendar stores one owner's calendar refresh token.
func (s *Service) ConnectCalendar(ctx context.Context, ownerID, refreshToken string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ErrOwnerRequired
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return apperrors.New(apperrors.CodeInvalidInput, "calendar refresh token is required")
	}
	return s.store.PutCalendarConnection(ctx, CalendarConnection{
		OwnerID:      ownerID,
		RefreshToken: refreshToken,
		ConnectedAt:  s.nowUTC(),
	})
}

// CalendarStatus reports whether one owner has a calendar connected and,
// when connected, since when.
func (s *Service) CalendarStatus(ctx context.Context, ownerID string) (CalendarConnection, bool, error) {
	if s == nil || s.store == nil {
		return CalendarConnection{}, false, ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return CalendarConnection{}, false, ErrOwnerRequired
	}
	connection, err := s.store.GetCalendarConnection(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return CalendarConnection{}, false, nil
		}
		return CalendarConnection{}, false, err
	}
	return connection, true, nil
}

// DisconnectCalendar removes one owner's calendar connection.
func (s *Service) DisconnectCalendar(ctx context.Context, ownerID string) error {
	if s == nil || s.store == nil {
		return ErrStoreNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return ErrOwnerRequired
	}
	return s.store.DeleteCalendarConnection(ctx, ownerID)
}

func (s *Service) ownedReminder(ctx context.Context, ownerID, reminderID string) (Reminder, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return Reminder{}, ErrOwnerRequired
	}
	reminderID = strings.TrimSpace(reminderID)
	if reminderID == "" {
		return Reminder{}, ErrReminderIDRequired
	}
	reminder, err := s.store.GetReminder(ctx, reminderID)
	if err != nil {
		return Reminder{}, err
	}
	if reminder.OwnerID != ownerID {
		return Reminder{}, ErrNotAuthorized
	}
	return reminder, nil
}

func syncDescription(reminder Reminder) string {
	if reminder.OriginalSentence != "" {
		return reminder.OriginalSentence
	}
	return reminder.Description
}

func (s *Service) nowUTC() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock().UTC()
}
