// Package app wires reminder domain behavior onto storage contracts.
package app

import (
	"context"
	"errors"

	"github.com/mirajournal/mira/internal/services/reminder/domain"
	"github.com/mirajournal/mira/internal/services/reminder/storage"
)

// StoreAdapter exposes reminder and calendar connection stores as a
// domain.Store.
type StoreAdapter struct {
	reminderStore   storage.ReminderStore
	connectionStore storage.CalendarConnectionStore
}

// NewStoreAdapter constructs the reminder persistence adapter.
func NewStoreAdapter(reminderStore storage.ReminderStore, connectionStore storage.CalendarConnectionStore) *StoreAdapter {
	return &StoreAdapter{
		reminderStore:   reminderStore,
		connectionStore: connectionStore,
	}
}

func (a *StoreAdapter) PutReminder(ctx context.Context, reminder domain.Reminder) error {
	if a == nil || a.reminderStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.reminderStore.PutReminder(ctx, toStorageReminder(reminder)))
}

func (a *StoreAdapter) GetReminder(ctx context.Context, reminderID string) (domain.Reminder, error) {
	if a == nil || a.reminderStore == nil {
		return domain.Reminder{}, domain.ErrStoreNotConfigured
	}
	record, err := a.reminderStore.GetReminder(ctx, reminderID)
	if err != nil {
		return domain.Reminder{}, mapStorageError(err)
	}
	return toDomainReminder(record), nil
}

func (a *StoreAdapter) UpdateReminder(ctx context.Context, reminder domain.Reminder) error {
	if a == nil || a.reminderStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.reminderStore.UpdateReminder(ctx, toStorageReminder(reminder)))
}

func (a *StoreAdapter) ListRemindersByOwner(ctx context.Context, ownerID string) ([]domain.Reminder, error) {
	if a == nil || a.reminderStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.reminderStore.ListRemindersByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	reminders := make([]domain.Reminder, 0, len(records))
	for _, record := range records {
		reminders = append(reminders, toDomainReminder(record))
	}
	return reminders, nil
}

func (a *StoreAdapter) PutCalendarConnection(ctx context.Context, connection domain.CalendarConnection) error {
	if a == nil || a.connectionStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.connectionStore.PutCalendarConnection(ctx, storage.CalendarConnectionRecord{
		OwnerID:      connection.OwnerID,
		RefreshToken: connection.RefreshToken,
		ConnectedAt:  connection.ConnectedAt,
	}))
}

func (a *StoreAdapter) GetCalendarConnection(ctx context.Context, ownerID string) (domain.CalendarConnection, error) {
	if a == nil || a.connectionStore == nil {
		return domain.CalendarConnection{}, domain.ErrStoreNotConfigured
	}
	record, err := a.connectionStore.GetCalendarConnection(ctx, ownerID)
	if err != nil {
		return domain.CalendarConnection{}, mapStorageError(err)
	}
	return domain.CalendarConnection{
		OwnerID:      record.OwnerID,
		RefreshToken: record.RefreshToken,
		ConnectedAt:  record.ConnectedAt,
	}, nil
}

func (a *StoreAdapter) DeleteCalendarConnection(ctx context.Context, ownerID string) error {
	if a == nil || a.connectionStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.connectionStore.DeleteCalendarConnection(ctx, ownerID))
}

func toStorageReminder(reminder domain.Reminder) storage.ReminderRecord {
	return storage.ReminderRecord{
		ID:                      reminder.ID,
		OwnerID:                 reminder.OwnerID,
		SourceJournalID:         reminder.SourceJournalID,
		Title:                   reminder.Title,
		Description:             reminder.Description,
		EventAt:                 reminder.EventAt,
		OriginalSentence:        reminder.OriginalSentence,
		Status:                  string(reminder.Status),
		ExternalCalendarEventID: reminder.ExternalCalendarEventID,
		SyncFailureReason:       reminder.SyncFailureReason,
		CreatedAt:               reminder.CreatedAt,
		UpdatedAt:               reminder.UpdatedAt,
	}
}

func toDomainReminder(record storage.ReminderRecord) domain.Reminder {
	return domain.Reminder{
		ID:                      record.ID,
		OwnerID:                 record.OwnerID,
		SourceJournalID:         record.SourceJournalID,
		Title:                   record.Title,
		Description:             record.Description,
		EventAt:                 record.EventAt,
		OriginalSentence:        record.OriginalSentence,
		Status:                  domain.Status(record.Status),
		ExternalCalendarEventID: record.ExternalCalendarEventID,
		SyncFailureReason:       record.SyncFailureReason,
		CreatedAt:               record.CreatedAt,
		UpdatedAt:               record.UpdatedAt,
	}
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
