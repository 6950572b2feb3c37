// Package app wires journal domain behavior onto storage contracts.
package app

import (
	"context"
	"errors"

	"github.com/mirajournal/mira/internal/services/journal/domain"
	"github.com/mirajournal/mira/internal/services/journal/storage"
)

// StoreAdapter exposes a storage.JournalStore as a domain.Store.
type StoreAdapter struct {
	journalStore storage.JournalStore
}

// NewStoreAdapter constructs the journal persistence adapter.
func NewStoreAdapter(journalStore storage.JournalStore) *StoreAdapter {
	return &StoreAdapter{journalStore: journalStore}
}

func (a *StoreAdapter) PutJournal(ctx context.Context, journal domain.Journal) error {
	if a == nil || a.journalStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.journalStore.PutJournal(ctx, toStorageJournal(journal)))
}

func (a *StoreAdapter) GetJournal(ctx context.Context, journalID string) (domain.Journal, error) {
	if a == nil || a.journalStore == nil {
		return domain.Journal{}, domain.ErrStoreNotConfigured
	}
	record, err := a.journalStore.GetJournal(ctx, journalID)
	if err != nil {
		return domain.Journal{}, mapStorageError(err)
	}
	return toDomainJournal(record), nil
}

func (a *StoreAdapter) UpdateJournal(ctx context.Context, journal domain.Journal) error {
	if a == nil || a.journalStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.journalStore.UpdateJournal(ctx, toStorageJournal(journal)))
}

func (a *StoreAdapter) DeleteJournal(ctx context.Context, ownerID, journalID string) error {
	if a == nil || a.journalStore == nil {
		return domain.ErrStoreNotConfigured
	}
	return mapStorageError(a.journalStore.DeleteJournal(ctx, ownerID, journalID))
}

func (a *StoreAdapter) ListJournalsByOwner(ctx context.Context, ownerID string) ([]domain.Journal, error) {
	if a == nil || a.journalStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.journalStore.ListJournalsByOwner(ctx, ownerID)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainJournals(records), nil
}

func (a *StoreAdapter) ListRecentJournalsByOwner(ctx context.Context, ownerID, excludingJournalID string, limit int) ([]domain.Journal, error) {
	if a == nil || a.journalStore == nil {
		return nil, domain.ErrStoreNotConfigured
	}
	records, err := a.journalStore.ListRecentJournalsByOwner(ctx, ownerID, excludingJournalID, limit)
	if err != nil {
		return nil, mapStorageError(err)
	}
	return toDomainJournals(records), nil
}

func toStorageJournal(journal domain.Journal) storage.JournalRecord {
	return storage.JournalRecord{
		ID:          journal.ID,
		OwnerID:     journal.OwnerID,
		Title:       journal.Title,
		Content:     journal.Content,
		EntryDate:   journal.EntryDate,
		StreakCount: journal.StreakCount,
		Summary:     journal.Summary,
		Insights:    journal.Insights,
		CreatedAt:   journal.CreatedAt,
		UpdatedAt:   journal.UpdatedAt,
	}
}

func toDomainJournal(record storage.JournalRecord) domain.Journal {
	return domain.Journal{
		ID:          record.ID,
		OwnerID:     record.OwnerID,
		Title:       record.Title,
		Content:     record.Content,
		EntryDate:   record.EntryDate,
		StreakCount: record.StreakCount,
		Summary:     record.Summary,
		Insights:    record.Insights,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}

func toDomainJournals(records []storage.JournalRecord) []domain.Journal {
	journals := make([]domain.Journal, 0, len(records))
	for _, record := range records {
		journals = append(journals, toDomainJournal(record))
	}
	return journals
}

func mapStorageError(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return domain.ErrNotFound
	}
	return err
}
