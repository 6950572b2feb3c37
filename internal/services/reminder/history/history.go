// Package history assembles the prior journal and reminder context
// consulted when reconciling newly detected events.
package history

import (
	"context"
	"fmt"
	"strings"

	"github.com/mirajournal/mira/internal/services/journal/storage"
	"github.com/mirajournal/mira/internal/services/reminder/adjudicate"
	"github.com/mirajournal/mira/internal/services/reminder/domain"
	reminderstorage "github.com/mirajournal/mira/internal/services/reminder/storage"
)

const (
	// recentJournalLimit bounds how many prior entries feed extraction context.
	recentJournalLimit = 10
	// activeReminderLimit bounds the duplicate adjudication window.
	activeReminderLimit = 50
)

// Provider reads the recent journal and active reminder windows for one
// owner. It implements the reminder domain's History boundary.
type Provider struct {
	journalStore  storage.JournalStore
	reminderStore reminderstorage.ReminderStore
}

// NewProvider constructs a history provider over both stores.
func NewProvider(journalStore storage.JournalStore, reminderStore reminderstorage.ReminderStore) *Provider {
	return &Provider{
		journalStore:  journalStore,
		reminderStore: reminderStore,
	}
}

// Snapshot loads the most recent journal entries, excluding the entry under
// analysis, and the owner's active reminders.
func (p *Provider) Snapshot(ctx context.Context, ownerID string, excludingJournalID string) (domain.HistorySnapshot, error) {
	if p == nil || p.journalStore == nil || p.reminderStore == nil {
		return domain.HistorySnapshot{}, fmt.Errorf("history stores are not configured")
	}
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return domain.HistorySnapshot{}, fmt.Errorf("owner id is required")
	}

	journals, err := p.journalStore.ListRecentJournalsByOwner(ctx, ownerID, strings.TrimSpace(excludingJournalID), recentJournalLimit)
	if err != nil {
		return domain.HistorySnapshot{}, fmt.Errorf("load recent journals: %w", err)
	}
	reminders, err := p.reminderStore.ListActiveRemindersByOwner(ctx, ownerID, activeReminderLimit)
	if err != nil {
		return domain.HistorySnapshot{}, fmt.Errorf("load active reminders: %w", err)
	}

	snapshot := domain.HistorySnapshot{
		RecentEntries: make([]string, 0, len(journals)),
		Reminders:     make([]adjudicate.Existing, 0, len(reminders)),
	}
	for _, journal := range journals {
		snapshot.RecentEntries = append(snapshot.RecentEntries, journal.Content)
	}
	for _, reminder := range reminders {
		snapshot.Reminders = append(snapshot.Reminders, adjudicate.Existing{
			ID:    reminder.ID,
			Title: reminder.Title,
			At:    reminder.EventAt,
		})
	}
	return snapshot, nil
}
