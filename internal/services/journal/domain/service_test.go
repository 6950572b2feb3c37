package domain

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"
)

type fakeStore struct {
	journals map[string]Journal
	putErr   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{journals: make(map[string]Journal)}
}

func (f *fakeStore) PutJournal(_ context.Context, journal Journal) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.journals[journal.ID] = journal
	return nil
}

func (f *fakeStore) GetJournal(_ context.Context, journalID string) (Journal, error) {
	journal, ok := f.journals[journalID]
	if !ok {
		return Journal{}, ErrNotFound
	}
	return journal, nil
}

func (f *fakeStore) UpdateJournal(_ context.Context, journal Journal) error {
	if _, ok := f.journals[journal.ID]; !ok {
		return ErrNotFound
	}
	f.journals[journal.ID] = journal
	return nil
}

func (f *fakeStore) DeleteJournal(_ context.Context, ownerID, journalID string) error {
	journal, ok := f.journals[journalID]
	if !ok || journal.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(f.journals, journalID)
	return nil
}

func (f *fakeStore) ListJournalsByOwner(_ context.Context, ownerID string) ([]Journal, error) {
	return f.sortedByOwner(ownerID, ""), nil
}

func (f *fakeStore) ListRecentJournalsByOwner(_ context.Context, ownerID, excludingJournalID string, limit int) ([]Journal, error) {
	journals := f.sortedByOwner(ownerID, excludingJournalID)
	if len(journals) > limit {
		journals = journals[:limit]
	}
	return journals, nil
}

func (f *fakeStore) sortedByOwner(ownerID, excludingJournalID string) []Journal {
	var journals []Journal
	for _, journal := range f.journals {
		if journal.OwnerID != ownerID || journal.ID == excludingJournalID {
			continue
		}
		journals = append(journals, journal)
	}
	sort.Slice(journals, func(i, j int) bool {
		return journals[i].EntryDate.After(journals[j].EntryDate)
	})
	return journals
}

func sequentialIDs(prefix string) func() (string, error) {
	next := 0
	return func() (string, error) {
		next++
		return fmt.Sprintf("%s-%d", prefix, next), nil
	}
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

func TestServiceCreate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 14, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	service := NewService(store, fixedClock(now), sequentialIDs("journal"))

	journal, err := service.Create(context.Background(), CreateInput{
		OwnerID: "owner-1",
		Title:   "Friday",
		Content: "I have a dentist appointment tomorrow.",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if journal.ID != "journal-1" {
		t.Errorf("ID = %q, want %q", journal.ID, "journal-1")
	}
	if !journal.EntryDate.Equal(now) {
		t.Errorf("EntryDate = %v, want %v", journal.EntryDate, now)
	}
	if journal.StreakCount != 1 {
		t.Errorf("StreakCount = %d, want 1", journal.StreakCount)
	}
	if _, ok := store.journals["journal-1"]; !ok {
		t.Errorf("journal not persisted")
	}
}

func TestServiceCreateRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	service := NewService(newFakeStore(), nil, sequentialIDs("journal"))

	if _, err := service.Create(context.Background(), CreateInput{OwnerID: "owner-1", Content: "   "}); !errors.Is(err, ErrContentRequired) {
		t.Errorf("Create() error = %v, want ErrContentRequired", err)
	}
	if _, err := service.Create(context.Background(), CreateInput{Content: "hello"}); !errors.Is(err, ErrOwnerRequired) {
		t.Errorf("Create() error = %v, want ErrOwnerRequired", err)
	}
}

func TestServiceCreateExtendsStreakOnConsecutiveDays(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, fixedClock(time.Date(2025, time.November, 14, 12, 0, 0, 0, time.UTC)), sequentialIDs("journal"))
	ctx := context.Background()

	first, err := service.Create(ctx, CreateInput{
		OwnerID:   "owner-1",
		Content:   "day one",
		EntryDate: time.Date(2025, time.November, 13, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if first.StreakCount != 1 {
		t.Fatalf("first StreakCount = %d, want 1", first.StreakCount)
	}

	second, err := service.Create(ctx, CreateInput{
		OwnerID:   "owner-1",
		Content:   "day two",
		EntryDate: time.Date(2025, time.November, 14, 22, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if second.StreakCount != 2 {
		t.Errorf("second StreakCount = %d, want 2", second.StreakCount)
	}

	third, err := service.Create(ctx, CreateInput{
		OwnerID:   "owner-1",
		Content:   "after a gap",
		EntryDate: time.Date(2025, time.November, 20, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if third.StreakCount != 1 {
		t.Errorf("StreakCount after gap = %d, want 1", third.StreakCount)
	}
}

func TestServiceGetEnforcesOwnership(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, sequentialIDs("journal"))
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{OwnerID: "owner-1", Content: "mine"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := service.Get(ctx, "owner-2", "journal-1"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Get() other owner error = %v, want ErrNotAuthorized", err)
	}
	if _, err := service.Get(ctx, "owner-1", "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() missing error = %v, want ErrNotFound", err)
	}
}

func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.November, 14, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	service := NewService(store, fixedClock(now), sequentialIDs("journal"))
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{OwnerID: "owner-1", Content: "original"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	updated, err := service.Update(ctx, UpdateInput{
		OwnerID:   "owner-1",
		JournalID: "journal-1",
		Title:     "Edited",
		Content:   "rewritten",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Title != "Edited" || updated.Content != "rewritten" {
		t.Errorf("Update() = %+v, want edited title and content", updated)
	}

	if _, err := service.Update(ctx, UpdateInput{OwnerID: "owner-2", JournalID: "journal-1", Content: "theft"}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Update() other owner error = %v, want ErrNotAuthorized", err)
	}
}

func TestServiceRecordAnalysis(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, sequentialIDs("journal"))
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{OwnerID: "owner-1", Content: "entry"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	journal, err := service.RecordAnalysis(ctx, "owner-1", "journal-1", " A short day. ", "Rest more.")
	if err != nil {
		t.Fatalf("RecordAnalysis() error = %v", err)
	}
	if journal.Summary != "A short day." {
		t.Errorf("Summary = %q, want %q", journal.Summary, "A short day.")
	}
	if journal.Insights != "Rest more." {
		t.Errorf("Insights = %q, want %q", journal.Insights, "Rest more.")
	}
}

func TestServiceDelete(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, sequentialIDs("journal"))
	ctx := context.Background()

	if _, err := service.Create(ctx, CreateInput{OwnerID: "owner-1", Content: "entry"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Delete(ctx, "owner-2", "journal-1"); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("Delete() other owner error = %v, want ErrNotAuthorized", err)
	}
	if err := service.Delete(ctx, "owner-1", "journal-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := service.Get(ctx, "owner-1", "journal-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
}

func TestServiceListNewestFirst(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	service := NewService(store, nil, sequentialIDs("journal"))
	ctx := context.Background()

	for day := 10; day <= 12; day++ {
		if _, err := service.Create(ctx, CreateInput{
			OwnerID:   "owner-1",
			Content:   "entry",
			EntryDate: time.Date(2025, time.November, day, 12, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	journals, err := service.List(ctx, "owner-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(journals) != 3 {
		t.Fatalf("List() len = %d, want 3", len(journals))
	}
	if journals[0].EntryDate.Day() != 12 || journals[2].EntryDate.Day() != 10 {
		t.Errorf("List() not newest first: %v", journals)
	}
}
