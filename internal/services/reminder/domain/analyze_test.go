package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "github.com/mirajournal/mira/internal/platform/errors"
	"github.com/mirajournal/mira/internal/services/reminder/adjudicate"
	"github.com/mirajournal/mira/internal/services/reminder/temporal"
)

func TestAnalyzeCreatesConfirmedReminders(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist appointment", RawDate: "tomorrow", RawTime: "3pm", Sentence: "I have a dentist appointment tomorrow at 3pm."},
		{Title: "Mom's birthday dinner", RawDate: "on the 19th", Sentence: "Mom's birthday dinner is on the 19th."},
	}}
	service := newTestService(store, extractor, nil, &fakeHistory{})

	result, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{
		OwnerID:   "owner-1",
		JournalID: "journal-1",
		Content:   "I have a dentist appointment tomorrow at 3pm. Mom's birthday dinner is on the 19th.",
	})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.CreatedReminders) != 2 {
		t.Fatalf("CreatedReminders len = %d, want 2", len(result.CreatedReminders))
	}

	dentist := result.CreatedReminders[0]
	if dentist.Status != StatusConfirmed {
		t.Errorf("Status = %q, want auto-confirmed", dentist.Status)
	}
	wantAt := time.Date(2025, time.November, 15, 15, 0, 0, 0, time.UTC)
	if !dentist.EventAt.Equal(wantAt) {
		t.Errorf("EventAt = %v, want %v", dentist.EventAt, wantAt)
	}
	if dentist.SourceJournalID != "journal-1" {
		t.Errorf("SourceJournalID = %q, want %q", dentist.SourceJournalID, "journal-1")
	}
	if dentist.OriginalSentence == "" {
		t.Errorf("OriginalSentence empty, want provenance sentence")
	}
}

func TestAnalyzeCountsRejections(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist", RawDate: "tomorrow"},
		{Title: "Old thing", RawDate: "2025-01-05"},
		{Title: "Mystery", RawDate: "whenever the mood strikes"},
	}}
	service := newTestService(store, extractor, nil, &fakeHistory{})

	result, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{
		OwnerID: "owner-1",
		Content: "entry",
	})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.CreatedReminders) != 1 {
		t.Errorf("CreatedReminders len = %d, want 1", len(result.CreatedReminders))
	}
	if result.SkippedUnparseable != 1 {
		t.Errorf("SkippedUnparseable = %d, want 1", result.SkippedUnparseable)
	}
	if result.SkippedAsPast != 1 {
		t.Errorf("SkippedAsPast = %d, want 1", result.SkippedAsPast)
	}
}

func TestAnalyzeSkipsDuplicatesAgainstHistory(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist appointment", RawDate: "tomorrow", RawTime: "3pm"},
	}}
	history := &fakeHistory{snapshot: HistorySnapshot{
		Reminders: []adjudicate.Existing{
			{ID: "rem-existing", Title: "Dentist", At: time.Date(2025, time.November, 15, 9, 0, 0, 0, time.UTC)},
		},
	}}
	service := newTestService(store, extractor, nil, history)

	result, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{
		OwnerID: "owner-1",
		Content: "entry",
	})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.CreatedReminders) != 0 {
		t.Errorf("CreatedReminders len = %d, want 0", len(result.CreatedReminders))
	}
	if result.SkippedAsDuplicate != 1 {
		t.Errorf("SkippedAsDuplicate = %d, want 1", result.SkippedAsDuplicate)
	}
}

func TestAnalyzeDedupesWithinBatch(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist appointment", RawDate: "tomorrow", RawTime: "9am", Sentence: "first mention"},
		{Title: "dentist appointment", RawDate: "tomorrow", RawTime: "3pm", Sentence: "second mention"},
	}}
	service := newTestService(store, extractor, nil, &fakeHistory{})

	result, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{
		OwnerID: "owner-1",
		Content: "entry",
	})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.CreatedReminders) != 1 {
		t.Fatalf("CreatedReminders len = %d, want 1", len(result.CreatedReminders))
	}
	if result.SkippedAsDuplicate != 1 {
		t.Errorf("SkippedAsDuplicate = %d, want 1", result.SkippedAsDuplicate)
	}
	if result.CreatedReminders[0].OriginalSentence != "first mention" {
		t.Errorf("kept sentence = %q, want first mention", result.CreatedReminders[0].OriginalSentence)
	}
}

func TestAnalyzeSyncsCreatedReminders(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	calendar := &fakeCalendar{}
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist", RawDate: "tomorrow"},
		{Title: "Team lunch", RawDate: "in 3 days"},
	}}
	service := newTestService(store, extractor, calendar, &fakeHistory{})
	ctx := context.Background()

	if err := service.ConnectCalendar(ctx, "owner-1", "refresh-token"); err != nil {
		t.Fatalf("ConnectCalendar() error = %v", err)
	}

	result, err := service.AnalyzeAndReconcile(ctx, AnalyzeInput{OwnerID: "owner-1", Content: "entry"})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.SyncResults) != 2 {
		t.Fatalf("SyncResults len = %d, want 2", len(result.SyncResults))
	}
	for _, syncResult := range result.SyncResults {
		if !syncResult.Synced {
			t.Errorf("SyncResult %+v not synced", syncResult)
		}
		if syncResult.ExternalCalendarEventID == "" {
			t.Errorf("SyncResult %+v missing external event id", syncResult)
		}
	}
	for _, reminder := range result.CreatedReminders {
		if reminder.Status != StatusSynced {
			t.Errorf("reminder %s status = %q, want synced", reminder.ID, reminder.Status)
		}
	}
}

func TestAnalyzeSyncFailureReportedPerReminder(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	calendar := &fakeCalendar{createErr: errors.New("calendar down")}
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist", RawDate: "tomorrow"},
	}}
	service := newTestService(store, extractor, calendar, &fakeHistory{})
	ctx := context.Background()

	if err := service.ConnectCalendar(ctx, "owner-1", "refresh-token"); err != nil {
		t.Fatalf("ConnectCalendar() error = %v", err)
	}

	result, err := service.AnalyzeAndReconcile(ctx, AnalyzeInput{OwnerID: "owner-1", Content: "entry"})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v, want per-item failure only", err)
	}
	if len(result.SyncResults) != 1 {
		t.Fatalf("SyncResults len = %d, want 1", len(result.SyncResults))
	}
	if result.SyncResults[0].Synced {
		t.Errorf("SyncResult synced = true, want false")
	}
	if result.SyncResults[0].FailureReason == "" {
		t.Errorf("FailureReason empty, want provider message")
	}
	if result.CreatedReminders[0].Status != StatusConfirmed {
		t.Errorf("reminder status = %q, want confirmed after failed sync", result.CreatedReminders[0].Status)
	}
}

func TestAnalyzeWithoutCalendarConnection(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	extractor := &fakeExtractor{candidates: []temporal.Candidate{
		{Title: "Dentist", RawDate: "tomorrow"},
	}}
	service := newTestService(store, extractor, &fakeCalendar{}, &fakeHistory{})

	result, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{OwnerID: "owner-1", Content: "entry"})
	if err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(result.SyncResults) != 1 {
		t.Fatalf("SyncResults len = %d, want 1", len(result.SyncResults))
	}
	if result.SyncResults[0].Synced || result.SyncResults[0].FailureReason == "" {
		t.Errorf("SyncResult = %+v, want unsynced with reason", result.SyncResults[0])
	}
}

func TestAnalyzeExtractorFailureIsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{err: errors.New("model not loaded")}
	service := newTestService(newFakeStore(), extractor, nil, &fakeHistory{})

	if _, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{OwnerID: "owner-1", Content: "entry"}); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("AnalyzeAndReconcile() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestAnalyzeHistoryFailureIsUpstreamUnavailable(t *testing.T) {
	t.Parallel()

	history := &fakeHistory{err: errors.New("history store offline")}
	service := newTestService(newFakeStore(), &fakeExtractor{}, nil, history)

	if _, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{OwnerID: "owner-1", Content: "entry"}); !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("AnalyzeAndReconcile() error = %v, want ErrUpstreamUnavailable", err)
	}
}

func TestAnalyzeRejectsEmptyContent(t *testing.T) {
	t.Parallel()

	service := newTestService(newFakeStore(), &fakeExtractor{}, nil, &fakeHistory{})

	if _, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{OwnerID: "owner-1", Content: "   "}); !apperrors.IsCode(err, apperrors.CodeJournalContentEmpty) {
		t.Errorf("AnalyzeAndReconcile() error = %v, want journal content empty", err)
	}
}

func TestAnalyzePassesRecentEntriesToExtractor(t *testing.T) {
	t.Parallel()

	extractor := &fakeExtractor{}
	history := &fakeHistory{snapshot: HistorySnapshot{RecentEntries: []string{"yesterday's entry"}}}
	service := newTestService(newFakeStore(), extractor, nil, history)

	if _, err := service.AnalyzeAndReconcile(context.Background(), AnalyzeInput{OwnerID: "owner-1", Content: "entry"}); err != nil {
		t.Fatalf("AnalyzeAndReconcile() error = %v", err)
	}
	if len(extractor.gotRecent) != 1 || extractor.gotRecent[0] != "yesterday's entry" {
		t.Errorf("extractor recent entries = %v, want prior context", extractor.gotRecent)
	}
}
