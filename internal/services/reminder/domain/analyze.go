package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/mirajournal/mira/internal/platform/errors"
	"github.com/mirajournal/mira/internal/services/reminder/adjudicate"
	"github.com/mirajournal/mira/internal/services/reminder/temporal"
)

var analyzeTracer = otel.Tracer("mira/reminder")

// AnalyzeInput describes one journal entry to scan for future events.
type AnalyzeInput struct {
	OwnerID   string
	JournalID string
	Content   string
}

// SyncResult reports one created reminder's calendar sync outcome.
type SyncResult struct {
	ReminderID              string
	Synced                  bool
	ExternalCalendarEventID string
	FailureReason           string
}

// AnalyzeResult summarizes one reconciliation pass over a journal entry.
type AnalyzeResult struct {
	CreatedReminders   []Reminder
	SkippedAsDuplicate int
	SkippedAsPast      int
	SkippedUnparseable int
	SyncResults        []SyncResult
}

// AnalyzeAndReconcile scans one journal entry for future event mentions,
// resolves each mention to a concrete time, drops duplicates against the
// owner's existing reminders, persists the survivors as confirmed
// reminders, and attempts calendar sync for each when a calendar is
// connected. Sync outcomes are reported per reminder and never fail the
// pass as a whole.
func (s *Service) AnalyzeAndReconcile(ctx context.Context, input AnalyzeInput) (AnalyzeResult, error) {
	if s == nil || s.store == nil {
		return AnalyzeResult{}, ErrStoreNotConfigured
	}
	if s.extractor == nil {
		return AnalyzeResult{}, errors.New("event extractor is not configured")
	}
	if s.history == nil {
		return AnalyzeResult{}, errors.New("history provider is not configured")
	}
	ownerID := strings.TrimSpace(input.OwnerID)
	if ownerID == "" {
		return AnalyzeResult{}, ErrOwnerRequired
	}
	if strings.TrimSpace(input.Content) == "" {
		return AnalyzeResult{}, apperrors.New(apperrors.CodeJournalContentEmpty, "journal content is required")
	}

	ctx, span := analyzeTracer.Start(ctx, "reminder.AnalyzeAndReconcile")
	defer span.End()

	// The snapshot feeds both duplicate adjudication and the extractor's
	// prior-context window, so it is loaded before extraction.
	snapshot, err := s.history.Snapshot(ctx, ownerID, strings.TrimSpace(input.JournalID))
	if err != nil {
		return AnalyzeResult{}, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "event detection is temporarily unavailable", err)
	}

	candidates, err := s.extractor.ExtractEvents(ctx, input.Content, snapshot.RecentEntries)
	if err != nil {
		return AnalyzeResult{}, apperrors.Wrap(apperrors.CodeUpstreamUnavailable, "event detection is temporarily unavailable", err)
	}

	now := s.nowUTC()
	result := AnalyzeResult{}
	var resolved []temporal.Resolved
	for _, candidate := range candidates {
		item, rejection := temporal.Resolve(candidate, now)
		switch rejection {
		case temporal.RejectionNone:
			resolved = append(resolved, item)
		case temporal.RejectionPastEvent:
			result.SkippedAsPast++
		default:
			result.SkippedUnparseable++
		}
	}

	resolved, batchDuplicates := s.adjudicator.DedupeBatch(resolved)
	result.SkippedAsDuplicate += batchDuplicates

	for _, item := range resolved {
		verdict := s.adjudicator.Adjudicate(item, snapshot.Reminders)
		if verdict.Decision == adjudicate.DecisionDuplicate {
			result.SkippedAsDuplicate++
			continue
		}

		reminder, err := s.createDetectedReminder(ctx, ownerID, strings.TrimSpace(input.JournalID), item, now)
		if err != nil {
			return AnalyzeResult{}, err
		}
		result.CreatedReminders = append(result.CreatedReminders, reminder)
		snapshot.Reminders = append(snapshot.Reminders, adjudicate.Existing{
			ID:    reminder.ID,
			Title: reminder.Title,
			At:    reminder.EventAt,
		})
	}

	span.SetAttributes(
		attribute.Int("reminders.created", len(result.CreatedReminders)),
		attribute.Int("reminders.skipped_duplicate", result.SkippedAsDuplicate),
		attribute.Int("reminders.skipped_past", result.SkippedAsPast),
		attribute.Int("reminders.skipped_unparseable", result.SkippedUnparseable),
	)

	if len(result.CreatedReminders) > 0 {
		result.SyncResults = s.syncCreated(ctx, ownerID, result.CreatedReminders)
		for i, syncResult := range result.SyncResults {
			if !syncResult.Synced {
				continue
			}
			if updated, err := s.store.GetReminder(ctx, syncResult.ReminderID); err == nil {
				result.CreatedReminders[i] = updated
			}
		}
	}
	return result, nil
}

// createDetectedReminder persists one system-detected reminder. Detected
// reminders are auto-confirmed, there is no proposal step for them.
func (s *Service) createDetectedReminder(ctx context.Context, ownerID, journalID string, item temporal.Resolved, now time.Time) (Reminder, error) {
	reminderID, err := s.newID()
	if err != nil {
		return Reminder{}, err
	}
	reminder := Reminder{
		ID:               reminderID,
		OwnerID:          ownerID,
		SourceJournalID:  journalID,
		Title:            item.Title,
		EventAt:          item.At,
		OriginalSentence: item.Sentence,
		Status:           StatusConfirmed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.PutReminder(ctx, reminder); err != nil {
		return Reminder{}, err
	}
	return reminder, nil
}

// syncCreated attempts calendar sync for each reminder concurrently. A
// missing calendar connection or provider is reported per item, never as
// an aggregate error.
func (s *Service) syncCreated(ctx context.Context, ownerID string, created []Reminder) []SyncResult {
	results := make([]SyncResult, len(created))

	if s.calendar == nil {
		for i, reminder := range created {
			results[i] = SyncResult{ReminderID: reminder.ID, FailureReason: "calendar provider is not configured"}
		}
		return results
	}
	if _, err := s.store.GetCalendarConnection(ctx, ownerID); err != nil {
		reason := "no calendar connected for user"
		if !errors.Is(err, ErrNotFound) {
			reason = err.Error()
		}
		for i, reminder := range created {
			results[i] = SyncResult{ReminderID: reminder.ID, FailureReason: reason}
		}
		return results
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for i, reminder := range created {
		group.Go(func() error {
			synced, err := s.AttemptSync(groupCtx, ownerID, reminder.ID)
			if err != nil {
				results[i] = SyncResult{ReminderID: reminder.ID, FailureReason: err.Error()}
				return nil
			}
			results[i] = SyncResult{
				ReminderID:              reminder.ID,
				Synced:                  true,
				ExternalCalendarEventID: synced.ExternalCalendarEventID,
			}
			return nil
		})
	}
	_ = group.Wait()
	return results
}
