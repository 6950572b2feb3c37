package api

import (
	"encoding/json"
	"net/http"
	"time"

	reminderdomain "github.com/mirajournal/mira/internal/services/reminder/domain"
	"github.com/mirajournal/mira/internal/services/web/auth"
	"github.com/mirajournal/mira/internal/services/web/platform/httpx"
)

type reminderView struct {
	ID                      string    `json:"id"`
	SourceJournalID         string    `json:"sourceJournalId,omitempty"`
	Title                   string    `json:"title"`
	Description             string    `json:"description,omitempty"`
	EventAt                 time.Time `json:"eventAt"`
	OriginalSentence        string    `json:"originalSentence,omitempty"`
	Status                  string    `json:"status"`
	ExternalCalendarEventID string    `json:"externalCalendarEventId,omitempty"`
	SyncFailureReason       string    `json:"syncFailureReason,omitempty"`
	CreatedAt               time.Time `json:"createdAt"`
	UpdatedAt               time.Time `json:"updatedAt"`
}

func toReminderView(reminder reminderdomain.Reminder) reminderView {
	return reminderView{
		ID:                      reminder.ID,
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

type syncResultView struct {
	ReminderID              string `json:"reminderId"`
	Synced                  bool   `json:"synced"`
	ExternalCalendarEventID string `json:"externalCalendarEventId,omitempty"`
	FailureReason           string `json:"failureReason,omitempty"`
}

type analyzeView struct {
	CreatedReminders   []reminderView   `json:"createdReminders"`
	SkippedAsDuplicate int              `json:"skippedAsDuplicate"`
	SkippedAsPast      int              `json:"skippedAsPast"`
	SkippedUnparseable int              `json:"skippedUnparseable"`
	SyncResults        []syncResultView `json:"syncResults"`
}

func toAnalyzeView(result reminderdomain.AnalyzeResult) analyzeView {
	view := analyzeView{
		CreatedReminders:   make([]reminderView, 0, len(result.CreatedReminders)),
		SkippedAsDuplicate: result.SkippedAsDuplicate,
		SkippedAsPast:      result.SkippedAsPast,
		SkippedUnparseable: result.SkippedUnparseable,
		SyncResults:        make([]syncResultView, 0, len(result.SyncResults)),
	}
	for _, reminder := range result.CreatedReminders {
		view.CreatedReminders = append(view.CreatedReminders, toReminderView(reminder))
	}
	for _, syncResult := range result.SyncResults {
		view.SyncResults = append(view.SyncResults, syncResultView{
			ReminderID:              syncResult.ReminderID,
			Synced:                  syncResult.Synced,
			ExternalCalendarEventID: syncResult.ExternalCalendarEventID,
			FailureReason:           syncResult.FailureReason,
		})
	}
	return view
}

func (s *Server) handleJournalAnalyze(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.UserID(r.Context())
	journal, err := s.journals.Get(httpx.RequestContext(r), ownerID, r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	result, err := s.reminders.AnalyzeAndReconcile(httpx.RequestContext(r), reminderdomain.AnalyzeInput{
		OwnerID:   ownerID,
		JournalID: journal.ID,
		Content:   journal.Content,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "journal analyzed", toAnalyzeView(result))
}

type reminderProposeRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	EventAt          time.Time `json:"eventAt"`
	SourceJournalID  string    `json:"sourceJournalId"`
	OriginalSentence string    `json:"originalSentence"`
}

func (s *Server) handleReminderPropose(w http.ResponseWriter, r *http.Request) {
	var request reminderProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		_ = httpx.WriteFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reminder, err := s.reminders.Propose(httpx.RequestContext(r), reminderdomain.ProposeInput{
		OwnerID:          auth.UserID(r.Context()),
		Title:            request.Title,
		Description:      request.Description,
		EventAt:          request.EventAt,
		SourceJournalID:  request.SourceJournalID,
		OriginalSentence: request.OriginalSentence,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusCreated, "reminder proposed", toReminderView(reminder))
}

func (s *Server) handleReminderList(w http.ResponseWriter, r *http.Request) {
	reminders, err := s.reminders.List(httpx.RequestContext(r), auth.UserID(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]reminderView, 0, len(reminders))
	for _, reminder := range reminders {
		views = append(views, toReminderView(reminder))
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "", views)
}

func (s *Server) handleReminderConfirm(w http.ResponseWriter, r *http.Request) {
	reminder, err := s.reminders.Confirm(httpx.RequestContext(r), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "reminder confirmed", toReminderView(reminder))
}

func (s *Server) handleReminderSync(w http.ResponseWriter, r *http.Request) {
	reminder, err := s.reminders.AttemptSync(httpx.RequestContext(r), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "reminder synced", toReminderView(reminder))
}

func (s *Server) handleReminderCancel(w http.ResponseWriter, r *http.Request) {
	reminder, err := s.reminders.Cancel(httpx.RequestContext(r), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "reminder cancelled", toReminderView(reminder))
}
