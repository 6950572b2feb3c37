package api

import (
	"encoding/json"
	"net/http"
	"time"

	journaldomain "github.com/mirajournal/mira/internal/services/journal/domain"
	"github.com/mirajournal/mira/internal/services/web/auth"
	"github.com/mirajournal/mira/internal/services/web/platform/httpx"
)

type journalView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Content     string    `json:"content"`
	EntryDate   time.Time `json:"entryDate"`
	StreakCount int       `json:"streakCount"`
	Summary     string    `json:"summary,omitempty"`
	Insights    string    `json:"insights,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toJournalView(journal journaldomain.Journal) journalView {
	return journalView{
		ID:          journal.ID,
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

type journalCreateRequest struct {
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	EntryDate *time.Time `json:"entryDate,omitempty"`
}

func (s *Server) handleJournalCreate(w http.ResponseWriter, r *http.Request) {
	var request journalCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		_ = httpx.WriteFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	input := journaldomain.CreateInput{
		OwnerID: auth.UserID(r.Context()),
		Title:   request.Title,
		Content: request.Content,
	}
	if request.EntryDate != nil {
		input.EntryDate = *request.EntryDate
	}

	journal, err := s.journals.Create(httpx.RequestContext(r), input)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusCreated, "journal created", toJournalView(journal))
}

func (s *Server) handleJournalList(w http.ResponseWriter, r *http.Request) {
	journals, err := s.journals.List(httpx.RequestContext(r), auth.UserID(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	views := make([]journalView, 0, len(journals))
	for _, journal := range journals {
		views = append(views, toJournalView(journal))
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "", views)
}

func (s *Server) handleJournalGet(w http.ResponseWriter, r *http.Request) {
	journal, err := s.journals.Get(httpx.RequestContext(r), auth.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "", toJournalView(journal))
}

type journalUpdateRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) handleJournalUpdate(w http.ResponseWriter, r *http.Request) {
	var request journalUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		_ = httpx.WriteFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	journal, err := s.journals.Update(httpx.RequestContext(r), journaldomain.UpdateInput{
		OwnerID:   auth.UserID(r.Context()),
		JournalID: r.PathValue("id"),
		Title:     request.Title,
		Content:   request.Content,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "journal updated", toJournalView(journal))
}

func (s *Server) handleJournalDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.journals.Delete(httpx.RequestContext(r), auth.UserID(r.Context()), r.PathValue("id")); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "journal deleted", nil)
}
