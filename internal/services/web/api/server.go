// Package api exposes the journal and reminder services over JSON HTTP.
package api

import (
	"net/http"

	journaldomain "github.com/mirajournal/mira/internal/services/journal/domain"
	reminderdomain "github.com/mirajournal/mira/internal/services/reminder/domain"
	"github.com/mirajournal/mira/internal/services/web/auth"
	"github.com/mirajournal/mira/internal/services/web/platform/httpx"
)

// Server routes authenticated API requests to the domain services.
type Server struct {
	journals  *journaldomain.Service
	reminders *reminderdomain.Service
	verifier  *auth.Verifier
}

// NewServer constructs the API server.
func NewServer(journals *journaldomain.Service, reminders *reminderdomain.Service, verifier *auth.Verifier) *Server {
	return &Server{
		journals:  journals,
		reminders: reminders,
		verifier:  verifier,
	}
}

// Handler builds the API route table. Every route requires a bearer token;
// the health probe is the one exception.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = httpx.WriteSuccess(w, http.StatusOK, "ok", nil)
	})

	protected := func(handler http.HandlerFunc) http.Handler {
		return httpx.Chain(handler, s.verifier.RequireUser())
	}

	mux.Handle("POST /api/journals/create", protected(s.handleJournalCreate))
	mux.Handle("GET /api/journals", protected(s.handleJournalList))
	mux.Handle("GET /api/journals/{id}", protected(s.handleJournalGet))
	mux.Handle("PUT /api/journals/{id}", protected(s.handleJournalUpdate))
	mux.Handle("DELETE /api/journals/{id}", protected(s.handleJournalDelete))
	mux.Handle("POST /api/journals/{id}/analyze", protected(s.handleJournalAnalyze))

	mux.Handle("POST /api/reminders/propose", protected(s.handleReminderPropose))
	mux.Handle("GET /api/reminders", protected(s.handleReminderList))
	mux.Handle("POST /api/reminders/{id}/confirm", protected(s.handleReminderConfirm))
	mux.Handle("POST /api/reminders/{id}/sync", protected(s.handleReminderSync))
	mux.Handle("DELETE /api/reminders/{id}", protected(s.handleReminderCancel))

	mux.Handle("POST /api/calendar/connect", protected(s.handleCalendarConnect))
	mux.Handle("GET /api/calendar/status", protected(s.handleCalendarStatus))
	mux.Handle("DELETE /api/calendar/connection", protected(s.handleCalendarDisconnect))

	return httpx.Chain(mux, httpx.RequestID(), httpx.RecoverPanic())
}
