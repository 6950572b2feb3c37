package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mirajournal/mira/internal/services/web/auth"
	"github.com/mirajournal/mira/internal/services/web/platform/httpx"
)

type calendarConnectRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type calendarStatusView struct {
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connectedAt,omitempty"`
}

func (s *Server) handleCalendarConnect(w http.ResponseWriter, r *http.Request) {
	var request calendarConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		_ = httpx.WriteFailure(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.reminders.ConnectCalendar(httpx.RequestContext(r), auth.UserID(r.Context()), request.RefreshToken); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "calendar connected", nil)
}

func (s *Server) handleCalendarStatus(w http.ResponseWriter, r *http.Request) {
	connection, connected, err := s.reminders.CalendarStatus(httpx.RequestContext(r), auth.UserID(r.Context()))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	view := calendarStatusView{Connected: connected}
	if connected {
		connectedAt := connection.ConnectedAt
		view.ConnectedAt = &connectedAt
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "calendar status", view)
}

func (s *Server) handleCalendarDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.DisconnectCalendar(httpx.RequestContext(r), auth.UserID(r.Context())); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteSuccess(w, http.StatusOK, "calendar disconnected", nil)
}
