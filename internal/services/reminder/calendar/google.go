// Package calendar syncs reminders to Google Calendar over its v3 REST API.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/mirajournal/mira/internal/platform/timeouts"
	"github.com/mirajournal/mira/internal/services/reminder/domain"
)

const (
	defaultAPIBaseURL   = "https://www.googleapis.com/calendar/v3"
	defaultAuthURL      = "https://accounts.google.com/o/oauth2/auth"
	defaultTokenURL     = "https://oauth2.googleapis.com/token"
	descriptionPrefix   = "From MIRA Journal"
	eventDuration       = time.Hour
	popupMinutesBefore  = 30
	emailMinutesBefore  = 60
	maxResponseBodySize = 1 << 20
)

// GoogleConfig configures the Google Calendar client. APIBaseURL and
// TokenURL are overridable for tests and default to Google's endpoints.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	APIBaseURL   string
	TokenURL     string
	HTTPClient   *http.Client
}

// GoogleClient creates and deletes calendar events on a user's primary
// calendar, authorized per user by OAuth refresh token.
type GoogleClient struct {
	oauthConfig *oauth2.Config
	baseURL     string
	httpClient  *http.Client
}

// NewGoogleClient constructs a Google Calendar client.
func NewGoogleClient(cfg GoogleConfig) *GoogleClient {
	endpoint := oauth2.Endpoint{AuthURL: defaultAuthURL, TokenURL: defaultTokenURL}
	if strings.TrimSpace(cfg.TokenURL) != "" {
		endpoint = oauth2.Endpoint{TokenURL: cfg.TokenURL}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.CalendarRequest}
	}
	return &GoogleClient{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     endpoint,
		},
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

type wireEventTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type wireReminderOverride struct {
	Method  string `json:"method"`
	Minutes int    `json:"minutes"`
}

type wireReminders struct {
	UseDefault bool                   `json:"useDefault"`
	Overrides  []wireReminderOverride `json:"overrides"`
}

type wireCalendarEvent struct {
	ID          string        `json:"id,omitempty"`
	Summary     string        `json:"summary"`
	Description string        `json:"description"`
	Start       wireEventTime `json:"start"`
	End         wireEventTime `json:"end"`
	Reminders   wireReminders `json:"reminders"`
}

// CreateEvent inserts a one hour event on the user's primary calendar and
// returns the provider event id. Events carry a popup alert 30 minutes
// before and an email alert an hour before.
func (c *GoogleClient) CreateEvent(ctx context.Context, refreshToken string, event domain.CalendarEvent) (string, error) {
	if c == nil {
		return "", fmt.Errorf("google calendar client is not configured")
	}
	if strings.TrimSpace(refreshToken) == "" {
		return "", fmt.Errorf("calendar refresh token is required")
	}

	start := event.StartsAt.UTC()
	payload := wireCalendarEvent{
		Summary:     event.Title,
		Description: buildDescription(event.Description),
		Start:       wireEventTime{DateTime: start.Format(time.RFC3339), TimeZone: "UTC"},
		End:         wireEventTime{DateTime: start.Add(eventDuration).Format(time.RFC3339), TimeZone: "UTC"},
		Reminders: wireReminders{
			UseDefault: false,
			Overrides: []wireReminderOverride{
				{Method: "popup", Minutes: popupMinutesBefore},
				{Method: "email", Minutes: emailMinutesBefore},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode calendar event: %w", err)
	}

	responseBody, status, err := c.do(ctx, refreshToken, http.MethodPost, "/calendars/primary/events", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", fmt.Errorf("calendar insert returned status %d: %s", status, strings.TrimSpace(string(responseBody)))
	}

	var created wireCalendarEvent
	if err := json.Unmarshal(responseBody, &created); err != nil {
		return "", fmt.Errorf("decode calendar event: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("calendar insert returned no event id")
	}
	return created.ID, nil
}

// DeleteEvent removes one event from the user's primary calendar. An event
// already gone upstream counts as deleted.
func (c *GoogleClient) DeleteEvent(ctx context.Context, refreshToken string, externalEventID string) error {
	if c == nil {
		return fmt.Errorf("google calendar client is not configured")
	}
	externalEventID = strings.TrimSpace(externalEventID)
	if externalEventID == "" {
		return fmt.Errorf("external event id is required")
	}

	path := "/calendars/primary/events/" + url.PathEscape(externalEventID)
	responseBody, status, err := c.do(ctx, refreshToken, http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound, http.StatusGone:
		return nil
	default:
		return fmt.Errorf("calendar delete returned status %d: %s", status, strings.TrimSpace(string(responseBody)))
	}
}

func (c *GoogleClient) do(ctx context.Context, refreshToken, method, path string, body io.Reader) ([]byte, int, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	tokenSource := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	client := oauth2.NewClient(ctx, tokenSource)

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("build calendar request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := client.Do(request)
	if err != nil {
		return nil, 0, fmt.Errorf("call google calendar: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBodySize))
	if err != nil {
		return nil, 0, fmt.Errorf("read calendar response: %w", err)
	}
	return responseBody, response.StatusCode, nil
}

func buildDescription(detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return descriptionPrefix
	}
	return descriptionPrefix + "\n" + detail
}
