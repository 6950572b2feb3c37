// Package extract surfaces candidate future events from journal text using
// a local Ollama chat model.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mirajournal/mira/internal/platform/timeouts"
	"github.com/mirajournal/mira/internal/services/reminder/temporal"
)

const defaultModel = "llama3.2"

const extractionPrompt = `You are an assistant that finds future events mentioned in a journal entry.
Return ONLY a JSON object of the form {"events": [...]} where each event has:
  "title": a short name for the event
  "date": the date expression exactly as written (e.g. "tomorrow", "next friday", "march 3")
  "time": the time expression exactly as written, or "" when none is mentioned
  "sentence": the full sentence the event was mentioned in
Only include events that are in the future relative to the entry. Ignore past
events, recurring habits, and vague intentions without a date. If there are no
future events, return {"events": []}.`

// Client calls an Ollama server's chat endpoint for event extraction.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient constructs an Ollama extraction client. An empty model selects
// the default.
func NewClient(baseURL, model string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeouts.Extractor}
	}
	if strings.TrimSpace(model) == "" {
		model = defaultModel
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		model:      model,
		httpClient: httpClient,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error,omitempty"`
}

type wireEvent struct {
	Title    string `json:"title"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Sentence string `json:"sentence"`
}

type wireEvents struct {
	Events []wireEvent `json:"events"`
}

// ExtractEvents asks the model for future event mentions in one journal
// entry. Recent entries, when provided, are passed as prior context so the
// model avoids resurfacing events already journaled.
func (c *Client) ExtractEvents(ctx context.Context, content string, recentEntries []string) ([]temporal.Candidate, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("ollama base url is not configured")
	}

	userContent := content
	if len(recentEntries) > 0 {
		var builder strings.Builder
		builder.WriteString("Earlier entries for context (do not extract events from these):\n")
		for _, entry := range recentEntries {
			builder.WriteString(entry)
			builder.WriteString("\n---\n")
		}
		builder.WriteString("Current entry:\n")
		builder.WriteString(content)
		userContent = builder.String()
	}

	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: extractionPrompt},
			{Role: "user", Content: userContent},
		},
		Stream:  false,
		Format:  "json",
		Options: map[string]any{"temperature": 0.1},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode chat request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build chat request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("call ollama: %w", err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read ollama response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ollama returned status %d: %s", response.StatusCode, strings.TrimSpace(string(responseBody)))
	}

	var decoded chatResponse
	if err := json.Unmarshal(responseBody, &decoded); err != nil {
		return nil, fmt.Errorf("decode ollama response: %w", err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("ollama error: %s", decoded.Error)
	}

	return parseEvents(decoded.Message.Content)
}

// parseEvents tolerates the shapes local models actually emit: an object
// with an "events" key, a bare array, and either wrapped in a code fence.
func parseEvents(raw string) ([]temporal.Candidate, error) {
	cleaned := stripCodeFence(raw)
	if cleaned == "" {
		return nil, nil
	}

	var wrapped wireEvents
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && wrapped.Events != nil {
		return toCandidates(wrapped.Events), nil
	}

	var bare []wireEvent
	if err := json.Unmarshal([]byte(cleaned), &bare); err == nil {
		return toCandidates(bare), nil
	}

	var object map[string]json.RawMessage
	if err := json.Unmarshal([]byte(cleaned), &object); err == nil {
		for _, value := range object {
			var nested []wireEvent
			if err := json.Unmarshal(value, &nested); err == nil {
				return toCandidates(nested), nil
			}
		}
		return nil, nil
	}

	return nil, fmt.Errorf("model output is not valid JSON")
}

func stripCodeFence(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}

func toCandidates(events []wireEvent) []temporal.Candidate {
	candidates := make([]temporal.Candidate, 0, len(events))
	for _, event := range events {
		if strings.TrimSpace(event.Title) == "" {
			continue
		}
		candidates = append(candidates, temporal.Candidate{
			Title:    strings.TrimSpace(event.Title),
			RawDate:  strings.TrimSpace(event.Date),
			RawTime:  strings.TrimSpace(event.Time),
			Sentence: strings.TrimSpace(event.Sentence),
		})
	}
	return candidates
}
