package extract

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL, "test-model", server.Client())
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"message": map[string]string{"role": "assistant", "content": content},
	}); err != nil {
		t.Errorf("encode reply: %v", err)
	}
}

func TestExtractEventsParsesEventsObject(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q, want /api/chat", r.URL.Path)
		}
		var request chatRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if request.Stream {
			t.Errorf("Stream = true, want false")
		}
		if request.Format != "json" {
			t.Errorf("Format = %q, want json", request.Format)
		}
		if request.Model != "test-model" {
			t.Errorf("Model = %q, want test-model", request.Model)
		}
		chatReply(t, w, `{"events":[{"title":"Dentist appointment","date":"tomorrow","time":"3pm","sentence":"I have a dentist appointment tomorrow at 3pm."}]}`)
	})

	candidates, err := client.ExtractEvents(context.Background(), "I have a dentist appointment tomorrow at 3pm.", nil)
	if err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("candidates len = %d, want 1", len(candidates))
	}
	candidate := candidates[0]
	if candidate.Title != "Dentist appointment" {
		t.Errorf("Title = %q", candidate.Title)
	}
	if candidate.RawDate != "tomorrow" || candidate.RawTime != "3pm" {
		t.Errorf("RawDate = %q RawTime = %q", candidate.RawDate, candidate.RawTime)
	}
	if candidate.Sentence == "" {
		t.Errorf("Sentence empty, want provenance sentence")
	}
}

func TestExtractEventsStripsCodeFence(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "```json\n{\"events\":[{\"title\":\"Team lunch\",\"date\":\"next friday\",\"time\":\"\",\"sentence\":\"Team lunch next friday.\"}]}\n```")
	})

	candidates, err := client.ExtractEvents(context.Background(), "Team lunch next friday.", nil)
	if err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Team lunch" {
		t.Errorf("candidates = %+v, want one Team lunch", candidates)
	}
}

func TestExtractEventsParsesBareArray(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `[{"title":"Concert","date":"2025-12-01","time":"8pm","sentence":"Concert on 2025-12-01 at 8pm."}]`)
	})

	candidates, err := client.ExtractEvents(context.Background(), "Concert on 2025-12-01.", nil)
	if err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Concert" {
		t.Errorf("candidates = %+v, want one Concert", candidates)
	}
}

func TestExtractEventsEmptyEvents(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"events":[]}`)
	})

	candidates, err := client.ExtractEvents(context.Background(), "Nothing planned.", nil)
	if err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if len(candidates) != 0 {
		t.Errorf("candidates len = %d, want 0", len(candidates))
	}
}

func TestExtractEventsSkipsUntitledEvents(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"events":[{"title":"","date":"tomorrow"},{"title":"Dentist","date":"tomorrow"}]}`)
	})

	candidates, err := client.ExtractEvents(context.Background(), "entry", nil)
	if err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if len(candidates) != 1 || candidates[0].Title != "Dentist" {
		t.Errorf("candidates = %+v, want untitled event dropped", candidates)
	}
}

func TestExtractEventsIncludesRecentContext(t *testing.T) {
	t.Parallel()

	var gotUserContent string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var request chatRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(request.Messages) == 2 {
			gotUserContent = request.Messages[1].Content
		}
		chatReply(t, w, `{"events":[]}`)
	})

	if _, err := client.ExtractEvents(context.Background(), "today's entry", []string{"yesterday's entry"}); err != nil {
		t.Fatalf("ExtractEvents() error = %v", err)
	}
	if gotUserContent == "" || gotUserContent == "today's entry" {
		t.Errorf("user content = %q, want prior entries included", gotUserContent)
	}
}

func TestExtractEventsServerError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	})

	if _, err := client.ExtractEvents(context.Background(), "entry", nil); err == nil {
		t.Fatalf("ExtractEvents() error = nil, want error")
	}
}

func TestExtractEventsModelError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"error": "model llama3.2 not found"}); err != nil {
			t.Errorf("encode reply: %v", err)
		}
	})

	if _, err := client.ExtractEvents(context.Background(), "entry", nil); err == nil {
		t.Fatalf("ExtractEvents() error = nil, want model error")
	}
}

func TestExtractEventsGarbageOutput(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "sure! here are the events you asked about")
	})

	if _, err := client.ExtractEvents(context.Background(), "entry", nil); err == nil {
		t.Fatalf("ExtractEvents() error = nil, want parse error")
	}
}
