package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/HemangVora/LetsBet/llm"
)

func TestChat(t *testing.T) {
	var gotHeaders http.Header
	var gotBody messagesRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		gotHeaders = r.Header.Clone()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{
			"content": [{"type": "text", "text": "hello back"}],
			"usage": {"input_tokens": 12, "output_tokens": 3}
		}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	c.HTTP = srv.Client()
	result, err := c.Chat(context.Background(), llm.Request{
		System:   "be brief",
		Messages: []llm.Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Text != "hello back" {
		t.Fatalf("text = %q", result.Text)
	}
	if result.Usage.TotalTokens != 15 {
		t.Fatalf("total tokens = %d, want 15", result.Usage.TotalTokens)
	}
	if gotHeaders.Get("x-api-key") != "sk-test" {
		t.Fatalf("missing x-api-key header")
	}
	if gotHeaders.Get("anthropic-version") == "" {
		t.Fatalf("missing anthropic-version header")
	}
	if gotBody.Model != defaultModel {
		t.Fatalf("empty model should fall back to %s, got %q", defaultModel, gotBody.Model)
	}
	if gotBody.System != "be brief" {
		t.Fatalf("system prompt not forwarded, got %q", gotBody.System)
	}
	if gotBody.MaxTokens <= 0 {
		t.Fatalf("max_tokens should default to a positive value")
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"type": "rate_limit_error", "message": "rate limited"}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "sk-test")
	c.HTTP = srv.Client()
	_, err := c.Chat(context.Background(), llm.Request{Messages: []llm.Message{{Role: "user", Content: "x"}}})
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected API error message, got %v", err)
	}
}

func TestChatEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content": [], "usage": {"input_tokens": 1, "output_tokens": 0}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "")
	c.HTTP = srv.Client()
	if _, err := c.Chat(context.Background(), llm.Request{Messages: []llm.Message{{Role: "user", Content: "x"}}}); err == nil {
		t.Fatalf("empty content should be an error")
	}
}
