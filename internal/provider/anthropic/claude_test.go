package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	compassErrors "github.com/compass-oss/compass/internal/errors"
	"github.com/compass-oss/compass/internal/provider"
)

func TestClient_Generate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}

		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req["model"] != "claude-sonnet-4-20250514" {
			t.Errorf("unexpected model: %v", req["model"])
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"content": [{"type": "text", "text": "A short summary of the conversation."}],
			"stop_reason": "end_turn"
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "").WithBaseURL(server.URL)

	text, err := client.Generate(context.Background(), &provider.GenerateRequest{
		Prompt: "Summarize this conversation.",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "A short summary of the conversation." {
		t.Errorf("unexpected text: %q", text)
	}
}

func TestClient_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"type": "rate_limit_error"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "").WithBaseURL(server.URL)

	_, err := client.Generate(context.Background(), &provider.GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "API error (status 429)") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestClient_Generate_MissingKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	client := NewClient("", "")

	_, err := client.Generate(context.Background(), &provider.GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}
	if compassErrors.AsCode(err) != compassErrors.CodeAPIKeyMissing {
		t.Errorf("expected API_KEY_MISSING, got %q", compassErrors.AsCode(err))
	}
}

func TestClient_Generate_EmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content": [], "stop_reason": "end_turn"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", "").WithBaseURL(server.URL)

	_, err := client.Generate(context.Background(), &provider.GenerateRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error for empty completion")
	}
	if compassErrors.AsCode(err) != compassErrors.CodeProviderError {
		t.Errorf("expected PROVIDER_ERROR, got %q", compassErrors.AsCode(err))
	}
}
