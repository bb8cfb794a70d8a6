package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"jarvis/internal/domain"
	"jarvis/internal/infra/anthropic"
)

func TestClaudeClient_Generate(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		System   string `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		response := map[string]any{
			"content": []map[string]string{
				{"type": "text", "text": "It is 3 PM."},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", "You are JARVIS.", 0, server.URL)

	reply, err := client.Generate(context.Background(), "what time is it")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}

	if reply != "It is 3 PM." {
		t.Errorf("reply: got %q, want %q", reply, "It is 3 PM.")
	}

	if got.Model != "claude-test" {
		t.Errorf("model: got %s, want claude-test", got.Model)
	}

	if got.System != "You are JARVIS." {
		t.Errorf("system: got %q", got.System)
	}

	if len(got.Messages) != 1 || got.Messages[0].Content != "what time is it" {
		t.Errorf("messages: got %+v", got.Messages)
	}
}

func TestClaudeClient_EmptyContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", "", 0, server.URL)

	_, err := client.Generate(context.Background(), "hello")
	if err != domain.ErrEmptyReply {
		t.Errorf("error: got %v, want %v", err, domain.ErrEmptyReply)
	}
}

func TestClaudeClient_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":{"type":"authentication_error","message":"invalid x-api-key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("bad", "claude-test", "", 0, server.URL)

	if _, err := client.Generate(context.Background(), "hello"); err == nil {
		t.Fatal("expected an error")
	}

	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}
