package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func completionHandler(t *testing.T, content string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("undecodable request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}

		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}
}

func TestHTTPAdapter_Complete(t *testing.T) {
	server := httptest.NewServer(completionHandler(t, "hello from the model"))
	defer server.Close()

	adapter := NewHTTPAdapter(HTTPConfig{BaseURL: server.URL, Model: "test"}, nil)

	got, err := adapter.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "hello from the model" {
		t.Errorf("Complete = %q", got)
	}
}

func TestHTTPAdapter_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"recovered"}}]}`)
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(HTTPConfig{BaseURL: server.URL, Model: "test", MaxRetries: 2}, nil)

	got, err := adapter.Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Complete failed after retry: %v", err)
	}
	if got != "recovered" {
		t.Errorf("Complete = %q", got)
	}
	if calls.Load() != 2 {
		t.Errorf("server saw %d calls, want 2", calls.Load())
	}
}

func TestHTTPAdapter_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(HTTPConfig{BaseURL: server.URL, Model: "test", MaxRetries: 3}, nil)

	_, err := adapter.Complete(context.Background(), "hi")
	if err == nil {
		t.Fatal("Complete succeeded on a 400")
	}
	var apiErr *AdapterError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("error = %v, want an AdapterError carrying the status", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server saw %d calls for a non-retryable failure, want 1", calls.Load())
	}
}

func TestHTTPAdapter_CompleteStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(HTTPConfig{BaseURL: server.URL, Model: "test"}, nil)

	var chunks []string
	full, err := adapter.CompleteStream(context.Background(), "hi", func(chunk string) {
		chunks = append(chunks, chunk)
	})
	if err != nil {
		t.Fatalf("CompleteStream failed: %v", err)
	}

	if full != "Hello" {
		t.Errorf("accumulated = %q, want Hello", full)
	}
	if len(chunks) != 2 || chunks[0] != "Hel" || chunks[1] != "lo" {
		t.Errorf("chunks = %v", chunks)
	}
}

func TestHTTPAdapter_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer server.Close()

	adapter := NewHTTPAdapter(HTTPConfig{BaseURL: server.URL, Model: "test"}, nil)
	if _, err := adapter.Complete(context.Background(), "hi"); err == nil {
		t.Error("Complete accepted a response with no choices")
	}
}
