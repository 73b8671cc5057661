package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spigell/job-radar/internal/ai"
)

const completionBody = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "stop",
    "message": {"role": "assistant", "content": "{\"match_score\": 77, \"reasoning\": \"ok\", \"is_match\": true}"}
  }]
}`

func newTestServer(t *testing.T, status int, body string, captured *map[string]any) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected auth header %q", got)
		}
		if captured != nil {
			data, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(data, captured)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestNewRequiresKey(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestCompleteWithSchema(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, http.StatusOK, completionBody, &captured)

	client, err := New(Options{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := client.Complete(context.Background(), ai.AnalysisRequest("score this"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"match_score": 77, "reasoning": "ok", "is_match": true}` {
		t.Fatalf("unexpected content: %q", got)
	}

	if captured["model"] != DefaultModel {
		t.Fatalf("expected default model, got %v", captured["model"])
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", captured["response_format"])
	}
}

func TestCompleteJSONObject(t *testing.T) {
	var captured map[string]any
	srv := newTestServer(t, http.StatusOK, completionBody, &captured)

	client, err := New(Options{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := client.Complete(context.Background(), ai.Request{Prompt: "list jobs", Format: ai.FormatJSON}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	format, _ := captured["response_format"].(map[string]any)
	if format["type"] != "json_object" {
		t.Fatalf("expected json_object response format, got %v", captured["response_format"])
	}
}

func TestCompleteAPIError(t *testing.T) {
	srv := newTestServer(t, http.StatusUnauthorized, `{"error": {"message": "bad key", "type": "invalid_request_error"}}`, nil)

	client, err := New(Options{APIKey: "sk-test", BaseURL: srv.URL + "/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Complete(context.Background(), ai.Request{Prompt: "score"})
	var reqErr *ai.ProviderRequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected ProviderRequestError, got %v", err)
	}
	if reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", reqErr.StatusCode)
	}
}
