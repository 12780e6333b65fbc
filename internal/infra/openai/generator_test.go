package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
)

func fakeCompletions(t *testing.T, content string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["model"] != DefaultModel {
			t.Errorf("unexpected model %v", req["model"])
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
			return
		}
		body := map[string]interface{}{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  DefaultModel,
			"choices": []map[string]interface{}{
				{"index": 0, "finish_reason": "stop", "message": map[string]string{"role": "assistant", "content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
}

const oneQuestion = `[{"question":"Which art movement did Dali belong to?","options":["Surrealism","Cubism","Fauvism","Dada"],"correctAnswer":"Surrealism","category":"Arts & Culture"}]`

func TestGeneratorParsesCompletion(t *testing.T) {
	srv := fakeCompletions(t, "```json\n"+oneQuestion+"\n```", http.StatusOK)
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, logger)

	questions, err := g.Generate(context.Background(), 1)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(questions) != 1 || questions[0].CorrectAnswer != "Surrealism" || len(questions[0].Options) != 4 {
		t.Fatalf("unexpected questions: %+v", questions)
	}
}

func TestGeneratorUpstreamError(t *testing.T) {
	srv := fakeCompletions(t, "", http.StatusInternalServerError)
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, logger)
	if _, err := g.Generate(context.Background(), 5); err == nil {
		t.Fatalf("expected error from failing upstream")
	}
}

func TestGeneratorMalformedContent(t *testing.T) {
	srv := fakeCompletions(t, "here are your questions!", http.StatusOK)
	defer srv.Close()

	logger, _ := test.NewNullLogger()
	g := NewGenerator(Config{APIKey: "test-key", BaseURL: srv.URL + "/v1"}, logger)
	if _, err := g.Generate(context.Background(), 5); err == nil || !strings.Contains(err.Error(), "parse model output") {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestGeneratorWithoutKey(t *testing.T) {
	g := NewGenerator(Config{}, nil)
	if _, err := g.Generate(context.Background(), 5); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestPromptCarriesCount(t *testing.T) {
	if !strings.HasPrefix(Prompt(7), "Generate 7 challenging") {
		t.Fatalf("unexpected prompt head: %q", Prompt(7)[:40])
	}
}
