package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ashureev/askbox/internal/chat"
	"github.com/ashureev/askbox/internal/llm"
	"github.com/ashureev/askbox/internal/retry"
	"github.com/ashureev/askbox/internal/store"
	"github.com/go-chi/chi/v5"
)

// scriptedClient plays back one canned provider response.
type scriptedClient struct {
	raw string
}

func (c *scriptedClient) Invoke(ctx context.Context, question, systemPrompt string) (string, error) {
	return c.raw, nil
}

func (c *scriptedClient) Name() string { return "scripted" }

func newIntegrationRouter(t *testing.T, raw string) http.Handler {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "chat.db"))
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})

	retrier := retry.NewController(llm.IsRateLimited, retry.WithSleep(func(time.Duration) {}))
	svc := chat.NewService(&scriptedClient{raw: raw}, repo, retrier, "test prompt")

	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r)
	return r
}

func TestAskEndToEnd(t *testing.T) {
	router := newIntegrationRouter(t, `{"format":"markdown","content":"4","brief":"math"}`)

	// Ask a question; the contract content comes back as the answer.
	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"What is 2+2?"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["question"] != "What is 2+2?" || got["answer"] != "4" {
		t.Fatalf("payload = %v, want question and extracted answer", got)
	}

	// The stored answer is the extracted content, visible in the history page.
	req = httptest.NewRequest(http.MethodGet, "/chat_history", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("history status = %d", w.Code)
	}
	page := w.Body.String()
	if !strings.Contains(page, "What is 2+2?") {
		t.Errorf("history missing question: %s", page)
	}
	if !strings.Contains(page, "<div class='answer'>4</div>") {
		t.Errorf("history missing extracted answer: %s", page)
	}
	if strings.Contains(page, "\"format\"") {
		t.Errorf("raw contract JSON leaked into history: %s", page)
	}
}

func TestAskEndToEndMarkdownFallback(t *testing.T) {
	router := newIntegrationRouter(t, "The answer is **4**.")

	req := httptest.NewRequest(http.MethodPost, "/ask",
		strings.NewReader(`{"question":"What is 2+2?"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got map[string]string
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Unparseable output stores the raw text as Markdown content.
	if got["answer"] != "The answer is **4**." {
		t.Errorf("answer = %q", got["answer"])
	}

	req = httptest.NewRequest(http.MethodGet, "/chat_history", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !strings.Contains(w.Body.String(), "The answer is <strong>4</strong>.") {
		t.Errorf("history did not render markdown bold: %s", w.Body.String())
	}
}
