// Package api provides HTTP handlers for the askbox API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"html"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ashureev/askbox/internal/domain"
	"github.com/ashureev/askbox/internal/render"
	"github.com/ashureev/askbox/internal/retry"
	"github.com/go-chi/chi/v5"
)

// maxRequestBodySize is the maximum allowed request body size (1MB).
const maxRequestBodySize = 1 << 20

// ChatService is the orchestrator surface the handlers need.
type ChatService interface {
	Ask(ctx context.Context, question, systemPrompt string) (string, error)
	History(ctx context.Context) ([]*domain.ChatRecord, error)
}

// Handler serves the chat endpoints.
type Handler struct {
	svc ChatService
}

// NewHandler creates a new Handler.
func NewHandler(svc ChatService) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers chat routes, including the legacy /chat-prefixed
// aliases.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/ask", h.HandleAsk)
	r.Get("/chat_history", h.HandleChatHistory)
	r.Route("/chat", func(r chi.Router) {
		r.Post("/ask", h.HandleAsk)
		r.Get("/chat_history", h.HandleChatHistory)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// askRequest is the /ask request body. Question stays raw JSON so a
// non-string value can be rejected instead of silently coerced.
type askRequest struct {
	Question     json.RawMessage `json:"question"`
	SystemPrompt string          `json:"system_prompt"`
}

// HandleAsk handles POST /ask.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req askRequest
	// Tolerate invalid JSON; it falls through to the missing-question error.
	_ = json.NewDecoder(r.Body).Decode(&req)

	question, ok := decodeQuestion(req.Question)
	if !ok {
		Error(w, http.StatusBadRequest, "Missing question parameter")
		return
	}

	slog.Info("received question", "question", question)

	answer, err := h.svc.Ask(r.Context(), question, req.SystemPrompt)
	if err != nil {
		if errors.Is(err, retry.ErrOverloaded) {
			Error(w, http.StatusServiceUnavailable, "API is overloaded, please try again later.")
			return
		}
		slog.Error("failed to answer question", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]string{
		"question": question,
		"answer":   answer,
	})
}

// decodeQuestion extracts the question string from the raw JSON value.
// Absent, empty, and non-string values are all rejected.
func decodeQuestion(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var q string
	if err := json.Unmarshal(raw, &q); err != nil {
		return "", false
	}
	if q == "" {
		return "", false
	}
	return q, true
}

// HandleChatHistory handles GET /chat_history. It server-renders the full
// history; answers pass through the sanitizer, questions and timestamps are
// escaped verbatim.
func (h *Handler) HandleChatHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.History(r.Context())
	if err != nil {
		slog.Error("failed to load chat history", "error", err)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(historyErrorPage))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(historyPage(records)))
}

const historyErrorPage = "<!doctype html><html><head><meta charset='utf-8'><title>Error</title></head>" +
	"<body><h1>Chat History Error</h1><p>Sorry, something went wrong rendering the chat history.</p></body></html>"

// historyPage builds the chat-history HTML document.
func historyPage(records []*domain.ChatRecord) string {
	var b strings.Builder

	b.WriteString("<!doctype html><html><head><meta charset='utf-8'>")
	b.WriteString("<title>Chat History</title>")
	b.WriteString("</head><body style='font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; line-height:1.45; padding: 1rem;'>")
	b.WriteString("<h1>Chat History</h1>")

	for i, rec := range records {
		escQ := html.EscapeString(rec.Question)
		escT := html.EscapeString(rec.CreatedAt.Format("2006-01-02 15:04:05"))
		rendered := render.Answer(rec.Answer)

		b.WriteString("<section style='margin:1rem 0; padding:1rem; border:1px solid #ddd; border-radius:8px;'>")
		b.WriteString("<div><strong>Question ")
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteString(":</strong></div>")
		b.WriteString("<div style='white-space:pre-wrap; margin:.25rem 0 1rem 0'>")
		b.WriteString(escQ)
		b.WriteString("</div>")
		b.WriteString("<div class='answer'>")
		b.WriteString(rendered)
		b.WriteString("</div>")
		b.WriteString("<div style='color:#666; margin-top:.5rem'><strong>Timestamp:</strong> ")
		b.WriteString(escT)
		b.WriteString("</div>")
		b.WriteString("</section>")
	}

	b.WriteString("</body></html>")
	return b.String()
}
