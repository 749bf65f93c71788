// Package chat orchestrates one question/answer exchange: provider call with
// retries, contract parsing, and persistence.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ashureev/askbox/internal/contract"
	"github.com/ashureev/askbox/internal/domain"
	"github.com/ashureev/askbox/internal/llm"
	"github.com/ashureev/askbox/internal/retry"
	"github.com/ashureev/askbox/internal/store"
)

// Service mediates between questions, an LLM provider, and the chat store.
type Service struct {
	client       llm.Client
	repo         store.Repository
	retrier      *retry.Controller
	systemPrompt string
}

// NewService creates a Service. systemPrompt is the default used when a
// request does not carry its own.
func NewService(client llm.Client, repo store.Repository, retrier *retry.Controller, systemPrompt string) *Service {
	return &Service{
		client:       client,
		repo:         repo,
		retrier:      retrier,
		systemPrompt: systemPrompt,
	}
}

// Ask relays the question to the provider, extracts the answer content from
// the raw response, persists the exchange, and returns the content.
//
// Transient provider failures are retried by the controller; exhaustion
// surfaces as retry.ErrOverloaded. Fatal provider and storage errors
// propagate to the caller.
func (s *Service) Ask(ctx context.Context, question, systemPrompt string) (string, error) {
	prompt := strings.TrimSpace(systemPrompt)
	if prompt == "" {
		prompt = s.systemPrompt
	}

	slog.Info("sending question to provider", "provider", s.client.Name())

	raw, err := s.retrier.Call(ctx, func(ctx context.Context) (string, error) {
		return s.client.Invoke(ctx, question, prompt)
	})
	if err != nil {
		return "", err
	}

	c := contract.Parse(raw)
	slog.Info("parsed provider response",
		"provider", s.client.Name(),
		"format", c.Format,
		"brief", c.Brief)

	// Only the extracted content is stored, never raw provider output.
	rec := &domain.ChatRecord{Question: question, Answer: c.Content}
	if err := s.repo.InsertChat(ctx, rec); err != nil {
		return "", fmt.Errorf("store chat record: %w", err)
	}

	return c.Content, nil
}

// History returns all stored exchanges in insertion order.
func (s *Service) History(ctx context.Context) ([]*domain.ChatRecord, error) {
	return s.repo.ListChats(ctx)
}
