// Package llm provides interchangeable provider adapters for large
// language models.
//
// Each adapter speaks its provider's HTTP API directly and returns the raw
// response text untouched; contract parsing happens downstream. Adapters
// classify rate-limit and quota responses as RateLimitError so the retry
// controller can tell transient failures from fatal ones.
package llm

import (
	"context"
	"net/http"
	"time"
)

// Supported provider names.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// CallTimeout bounds a single provider call. Exposed so the server can size
// its write timeout around a full retry sequence.
const CallTimeout = 60 * time.Second

// Client is the common interface implemented by all provider adapters.
type Client interface {
	// Invoke sends the question with an optional system prompt and returns
	// the provider's raw response text.
	Invoke(ctx context.Context, question, systemPrompt string) (string, error)

	// Name returns the provider name ("openai", "anthropic", "gemini").
	Name() string
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: CallTimeout}
}
