package llm

import (
	"errors"
	"fmt"
	"strings"
)

// RateLimitError signals that a provider rejected the call because of rate
// limiting or quota exhaustion. The retry controller treats it as transient.
type RateLimitError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// CreditsError signals that the provider account has insufficient credits.
// Unlike rate limiting this is fatal: retrying cannot help.
type CreditsError struct {
	Provider string
	Message  string
}

func (e *CreditsError) Error() string {
	return fmt.Sprintf("%s account has insufficient credits: %s", e.Provider, e.Message)
}

// rateLimitMarkers are substrings that identify a rate-limit or quota
// condition in provider error text when no dedicated error kind is present.
var rateLimitMarkers = []string{
	"rate limit",
	"rate_limit",
	"ratelimited",
	"quota",
	"resource_exhausted",
	"resourceexhausted",
	"429",
	"too many requests",
}

// IsRateLimited reports whether err signals rate limiting or quota
// exhaustion. It recognizes the dedicated RateLimitError kind and falls back
// to substring matching on the error text for errors that cross process or
// serialization boundaries.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rle *RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsInsufficientCredits reports whether err signals an exhausted account
// balance rather than a transient quota window.
func IsInsufficientCredits(err error) bool {
	if err == nil {
		return false
	}
	var ce *CreditsError
	if errors.As(err, &ce) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "credit balance is too low")
}

// classifyStatus converts a non-200 provider response into the right error
// kind. 429 and quota-flavored messages become RateLimitError; a low credit
// balance becomes CreditsError; everything else is a plain error.
func classifyStatus(provider string, status int, body string) error {
	if status == 429 {
		return &RateLimitError{Provider: provider, StatusCode: status, Message: body}
	}
	lower := strings.ToLower(body)
	if strings.Contains(lower, "credit balance is too low") ||
		strings.Contains(lower, "insufficient credits") {
		return &CreditsError{Provider: provider, Message: body}
	}
	for _, marker := range []string{"quota", "resource_exhausted", "rate limit", "rate_limit"} {
		if strings.Contains(lower, marker) {
			return &RateLimitError{Provider: provider, StatusCode: status, Message: body}
		}
	}
	return fmt.Errorf("%s API error %d: %s", provider, status, body)
}
