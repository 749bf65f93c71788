package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// validateTimeout bounds the startup credential check.
const validateTimeout = 30 * time.Second

// ValidateCredentials makes one lightweight call against the provider to
// verify the configured API key before the server starts taking traffic.
// An exhausted account balance is reported as a distinct CreditsError; a
// rate-limited check passes, since the key itself is evidently valid.
func ValidateCredentials(ctx context.Context, c Client) error {
	ctx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	_, err := c.Invoke(ctx, "ping", "credential check")
	if err == nil {
		return nil
	}
	if IsInsufficientCredits(err) {
		return fmt.Errorf("validate %s credentials: %w", c.Name(), err)
	}
	if IsRateLimited(err) {
		slog.Warn("credential check rate limited, assuming key is valid",
			"provider", c.Name(), "error", err)
		return nil
	}
	return fmt.Errorf("validate %s credentials: %w", c.Name(), err)
}
