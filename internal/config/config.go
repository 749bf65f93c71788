// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultSystemPrompt is used when neither the environment nor the request
// supplies a system prompt.
const DefaultSystemPrompt = "In all your responses, please focus on substance over praise. " +
	"Skip unnecessary compliments, engage critically with my ideas, question my assumptions, " +
	"identify my biases, and offer counterpoints when relevant. Don't shy away from disagreement, " +
	"and ensure that any agreements you have are grounded in reason and evidence."

// Per-provider default models.
const (
	defaultOpenAIModel    = "gpt-4-turbo-preview"
	defaultAnthropicModel = "claude-3-5-sonnet-20240620"
	defaultGeminiModel    = "gemini-1.5-flash"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string

	Provider        string
	APIKey          string
	Model           string
	SystemPrompt    string
	ValidateOnStart bool

	RetryAttempts  int
	RetryBaseDelay time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		FrontendURL:     getEnv("FRONTEND_URL", ""),
		DBPath:          getEnv("DB_PATH", "./data/chat_history.db"),
		Provider:        strings.ToLower(getEnv("LLM_PROVIDER", "")),
		Model:           getEnv("LLM_MODEL", ""),
		SystemPrompt:    getEnv("DEFAULT_SYSTEM_PROMPT", DefaultSystemPrompt),
		ValidateOnStart: getEnvBool("LLM_VALIDATE_ON_START", true),
		RetryAttempts:   getEnvInt("LLM_RETRY_ATTEMPTS", 5),
		RetryBaseDelay:  time.Duration(getEnvInt("LLM_RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
	}

	if cfg.Provider == "" {
		cfg.Provider = inferProvider()
	}
	cfg.APIKey = apiKeyFor(cfg.Provider)
	if cfg.Model == "" {
		cfg.Model = defaultModelFor(cfg.Provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Provider == "" {
		return fmt.Errorf("no LLM provider configured: set LLM_PROVIDER or one of OPENAI_API_KEY, ANTHROPIC_API_KEY, GEMINI_API_KEY")
	}
	if c.APIKey == "" {
		return fmt.Errorf("no API key set for provider %q", c.Provider)
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("LLM_RETRY_ATTEMPTS must be > 0")
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("LLM_RETRY_BASE_DELAY_MS must be >= 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// inferProvider picks a provider from whichever API key is present.
// Precedence: OpenAI, then Anthropic, then Gemini.
func inferProvider() string {
	switch {
	case os.Getenv("OPENAI_API_KEY") != "":
		return "openai"
	case anthropicKey() != "":
		return "anthropic"
	case os.Getenv("GEMINI_API_KEY") != "":
		return "gemini"
	default:
		return ""
	}
}

func apiKeyFor(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return anthropicKey()
	case "gemini":
		return os.Getenv("GEMINI_API_KEY")
	default:
		return ""
	}
}

// anthropicKey honors the legacy CLAUDE_API_KEY name as a fallback.
func anthropicKey() string {
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("CLAUDE_API_KEY")
}

func defaultModelFor(provider string) string {
	switch provider {
	case "openai":
		return defaultOpenAIModel
	case "anthropic":
		return defaultAnthropicModel
	case "gemini":
		return defaultGeminiModel
	default:
		return ""
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
