package llm

import "fmt"

// New returns a Client for the specified provider.
// Supported providers: "openai", "anthropic", "gemini".
func New(provider, apiKey, model string) (Client, error) {
	switch provider {
	case ProviderOpenAI:
		return NewOpenAIClient(apiKey, model), nil
	case ProviderAnthropic:
		return NewAnthropicClient(apiKey, model), nil
	case ProviderGemini:
		return NewGeminiClient(apiKey, model), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %q", provider)
	}
}
