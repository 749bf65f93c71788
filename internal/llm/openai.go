package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiAugmentation is appended to every question sent to OpenAI. Legacy
// behavior: the service historically asked OpenAI for HTML-formatted answers
// and downstream consumers still expect it.
const openaiAugmentation = ". Answer the question using HTML5 tags to improve formatting. " +
	"Do not break the 3rd wall and explicitly mention the HTML5 tags."

// OpenAIClient implements Client for the OpenAI chat completions API.
type OpenAIClient struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

// NewOpenAIClient creates a new OpenAI adapter.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultOpenAIBaseURL,
		http:    newHTTPClient(),
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *OpenAIClient) SetBaseURL(url string) {
	c.baseURL = strings.TrimRight(url, "/")
}

// Name returns the provider name.
func (c *OpenAIClient) Name() string { return ProviderOpenAI }

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
}

type openaiResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Invoke sends the question to the OpenAI API and returns the raw response
// text, trimmed of surrounding whitespace.
func (c *OpenAIClient) Invoke(ctx context.Context, question, systemPrompt string) (string, error) {
	reqBody := openaiRequest{
		Model: c.model,
		Messages: []openaiMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: question + openaiAugmentation},
		},
		Temperature: 0.2,
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewBuffer(data))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("call OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(ProviderOpenAI, resp.StatusCode, string(body))
	}

	var openaiResp openaiResponse
	if err := json.Unmarshal(body, &openaiResp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}
	if len(openaiResp.Choices) == 0 {
		return "", fmt.Errorf("no choices in OpenAI response")
	}
	return strings.TrimSpace(openaiResp.Choices[0].Message.Content), nil
}
