package groq

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"academic-backend/internal/llm"
)

const apiURL = "https://api.groq.com/openai/v1/chat/completions"

// Client implements llm.Provider against the Groq chat completions API.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

// NewClient constructs a Groq client. The model and API key are required.
func NewClient(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for groq")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for groq")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     apiURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single user message and returns the first
// choice's content. Failures are classified onto llm error kinds so the
// completion client can decide what to retry.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq marshal", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.Error{Kind: llm.KindTimeout, Op: "groq call", Err: err}
		}
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq call", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq read body", Err: err}
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", &llm.Error{Kind: llm.KindRateLimited, Op: "groq call", Message: trimBody(body)}
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", &llm.Error{Kind: llm.KindConfiguration, Op: "groq call", Message: trimBody(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq call", Message: fmt.Sprintf("status %d: %s", resp.StatusCode, trimBody(body))}
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "groq parse", Err: err}
	}
	if parsed.Error != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "groq call", Message: fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Type)}
	}
	if len(parsed.Choices) == 0 {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "groq parse", Message: "response missing choices"}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "groq parse", Message: "response empty content"}
	}
	return content, nil
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

var _ llm.Provider = (*Client)(nil)
