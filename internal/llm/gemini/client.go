package gemini

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

const apiBase = "https://generativelanguage.googleapis.com/v1beta/models"

// Client implements llm.Provider against the Gemini generateContent API.
type Client struct {
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	baseURL     string
	httpClient  *http.Client
}

// NewClient constructs a Gemini client. The model and API key are required.
func NewClient(apiKey, model string, temperature float64, maxTokens int, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required for gemini")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("LLM_MODEL is required for gemini")
	}
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
		baseURL:     apiBase,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type generateRequest struct {
	Contents         []content         `json:"contents"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Complete sends prompt as a single user turn and returns the first
// candidate's text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: prompt}}},
		},
		GenerationConfig: &generationConfig{
			Temperature:     c.temperature,
			MaxOutputTokens: c.maxTokens,
		},
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini marshal", Err: err}
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "Client.Timeout") {
			return "", &llm.Error{Kind: llm.KindTimeout, Op: "gemini call", Err: err}
		}
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini call", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini read body", Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &llm.Error{Kind: llm.KindRateLimited, Op: "gemini call", Message: trimBody(body)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &llm.Error{Kind: llm.KindConfiguration, Op: "gemini call", Message: trimBody(body)}
	case resp.StatusCode != http.StatusOK:
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini call", Message: fmt.Sprintf("status %d: %s", resp.StatusCode, trimBody(body))}
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "gemini parse", Err: err}
	}
	if parsed.Error != nil {
		return "", &llm.Error{Kind: llm.KindProvider, Op: "gemini call", Message: fmt.Sprintf("%s (%s)", parsed.Error.Message, parsed.Error.Status)}
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "gemini parse", Message: "response missing candidates"}
	}

	var b strings.Builder
	for _, p := range parsed.Candidates[0].Content.Parts {
		b.WriteString(p.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", &llm.Error{Kind: llm.KindInvalidResponse, Op: "gemini parse", Message: "response empty content"}
	}
	return text, nil
}

func trimBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	return s
}

var _ llm.Provider = (*Client)(nil)
