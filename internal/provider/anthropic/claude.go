package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	compassErrors "github.com/compass-oss/compass/internal/errors"
	"github.com/compass-oss/compass/internal/provider"
)

const (
	defaultBaseURL = "https://api.anthropic.com/v1"
	defaultModel   = "claude-sonnet-4-20250514"
)

// Client implements provider.Generator against the Anthropic Messages API.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewClient creates a new Anthropic client
func NewClient(apiKey, model string) *Client {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if model == "" {
		model = defaultModel
	}

	return &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}
}

// WithBaseURL overrides the API endpoint, mainly for tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimRight(url, "/")
	return c
}

// Name returns the provider name
func (c *Client) Name() string {
	return "anthropic"
}

// Generate sends a single-prompt completion request to Claude
func (c *Client) Generate(ctx context.Context, req *provider.GenerateRequest) (string, error) {
	if c.apiKey == "" {
		return "", compassErrors.New(compassErrors.CodeAPIKeyMissing, "ANTHROPIC_API_KEY not set").
			WithSuggestion("Set the ANTHROPIC_API_KEY environment variable or add api_key to your compass.yaml provider config")
	}

	apiReq := c.buildRequest(req)

	body, err := json.Marshal(apiReq)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return c.parseResponse(respBody)
}

// buildRequest converts our request to Anthropic API format
func (c *Client) buildRequest(req *provider.GenerateRequest) map[string]interface{} {
	model := req.Model
	if model == "" {
		model = c.model
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	apiReq := map[string]interface{}{
		"model":      model,
		"max_tokens": maxTokens,
		"messages": []map[string]interface{}{
			{"role": "user", "content": req.Prompt},
		},
	}

	if req.System != "" {
		apiReq["system"] = req.System
	}

	if req.Temperature > 0 {
		apiReq["temperature"] = req.Temperature
	}

	return apiReq
}

// parseResponse extracts the text content from the API response
func (c *Client) parseResponse(body []byte) (string, error) {
	var apiResp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
		StopReason string `json:"stop_reason"`
	}

	if err := json.Unmarshal(body, &apiResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	var sb strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", compassErrors.New(compassErrors.CodeProviderError, "empty completion from API")
	}
	return text, nil
}
