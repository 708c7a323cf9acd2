package provider

import "context"

// Generator defines the interface for text-generation providers. The memory
// subsystem uses it for conversation summarization; any failure is treated
// by the caller as a signal to fall back to local summarization.
type Generator interface {
	// Name returns the provider name
	Name() string

	// Generate produces a completion for a single prompt
	Generate(ctx context.Context, req *GenerateRequest) (string, error)
}

// GenerateRequest represents a single-prompt generation request
type GenerateRequest struct {
	Model       string  `json:"model"`
	System      string  `json:"system,omitempty"`
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}
