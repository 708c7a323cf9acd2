// Package compass provides a public API for the compass memory engine.
//
// Example usage:
//
//	import "github.com/compass-oss/compass/pkg/compass"
//
//	client, err := compass.Open(".")
//	if err != nil { ... }
//	defer client.Close()
//
//	client.StartConversation("")
//	reply, err := client.Send(ctx, "I've been struggling to keep a morning routine.")
//	memoryID, err := client.EndConversation(ctx, true)
package compass

import (
	"context"
	"fmt"

	"github.com/compass-oss/compass/internal/config"
	"github.com/compass-oss/compass/internal/memory"
	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/provider/anthropic"
	"github.com/compass-oss/compass/internal/telemetry"
)

// Record is a stored memory.
type Record = memory.Record

// Tier is a memory retention class: short, mid, or long.
type Tier = memory.Tier

// Tier values.
const (
	TierShort = memory.TierShort
	TierMid   = memory.TierMid
	TierLong  = memory.TierLong
)

// Stats summarizes a user's stored memories.
type Stats = memory.Stats

// Client is a coaching session handle backed by tiered memory.
type Client struct {
	cfg     *config.Config
	store   memory.Store
	manager *memory.Manager
	gen     provider.Generator
	logger  *telemetry.Logger
	system  string
}

// Open loads config from dir and wires up the memory engine.
func Open(dir string) (*Client, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := telemetry.NewLogger(cfg.Logging.Level, cfg.Logging.Format)

	store, err := memory.NewStore(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory store: %w", err)
	}

	var gen provider.Generator
	if cfg.Provider.Name == "anthropic" || cfg.Provider.Name == "" {
		client := anthropic.NewClient(cfg.Provider.APIKey, cfg.Provider.Model)
		if cfg.Provider.BaseURL != "" {
			client = client.WithBaseURL(cfg.Provider.BaseURL)
		}
		gen = provider.NewRetryGenerator(client, provider.DefaultRetryConfig())
	}

	mgr, err := memory.NewManager(store, memory.ManagerOptions{
		UserID:              cfg.Memory.UserID,
		Enabled:             cfg.Memory.Enabled,
		SimilarityThreshold: cfg.Memory.SimilarityThreshold,
		CacheSize:           int64(cfg.Memory.ContextCacheSize),
		Generator:           gen,
		Logger:              logger,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Client{
		cfg:     cfg,
		store:   store,
		manager: mgr,
		gen:     gen,
		logger:  logger,
	}, nil
}

// SetSystemPrompt overrides the default coaching persona used by Send.
func (c *Client) SetSystemPrompt(prompt string) {
	c.system = prompt
}

// StartConversation begins a session and returns its id.
func (c *Client) StartConversation(id string) string {
	return c.manager.StartConversation(id)
}

// Send records a user turn, captures memory-worthy facts from it, and
// returns the assistant's reply generated with memory context.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	if c.gen == nil {
		return "", fmt.Errorf("no provider configured")
	}

	conversationID := c.manager.ActiveConversation()
	if conversationID == "" {
		conversationID = c.manager.StartConversation("")
	}

	c.manager.AddMessage(memory.RoleUser, message)
	if _, err := c.manager.CaptureFacts(message); err != nil {
		c.logger.Warn("fact capture failed", "error", err)
	}

	system := c.system
	if system == "" {
		system = "You are a thoughtful life coach. Keep responses concise and grounded in what the person has actually said."
	}
	if memCtx := c.manager.MemoryContext(conversationID); memCtx != "" {
		system += "\n\n" + memCtx
	}

	reply, err := c.gen.Generate(ctx, &provider.GenerateRequest{
		Model:  c.cfg.Provider.Model,
		System: system,
		Prompt: message,
	})
	if err != nil {
		return "", err
	}

	c.manager.AddMessage(memory.RoleAssistant, reply)
	return reply, nil
}

// EndConversation closes the session, persisting the transcript and, when
// remember is set, a summary memory. Returns the memory id or "".
func (c *Client) EndConversation(ctx context.Context, remember bool) (string, error) {
	return c.manager.EndConversation(ctx, remember)
}

// Remember stores content as a memory in the active session immediately.
func (c *Client) Remember(content string, tier Tier) (string, error) {
	return c.manager.CreateMemoryNow(content, tier)
}

// Promote moves a memory to the mid or long tier.
func (c *Client) Promote(memoryID string, target Tier) (*Record, error) {
	return c.manager.Promote(memoryID, target)
}

// Search returns memories matching the query, newest first.
func (c *Client) Search(query string, limit int) ([]*Record, error) {
	return c.manager.Search(query, limit)
}

// Memories returns all stored memories, newest first.
func (c *Client) Memories() ([]*Record, error) {
	return c.manager.Memories()
}

// Forget deletes a memory and reports whether it existed.
func (c *Client) Forget(memoryID string) (bool, error) {
	return c.manager.Forget(memoryID)
}

// Stats summarizes the stored memories.
func (c *Client) Stats() (*Stats, error) {
	return c.manager.Stats()
}

// MemoryContext returns the assembled memory context for a conversation.
func (c *Client) MemoryContext(conversationID string) string {
	return c.manager.MemoryContext(conversationID)
}

// Close releases the store and cache.
func (c *Client) Close() error {
	c.manager.Close()
	return c.store.Close()
}
