package memory

import (
	"strings"
	"sync"

	"github.com/dgraph-io/ristretto"

	compassErrors "github.com/compass-oss/compass/internal/errors"
	"github.com/compass-oss/compass/internal/telemetry"
)

const contextHeader = "Here are relevant memories about previous interactions:"

var tierLabels = map[Tier]string{
	TierLong:  "Long-term memories (key insights and patterns):",
	TierMid:   "Mid-term memories (recent conversations and topics):",
	TierShort: "Short-term memories (latest conversation):",
}

// ContextCache serves assembled memory context per conversation, read-through
// over the store. Entries are invalidated per user after every write so a
// read following a write always sees the new record.
type ContextCache struct {
	store   Store
	cache   *ristretto.Cache
	logger  *telemetry.Logger
	metrics *telemetry.Metrics

	mu       sync.Mutex
	byUser   map[string]map[string]struct{} // user id -> cached conversation ids
	versions map[string]uint64              // bumped by Invalidate; guards re-insertion
}

// NewContextCache creates a cache holding up to size assembled contexts.
func NewContextCache(store Store, size int64, logger *telemetry.Logger, metrics *telemetry.Metrics) (*ContextCache, error) {
	if size <= 0 {
		size = 64
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: size * 10,
		MaxCost:     size,
		BufferItems: 64,
		// Entries cost 1 each; without this, ristretto adds its internal
		// per-item overhead and rejects every Set against a small MaxCost.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, compassErrors.Wrap(compassErrors.CodeStorage,
			"failed to create context cache", err)
	}
	return &ContextCache{
		store:    store,
		cache:    cache,
		logger:   logger,
		metrics:  metrics,
		byUser:   make(map[string]map[string]struct{}),
		versions: make(map[string]uint64),
	}, nil
}

// Context returns the assembled memory context for a conversation, or the
// empty string when the user has no memories.
func (c *ContextCache) Context(userID, conversationID string) (string, error) {
	if val, ok := c.cache.Get(conversationID); ok {
		if c.metrics != nil {
			c.metrics.IncCacheHits()
		}
		return val.(string), nil
	}
	if c.metrics != nil {
		c.metrics.IncCacheMisses()
	}

	c.mu.Lock()
	version := c.versions[userID]
	c.mu.Unlock()

	ctx, err := c.assemble(userID)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[userID] != version {
		// A write invalidated this user while we were assembling. Serve
		// the result but keep it out of the cache; the next read
		// re-assembles from the post-write state.
		return ctx, nil
	}
	if c.byUser[userID] == nil {
		c.byUser[userID] = make(map[string]struct{})
	}
	c.byUser[userID][conversationID] = struct{}{}
	c.cache.Set(conversationID, ctx, 1)
	// Set is async; wait so the entry is immediately visible.
	c.cache.Wait()
	return ctx, nil
}

func (c *ContextCache) assemble(userID string) (string, error) {
	parts := []string{contextHeader}
	found := false
	for _, tier := range []Tier{TierLong, TierMid, TierShort} {
		rec, err := c.store.LatestByTier(userID, tier)
		if err != nil {
			return "", err
		}
		if rec == nil {
			continue
		}
		found = true
		parts = append(parts, "\n"+tierLabels[tier], rec.Content)
	}
	if !found {
		return "", nil
	}
	return strings.Join(parts, "\n"), nil
}

// Invalidate drops every cached context belonging to a user. Called
// synchronously after each memory write.
func (c *ContextCache) Invalidate(userID string) {
	c.mu.Lock()
	convs := c.byUser[userID]
	delete(c.byUser, userID)
	c.versions[userID]++
	c.mu.Unlock()

	for conv := range convs {
		c.cache.Del(conv)
	}
	c.cache.Wait()

	if c.logger != nil && len(convs) > 0 {
		c.logger.Debug("invalidated context cache", "user_id", userID, "entries", len(convs))
	}
}

// Forget drops the cached context of one conversation.
func (c *ContextCache) Forget(userID, conversationID string) {
	c.mu.Lock()
	if convs := c.byUser[userID]; convs != nil {
		delete(convs, conversationID)
	}
	c.mu.Unlock()

	c.cache.Del(conversationID)
	c.cache.Wait()
}

// Close releases the cache.
func (c *ContextCache) Close() {
	c.cache.Close()
}
