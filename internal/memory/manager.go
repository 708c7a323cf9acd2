package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	compassErrors "github.com/compass-oss/compass/internal/errors"
	"github.com/compass-oss/compass/internal/event"
	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/telemetry"
)

// A conversation must have at least this many user turns before a summary
// memory is worth keeping.
const minUserTurns = 3

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	UserID              string
	Enabled             bool
	SimilarityThreshold float64
	CacheSize           int64
	Generator           provider.Generator
	Logger              *telemetry.Logger
	Metrics             *telemetry.Metrics
	Events              *event.Bus
}

// Manager owns the conversation lifecycle for one user: it buffers the active
// session, writes tier records, promotes them, and serves assembled context.
// All session mutations go through the manager, so the per-user duplicate
// check in createRecord is the single write-time gate.
type Manager struct {
	store      Store
	cache      *ContextCache
	extractor  *Extractor
	summarizer *Summarizer
	logger     *telemetry.Logger
	metrics    *telemetry.Metrics
	events     *event.Bus

	userID    string
	enabled   bool
	threshold float64

	mu             sync.Mutex
	conversationID string
	messages       []Message
}

// NewManager creates a manager over the given store.
func NewManager(store Store, opts ManagerOptions) (*Manager, error) {
	if opts.UserID == "" {
		opts.UserID = "default_user"
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.7
	}
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewLogger("info", "text")
	}

	cache, err := NewContextCache(store, opts.CacheSize, logger, opts.Metrics)
	if err != nil {
		return nil, err
	}

	return &Manager{
		store:      store,
		cache:      cache,
		extractor:  NewExtractor(opts.SimilarityThreshold, logger),
		summarizer: NewSummarizer(opts.Generator, logger, opts.Metrics),
		logger:     logger,
		metrics:    opts.Metrics,
		events:     opts.Events,
		userID:     opts.UserID,
		enabled:    opts.Enabled,
		threshold:  opts.SimilarityThreshold,
	}, nil
}

// emit publishes a lifecycle event. Blocking hook failures are logged and
// never propagate into memory operations.
func (m *Manager) emit(t event.EventType, data map[string]interface{}) {
	if err := m.events.Emit(event.NewEvent(t, data)); err != nil {
		m.logger.Warn("event hook failed", "event", string(t), "error", err)
	}
}

// UserID returns the user this manager serves.
func (m *Manager) UserID() string { return m.userID }

// ActiveConversation returns the id of the active conversation, or "".
func (m *Manager) ActiveConversation() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// StartConversation begins a session. An empty id gets a generated one. A
// start during an active session discards the buffered session.
func (m *Manager) StartConversation(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conversationID != "" {
		m.logger.Warn("starting conversation over an active session, discarding buffer",
			"previous", m.conversationID, "messages", len(m.messages))
		if m.metrics != nil {
			m.metrics.IncSessionsEnded()
		}
	}

	if id == "" {
		id = uuid.New().String()
	}
	m.conversationID = id
	m.messages = nil

	m.cache.Forget(m.userID, id)

	if m.metrics != nil {
		m.metrics.IncSessionsStarted()
	}
	m.logger.Info("conversation started", "conversation_id", id, "user_id", m.userID)
	m.emit(event.SessionStarted, map[string]interface{}{
		"conversation_id": id,
		"user_id":         m.userID,
	})
	return id
}

// AddMessage appends a turn to the active session, starting one when none is
// active.
func (m *Manager) AddMessage(role, content string) {
	m.mu.Lock()
	active := m.conversationID != ""
	m.mu.Unlock()

	if !active {
		m.logger.Warn("message before conversation start, starting one")
		m.StartConversation("")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// MemoryContext returns the assembled memory context for a conversation.
// Failures are logged and yield an empty context so a chat turn never fails
// on a memory read.
func (m *Manager) MemoryContext(conversationID string) string {
	if !m.enabled {
		return ""
	}
	ctx, err := m.cache.Context(m.userID, conversationID)
	if err != nil {
		m.logger.Error("failed to load memory context",
			"conversation_id", conversationID, "error", err)
		if m.metrics != nil {
			m.metrics.IncStorageErrors()
		}
		return ""
	}
	return ctx
}

// EndConversation closes the active session, persists its transcript, and,
// when remember is set and the session carried at least three user turns,
// writes a short-tier summary memory. Returns the new memory id, or "" when
// no memory was created.
func (m *Manager) EndConversation(ctx context.Context, remember bool) (string, error) {
	m.mu.Lock()
	if m.conversationID == "" || len(m.messages) == 0 {
		m.mu.Unlock()
		m.logger.Warn("no active conversation to end")
		return "", nil
	}
	conversationID := m.conversationID
	messages := m.messages
	m.conversationID = ""
	m.messages = nil
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.IncSessionsEnded()
	}
	m.emit(event.SessionEnded, map[string]interface{}{
		"conversation_id": conversationID,
		"user_id":         m.userID,
	})

	if !m.enabled {
		m.logger.Info("memory disabled, conversation discarded",
			"conversation_id", conversationID)
		return "", nil
	}

	if err := m.store.PutTranscript(&Transcript{
		ConversationID: conversationID,
		UserID:         m.userID,
		Messages:       messages,
		CreatedAt:      time.Now().UTC(),
	}); err != nil {
		if m.metrics != nil {
			m.metrics.IncStorageErrors()
		}
		return "", err
	}

	if !remember {
		m.logger.Info("conversation ended without memory", "conversation_id", conversationID)
		return "", nil
	}

	userTurns := 0
	for _, msg := range messages {
		if msg.Role == RoleUser {
			userTurns++
		}
	}
	if userTurns < minUserTurns {
		m.logger.Info("not enough user turns to create memory",
			"conversation_id", conversationID, "user_turns", userTurns)
		return "", nil
	}

	summary := m.summarizer.Summarize(ctx, messages)
	rec, err := m.createRecord(conversationID, summary, TierShort)
	if err != nil {
		return "", err
	}
	m.logger.Info("conversation ended with memory",
		"conversation_id", conversationID, "memory_id", rec.ID)
	return rec.ID, nil
}

// CreateMemoryNow writes a memory with caller-supplied content during the
// active session, bypassing the user-turn floor.
func (m *Manager) CreateMemoryNow(content string, tier Tier) (string, error) {
	if !m.enabled {
		return "", nil
	}
	if !tier.Valid() {
		return "", compassErrors.New(compassErrors.CodeValidation,
			"invalid tier: "+string(tier))
	}

	m.mu.Lock()
	conversationID := m.conversationID
	m.mu.Unlock()
	if conversationID == "" {
		return "", compassErrors.New(compassErrors.CodeValidation,
			"no active conversation").
			WithSuggestion("start a conversation before creating a memory")
	}

	rec, err := m.createRecord(conversationID, content, tier)
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// CaptureFacts extracts memory-worthy statements from text and writes each as
// a short-tier memory during the active session. Returns the record ids,
// including ids of existing records that absorbed near-duplicate candidates.
func (m *Manager) CaptureFacts(text string) ([]string, error) {
	if !m.enabled {
		return nil, nil
	}

	m.mu.Lock()
	conversationID := m.conversationID
	m.mu.Unlock()
	if conversationID == "" {
		return nil, compassErrors.New(compassErrors.CodeValidation,
			"no active conversation").
			WithSuggestion("start a conversation before capturing facts")
	}

	var ids []string
	for _, candidate := range m.extractor.Extract(text) {
		rec, err := m.createRecord(conversationID, candidate, TierShort)
		if err != nil {
			return ids, err
		}
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

// Promote moves a memory to a higher tier: a new record is written at the
// target tier and the source record is deleted. A source delete failure is
// logged and the promotion still succeeds.
func (m *Manager) Promote(memoryID string, target Tier) (*Record, error) {
	if target != TierMid && target != TierLong {
		return nil, compassErrors.New(compassErrors.CodeInvalidTarget,
			"invalid promotion target: "+string(target)).
			WithSuggestion("promote to 'mid' or 'long'")
	}

	src, err := m.store.Get(memoryID)
	if err != nil {
		return nil, err
	}
	if src.Tier == target {
		return src, nil
	}

	promoted := NewRecord(src.UserID, src.ConversationID, src.Content, target)
	if err := m.store.Put(promoted); err != nil {
		if m.metrics != nil {
			m.metrics.IncStorageErrors()
		}
		return nil, err
	}

	if _, err := m.store.Delete(src.ID); err != nil {
		m.logger.Warn("promoted memory source not deleted",
			"memory_id", src.ID, "error", err)
	}

	m.cache.Invalidate(src.UserID)
	if m.metrics != nil {
		m.metrics.IncMemoriesPromoted()
	}
	m.logger.Info("memory promoted",
		"from", src.ID, "to", promoted.ID, "tier", string(target))
	m.emit(event.MemoryPromoted, map[string]interface{}{
		"from": src.ID,
		"to":   promoted.ID,
		"tier": string(target),
	})
	return promoted, nil
}

// Search returns the user's memories matching the query, newest first.
func (m *Manager) Search(query string, limit int) ([]*Record, error) {
	return m.store.Search(m.userID, query, limit)
}

// Memories returns all of the user's memories, newest first.
func (m *Manager) Memories() ([]*Record, error) {
	return m.store.ByUser(m.userID)
}

// Get returns one memory by id.
func (m *Manager) Get(id string) (*Record, error) {
	return m.store.Get(id)
}

// Forget deletes a memory and reports whether it existed.
func (m *Manager) Forget(id string) (bool, error) {
	rec, err := m.store.Get(id)
	if err != nil {
		if compassErrors.HasCode(err, compassErrors.CodeNotFound) {
			return false, nil
		}
		return false, err
	}
	ok, err := m.store.Delete(id)
	if err != nil {
		return false, err
	}
	m.cache.Invalidate(rec.UserID)
	if ok {
		m.emit(event.MemoryDeleted, map[string]interface{}{"memory_id": id})
	}
	return ok, nil
}

// Stats summarizes the user's stored memories.
func (m *Manager) Stats() (*Stats, error) {
	return m.store.Stats(m.userID)
}

// Transcript returns the persisted transcript of a conversation.
func (m *Manager) Transcript(conversationID string) (*Transcript, error) {
	return m.store.GetTranscript(conversationID)
}

// Close releases the manager's cache. The store is owned by the caller.
func (m *Manager) Close() {
	m.cache.Close()
}

// createRecord writes a memory unless the user already holds one with
// near-identical content, in which case the existing record is returned.
func (m *Manager) createRecord(conversationID, content string, tier Tier) (*Record, error) {
	existing, err := m.store.ByUser(m.userID)
	if err != nil {
		return nil, err
	}
	for _, rec := range existing {
		if Similarity(content, rec.Content) > m.threshold {
			if m.metrics != nil {
				m.metrics.IncMemoriesDeduped()
			}
			m.logger.Debug("near-duplicate memory absorbed by existing record",
				"existing_id", rec.ID)
			m.emit(event.MemoryDeduped, map[string]interface{}{
				"existing_id": rec.ID,
			})
			return rec, nil
		}
	}

	start := time.Now()
	rec := NewRecord(m.userID, conversationID, content, tier)
	if err := m.store.Put(rec); err != nil {
		if m.metrics != nil {
			m.metrics.IncStorageErrors()
		}
		return nil, err
	}
	if m.metrics != nil {
		m.metrics.RecordStoreLatency(time.Since(start))
		m.metrics.IncMemoriesCreated()
	}

	m.cache.Invalidate(m.userID)
	m.emit(event.MemoryCreated, map[string]interface{}{
		"memory_id":       rec.ID,
		"conversation_id": conversationID,
		"tier":            string(tier),
	})
	return rec, nil
}
