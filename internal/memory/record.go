package memory

import (
	"fmt"
	"strings"
	"time"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

// Tier is the retention class of a memory record.
type Tier string

const (
	TierShort Tier = "short" // session-local facts
	TierMid   Tier = "mid"   // cross-session recency
	TierLong  Tier = "long"  // durable high-value insight
)

// Tiers returns all tiers in retention order.
func Tiers() []Tier {
	return []Tier{TierShort, TierMid, TierLong}
}

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	switch t {
	case TierShort, TierMid, TierLong:
		return true
	}
	return false
}

// Record is a single memory. Records are immutable once written; promotion
// creates a new record at the target tier and deletes the source.
type Record struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ConversationID string    `json:"conversation_id"`
	Content        string    `json:"content"`
	Tier           Tier      `json:"tier"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	RelevanceScore float64   `json:"relevance_score"` // reserved for future ranking
}

// NewRecord creates a record with a derived id and fresh timestamps.
func NewRecord(userID, conversationID, content string, tier Tier) *Record {
	now := time.Now().UTC()
	return &Record{
		ID:             fmt.Sprintf("%s-%s-%d", conversationID, tier, now.UnixNano()),
		UserID:         userID,
		ConversationID: conversationID,
		Content:        content,
		Tier:           tier,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Validate checks that all required fields are present.
func (r *Record) Validate() error {
	var missing []string
	if r.ID == "" {
		missing = append(missing, "id")
	}
	if r.UserID == "" {
		missing = append(missing, "user_id")
	}
	if r.ConversationID == "" {
		missing = append(missing, "conversation_id")
	}
	if r.Content == "" {
		missing = append(missing, "content")
	}
	if r.Tier == "" {
		missing = append(missing, "tier")
	}
	if r.CreatedAt.IsZero() {
		missing = append(missing, "created_at")
	}
	if r.UpdatedAt.IsZero() {
		missing = append(missing, "updated_at")
	}
	if len(missing) > 0 {
		return compassErrors.New(compassErrors.CodeValidation,
			"record missing required fields: "+strings.Join(missing, ", "))
	}
	if !r.Tier.Valid() {
		return compassErrors.New(compassErrors.CodeValidation,
			fmt.Sprintf("invalid tier: %s", r.Tier))
	}
	return nil
}

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single conversation turn.
type Message struct {
	Role      string    `json:"role"` // user, assistant, system
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript is the append-once record of a full conversation, persisted at
// session end and never mutated afterwards.
type Transcript struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	Messages       []Message `json:"messages"`
	CreatedAt      time.Time `json:"created_at"`
}

// Stats summarizes the stored memories of one user.
type Stats struct {
	Total         int          `json:"total"`
	PerTier       map[Tier]int `json:"per_tier"`
	Conversations int          `json:"conversations"`
}
