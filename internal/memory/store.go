package memory

import (
	"fmt"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

// Store persists memory records and conversation transcripts. Implementations
// must be safe for concurrent use; writes are serialized behind a coarse lock
// so readers never observe a partially applied write.
type Store interface {
	// Put writes a record, replacing any existing record with the same id.
	Put(rec *Record) error

	// Get returns the record with the given id, or a MEMORY_NOT_FOUND error.
	Get(id string) (*Record, error)

	// LatestByTier returns the newest record of a user at a tier, or nil
	// when the user has no records at that tier.
	LatestByTier(userID string, tier Tier) (*Record, error)

	// ByConversation returns all records of a conversation, newest first.
	ByConversation(conversationID string) ([]*Record, error)

	// ByUser returns all records of a user across all tiers, newest first.
	ByUser(userID string) ([]*Record, error)

	// Search returns up to limit records of a user whose content contains
	// the query, case-insensitively, newest first. A limit <= 0 means no
	// limit.
	Search(userID, query string, limit int) ([]*Record, error)

	// Delete removes a record and reports whether it existed.
	Delete(id string) (bool, error)

	// PutTranscript writes a conversation transcript.
	PutTranscript(t *Transcript) error

	// GetTranscript returns the transcript of a conversation, or a
	// MEMORY_NOT_FOUND error.
	GetTranscript(conversationID string) (*Transcript, error)

	// Stats summarizes the stored memories of a user.
	Stats(userID string) (*Stats, error)

	// Close releases the underlying storage.
	Close() error
}

// NewStore creates a store for the given driver. Supported drivers are
// "sqlite" and "file".
func NewStore(driver, path string) (Store, error) {
	switch driver {
	case "sqlite":
		return NewSQLiteStore(path)
	case "file":
		return NewFileStore(path)
	default:
		return nil, compassErrors.New(compassErrors.CodeConfigInvalid,
			fmt.Sprintf("unknown storage driver: %s", driver)).
			WithSuggestion("use 'sqlite' or 'file'")
	}
}
