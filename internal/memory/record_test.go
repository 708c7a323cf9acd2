package memory

import (
	"strings"
	"testing"

	compassErrors "github.com/compass-oss/compass/internal/errors"
)

func TestNewRecord(t *testing.T) {
	rec := NewRecord("alice", "conv-1", "likes hiking", TierShort)

	if !strings.HasPrefix(rec.ID, "conv-1-short-") {
		t.Errorf("id = %q, want conv-1-short- prefix", rec.ID)
	}
	if rec.UserID != "alice" || rec.ConversationID != "conv-1" {
		t.Errorf("unexpected ownership: %q / %q", rec.UserID, rec.ConversationID)
	}
	if rec.Tier != TierShort {
		t.Errorf("tier = %q, want short", rec.Tier)
	}
	if rec.CreatedAt.IsZero() || !rec.CreatedAt.Equal(rec.UpdatedAt) {
		t.Error("timestamps should be set and equal at creation")
	}
	if rec.RelevanceScore != 0 {
		t.Errorf("relevance_score = %v, want 0", rec.RelevanceScore)
	}
	if err := rec.Validate(); err != nil {
		t.Errorf("new record should validate: %v", err)
	}
}

func TestRecordValidate_MissingFields(t *testing.T) {
	rec := NewRecord("alice", "conv-1", "content", TierShort)
	rec.Content = ""
	rec.UserID = ""

	err := rec.Validate()
	if !compassErrors.HasCode(err, compassErrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "user_id") || !strings.Contains(err.Error(), "content") {
		t.Errorf("error should name missing fields: %v", err)
	}
}

func TestRecordValidate_InvalidTier(t *testing.T) {
	rec := NewRecord("alice", "conv-1", "content", Tier("eternal"))
	if err := rec.Validate(); !compassErrors.HasCode(err, compassErrors.CodeValidation) {
		t.Fatalf("expected validation error for bad tier, got %v", err)
	}
}

func TestTierValid(t *testing.T) {
	for _, tier := range Tiers() {
		if !tier.Valid() {
			t.Errorf("%s should be valid", tier)
		}
	}
	if Tier("medium").Valid() {
		t.Error("'medium' is not a tier")
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "I have two children", "I have two children", 1.0},
		{"case insensitive", "My Goal Is Prayer", "my goal is prayer", 1.0},
		{"disjoint", "completely different words", "nothing shared here at all", 0.0},
		{"both empty", "", "", 1.0},
		{"one empty", "something", "", 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Similarity(tt.a, tt.b); got != tt.want {
				t.Errorf("Similarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSimilarity_Partial(t *testing.T) {
	// word sets {i, enjoy, hiking} and {i, enjoy, swimming}: 2 shared of 4
	got := Similarity("I enjoy hiking", "I enjoy swimming")
	if got != 0.5 {
		t.Errorf("Similarity = %v, want 0.5", got)
	}
}
