//go:build integration

package integration

import (
	"context"
	"strings"
	"testing"

	"github.com/compass-oss/compass/internal/memory"
	"github.com/compass-oss/compass/internal/testutil"
)

func TestFullSessionLifecycle(t *testing.T) {
	h := testutil.NewTestHarness(t)
	h.SetResponses(
		"The user reflected on building a consistent morning routine and the coach encouraged starting with one small habit, tracking it daily, and reviewing progress after two weeks.",
	)

	ctx := context.Background()

	convID := h.Manager.StartConversation("")
	h.Manager.AddMessage(memory.RoleUser, "I want to build a better morning routine.")
	h.Manager.AddMessage(memory.RoleAssistant, "What does your ideal morning look like?")
	h.Manager.AddMessage(memory.RoleUser, "Quiet time before the kids wake up.")
	h.Manager.AddMessage(memory.RoleAssistant, "Protecting that window is a good start.")
	h.Manager.AddMessage(memory.RoleUser, "I'll try waking up at six.")
	h.Manager.AddMessage(memory.RoleAssistant, "Start there and see how the week goes.")

	memID, err := h.Manager.EndConversation(ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	if memID == "" {
		t.Fatal("expected a summary memory")
	}

	// the transcript survived
	tr, err := h.Manager.Transcript(convID)
	if err != nil {
		t.Fatal(err)
	}
	if len(tr.Messages) != 6 {
		t.Errorf("transcript turns = %d, want 6", len(tr.Messages))
	}

	// the next session sees the summary in its context
	next := h.Manager.StartConversation("")
	memCtx := h.Manager.MemoryContext(next)
	if !strings.Contains(memCtx, "morning routine") {
		t.Errorf("context should carry the summary forward: %q", memCtx)
	}

	// promote the summary and confirm the tier move end to end
	promoted, err := h.Manager.Promote(memID, memory.TierLong)
	if err != nil {
		t.Fatal(err)
	}
	stats, err := h.Manager.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.PerTier[memory.TierLong] != 1 || stats.PerTier[memory.TierShort] != 0 {
		t.Errorf("per tier after promotion = %v", stats.PerTier)
	}

	memCtx = h.Manager.MemoryContext(next)
	if !strings.Contains(memCtx, promoted.Content) {
		t.Errorf("promoted memory should appear in context: %q", memCtx)
	}
}

func TestExplicitMemoriesAcrossSessions(t *testing.T) {
	h := testutil.NewTestHarness(t)
	ctx := context.Background()

	h.Manager.StartConversation("")
	ids, err := h.Manager.CaptureFacts("Remember that my daughter starts school in September.")
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 {
		t.Fatalf("ids = %v", ids)
	}
	if _, err := h.Manager.EndConversation(ctx, false); err != nil {
		t.Fatal(err)
	}

	next := h.Manager.StartConversation("")
	if got := h.Manager.MemoryContext(next); !strings.Contains(got, "daughter starts school") {
		t.Errorf("explicit memory should persist across sessions: %q", got)
	}

	recs, err := h.Manager.Search("september", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Errorf("search results = %+v", recs)
	}
}
