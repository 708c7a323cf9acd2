package memory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/telemetry"
)

type stubGenerator struct {
	response string
	err      error
	calls    int
	lastReq  *provider.GenerateRequest
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(_ context.Context, req *provider.GenerateRequest) (string, error) {
	s.calls++
	s.lastReq = req
	return s.response, s.err
}

func coachingTurns(n int) []Message {
	var msgs []Message
	for i := 0; i < n; i++ {
		msgs = append(msgs, Message{
			Role:      RoleUser,
			Content:   fmt.Sprintf("I have been thinking about my goals, round %d.", i),
			Timestamp: time.Now(),
		})
		msgs = append(msgs, Message{
			Role:      RoleAssistant,
			Content:   "That sounds like meaningful progress worth exploring further.",
			Timestamp: time.Now(),
		})
	}
	return msgs
}

func TestSummarize_UsesGenerator(t *testing.T) {
	gen := &stubGenerator{
		response: "The user reflected on balancing work and family while planning a daily routine, and the coach suggested starting with small consistent habits over several weeks.",
	}
	s := NewSummarizer(gen, telemetry.NewTestLogger(), nil)

	got := s.Summarize(context.Background(), coachingTurns(3))
	if gen.calls != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.calls)
	}
	if got != gen.response {
		t.Errorf("summary = %q, want generator output", got)
	}
	if !strings.Contains(gen.lastReq.Prompt, "User: ") {
		t.Error("prompt should include labeled turns")
	}
}

func TestSummarize_PadsShortSummary(t *testing.T) {
	gen := &stubGenerator{response: "Talked about goals."}
	s := NewSummarizer(gen, telemetry.NewTestLogger(), nil)

	got := s.Summarize(context.Background(), coachingTurns(3))
	if n := len(strings.Fields(got)); n < summaryMinWords {
		t.Errorf("summary has %d words, want at least %d", n, summaryMinWords)
	}
	if !strings.HasPrefix(got, "Talked about goals.") {
		t.Errorf("padding should preserve the original text: %q", got)
	}
}

func TestSummarize_TruncatesLongSummary(t *testing.T) {
	gen := &stubGenerator{response: strings.Repeat("word ", 150)}
	s := NewSummarizer(gen, telemetry.NewTestLogger(), nil)

	got := s.Summarize(context.Background(), coachingTurns(3))
	if n := len(strings.Fields(got)); n > summaryMaxWords {
		t.Errorf("summary has %d words, want at most %d", n, summaryMaxWords)
	}
	if !strings.HasSuffix(got, "...") {
		t.Error("truncated summary should end with ellipsis")
	}
}

func TestSummarize_FallbackOnGeneratorError(t *testing.T) {
	gen := &stubGenerator{err: fmt.Errorf("provider down")}
	metrics := telemetry.NewMetrics()
	s := NewSummarizer(gen, telemetry.NewTestLogger(), metrics)

	got := s.Summarize(context.Background(), coachingTurns(3))
	if !strings.Contains(got, "User:") || !strings.Contains(got, "Assistant:") {
		t.Errorf("fallback should carry role labels: %q", got)
	}
	if n := len(strings.Fields(got)); n < summaryMinWords {
		t.Errorf("fallback has %d words, want at least %d", n, summaryMinWords)
	}

	summary := metrics.GetSummary()
	if summary["summary_fallbacks"].(int64) != 1 {
		t.Error("fallback should be counted")
	}
}

func TestSummarize_NilGenerator(t *testing.T) {
	s := NewSummarizer(nil, telemetry.NewTestLogger(), nil)

	got := s.Summarize(context.Background(), coachingTurns(1))
	if got == "" {
		t.Fatal("summary should never be empty")
	}
	if n := len(strings.Fields(got)); n < summaryMinWords {
		t.Errorf("summary has %d words, want at least %d", n, summaryMinWords)
	}
}

func TestSummarize_FallbackUsesLastFiveTurns(t *testing.T) {
	s := NewSummarizer(nil, telemetry.NewTestLogger(), nil)

	msgs := coachingTurns(5) // 10 turns
	msgs[len(msgs)-1].Content = "Closing thought on gratitude practice."

	got := s.Summarize(context.Background(), msgs)
	if !strings.Contains(got, "Closing thought on gratitude practice") {
		t.Errorf("fallback should include the latest turn: %q", got)
	}
	if strings.Contains(got, "round 0") {
		t.Errorf("fallback should not reach the oldest turns: %q", got)
	}
}

func TestSummarize_FallbackTruncatesLongSentences(t *testing.T) {
	s := NewSummarizer(nil, telemetry.NewTestLogger(), nil)

	msgs := []Message{{
		Role:    RoleUser,
		Content: strings.Repeat("a", 80),
	}}
	got := s.Summarize(context.Background(), msgs)
	if !strings.Contains(got, strings.Repeat("a", 50)+"...") {
		t.Errorf("long first sentence should be truncated at 50 chars: %q", got)
	}
}

func TestSummarize_FallbackTruncatesOnRuneBoundaries(t *testing.T) {
	s := NewSummarizer(nil, telemetry.NewTestLogger(), nil)

	msgs := []Message{{
		Role:    RoleUser,
		Content: strings.Repeat("é", 60),
	}}
	got := s.Summarize(context.Background(), msgs)
	if !utf8.ValidString(got) {
		t.Fatalf("summary is not valid UTF-8: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("é", 50)+"...") {
		t.Errorf("long first sentence should be truncated at 50 runes: %q", got)
	}
}
