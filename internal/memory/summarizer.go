package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/compass-oss/compass/internal/provider"
	"github.com/compass-oss/compass/internal/telemetry"
)

const (
	summaryMinWords = 20
	summaryMaxWords = 100

	// Appended until a short summary reaches the word floor.
	summaryFiller = "This conversation explored personal growth and life coaching guidance."

	summaryPromptTemplate = `Below is a conversation between a user and a life coach assistant.
Please generate a concise summary of this conversation in 20-100 words.
Focus on the key points, questions asked, and insights shared.

Conversation:
%s

Summary:`
)

// Summarizer condenses a conversation into a 20-100 word summary. It prefers
// the configured generator and degrades to a local extract when the generator
// is absent or fails; it never returns an error.
type Summarizer struct {
	generator provider.Generator
	logger    *telemetry.Logger
	metrics   *telemetry.Metrics
}

// NewSummarizer creates a summarizer. A nil generator means every call takes
// the local fallback path.
func NewSummarizer(gen provider.Generator, logger *telemetry.Logger, metrics *telemetry.Metrics) *Summarizer {
	return &Summarizer{generator: gen, logger: logger, metrics: metrics}
}

// Summarize returns a summary of the conversation within the word bounds.
func (s *Summarizer) Summarize(ctx context.Context, messages []Message) string {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordSummaryLatency(time.Since(start))
		}
	}()

	if s.generator != nil {
		summary, err := s.generate(ctx, messages)
		if err == nil && strings.TrimSpace(summary) != "" {
			return clampWords(summary)
		}
		if err != nil && s.logger != nil {
			s.logger.Warn("summary generation failed, using fallback", "error", err)
		}
	}

	if s.metrics != nil {
		s.metrics.IncSummaryFallbacks()
	}
	return clampWords(s.fallback(messages))
}

func (s *Summarizer) generate(ctx context.Context, messages []Message) (string, error) {
	var sb strings.Builder
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		switch msg.Role {
		case RoleUser:
			sb.WriteString("User: " + msg.Content + "\n\n")
		case RoleAssistant:
			sb.WriteString("Assistant: " + msg.Content + "\n\n")
		}
	}

	return s.generator.Generate(ctx, &provider.GenerateRequest{
		Prompt:    fmt.Sprintf(summaryPromptTemplate, sb.String()),
		MaxTokens: 300,
	})
}

// fallback builds a summary from the first sentence of each of the last five
// user and assistant turns.
func (s *Summarizer) fallback(messages []Message) string {
	if len(messages) > 5 {
		messages = messages[len(messages)-5:]
	}

	var parts []string
	for _, msg := range messages {
		if msg.Content == "" {
			continue
		}
		var label string
		switch msg.Role {
		case RoleUser:
			label = "User"
		case RoleAssistant:
			label = "Assistant"
		default:
			continue
		}
		sentence := strings.SplitN(msg.Content, ".", 2)[0]
		if runes := []rune(sentence); len(runes) > 50 {
			sentence = string(runes[:50]) + "..."
		}
		parts = append(parts, label+": "+sentence)
	}
	return strings.Join(parts, " ")
}

// clampWords pads a summary below the floor with the filler clause and
// truncates one above the ceiling.
func clampWords(summary string) string {
	summary = strings.TrimSpace(summary)
	for len(strings.Fields(summary)) < summaryMinWords {
		summary = strings.TrimSpace(summary + " " + summaryFiller)
	}
	if words := strings.Fields(summary); len(words) > summaryMaxWords {
		summary = strings.Join(words[:summaryMaxWords], " ") + "..."
	}
	return summary
}
