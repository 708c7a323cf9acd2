package memory

import (
	"regexp"
	"strings"

	"github.com/compass-oss/compass/internal/telemetry"
)

// Explicit memory requests keep only the captured content; the smallest
// useful capture is 6 characters.
var explicitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)remember that (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)remember this:?\s*(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)please remember (?:that )?(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)can you remember (?:that )?(.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)store this (?:information|fact):?\s*(.+?)(?:\.|$)`),
}

// Topical statements keep the whole matched statement; the smallest useful
// statement is 11 characters.
var topicalPatterns = []*regexp.Regexp{
	// goals
	regexp.MustCompile(`(?im)my goal is (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i want to (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i'm trying to (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i am working on (.+?)(?:\.|$)`),

	// challenges
	regexp.MustCompile(`(?im)i struggle with (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)my challenge is (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i find it difficult to (.+?)(?:\.|$)`),

	// preferences
	regexp.MustCompile(`(?im)i prefer (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i like (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i don't like (.+?)(?:\.|$)`),

	// personal details
	regexp.MustCompile(`(?im)my name is (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i am (.+? years old)(?:\.|$)`),
	regexp.MustCompile(`(?im)i live in (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i work as a (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i work at (.+?)(?:\.|$)`),

	// ongoing practices
	regexp.MustCompile(`(?im)i've been practicing (.+?)(?:\.|$)`),
	regexp.MustCompile(`(?im)i'm involved with (.+?)(?:\.|$)`),
}

// Extractor pulls memory-worthy statements out of conversation text.
// Extraction is best effort and never fails; a pattern that yields nothing
// simply contributes no candidates.
type Extractor struct {
	threshold float64
	logger    *telemetry.Logger
}

// NewExtractor creates an extractor. Candidates more similar than threshold
// to an earlier candidate in the same batch are dropped.
func NewExtractor(threshold float64, logger *telemetry.Logger) *Extractor {
	if threshold <= 0 {
		threshold = 0.7
	}
	return &Extractor{threshold: threshold, logger: logger}
}

// Extract returns deduplicated candidates from text: explicit memory
// requests first, then topical statements, each in pattern order.
func (e *Extractor) Extract(text string) []string {
	var candidates []string

	for _, pat := range explicitPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			content := strings.TrimSpace(m[1])
			if len(content) > 5 {
				candidates = append(candidates, content)
			}
		}
	}

	for _, pat := range topicalPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			statement := strings.TrimSpace(m[0])
			if len(statement) > 10 {
				candidates = append(candidates, statement)
			}
		}
	}

	unique := e.dedupe(candidates)
	if e.logger != nil && len(candidates) > 0 {
		e.logger.Debug("extracted memory candidates",
			"raw", len(candidates), "unique", len(unique))
	}
	return unique
}

// dedupe keeps the first of any pair of candidates whose word-set similarity
// exceeds the threshold.
func (e *Extractor) dedupe(candidates []string) []string {
	var unique []string
	for _, c := range candidates {
		dup := false
		for _, kept := range unique {
			if Similarity(c, kept) > e.threshold {
				dup = true
				break
			}
		}
		if !dup {
			unique = append(unique, c)
		}
	}
	return unique
}
