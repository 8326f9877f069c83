package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/provenalabs/mimesis/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Summarize generates a narrative for the report with strict reference mode
	Summarize(ctx context.Context, req SummarizeRequest) (*SummarizeResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// SummarizeRequest contains the input for LLM summarization
type SummarizeRequest struct {
	// Report is the provenance report to narrate
	Report model.Report

	// AllowedURLs is the STRICT allowlist of URLs the LLM can cite,
	// the references actually found in the document. Anything else in
	// the response is a citation leak.
	AllowedURLs []string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// SummarizeResponse contains the LLM's narrative output
type SummarizeResponse struct {
	// Summary is the generated narrative text
	Summary string

	// CitedURLs are the URLs the LLM actually cited (for verification)
	CitedURLs []string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictRefs enforces the URL allowlist (should always be true)
	StrictRefs bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:   "", // Disabled by default
		Model:      "",
		Timeout:    30,
		StrictRefs: true,
		MaxTokens:  1000,
	}
}

// BuildPrompt constructs the default prompt for summarization with strict reference mode
func BuildPrompt(report model.Report, allowedURLs []string) string {
	prompt := fmt.Sprintf(`You are summarizing an authorship-provenance report. The engine aggregates statistical detector signals into a composite score - it NEVER proves who or what wrote the text.

CRITICAL RULES:
1. You MUST ONLY cite URLs from this allowed list:
%s

2. DO NOT infer, speculate, or cite external sources beyond this list.
3. If a detector signal is absent, say the information is missing.
4. Focus on SIGNAL STRENGTH, not authorship verdicts. Use phrases like:
   - "Statistical signals lean machine-typical in..."
   - "Counter-evidence weakens the machine hypothesis for..."
   - "No watermark information was available for..."
5. Never say "this was written by AI" or "a human wrote this" - only describe the indicators.

Report Summary:
- Source: %s
- Document Score: %.2f (0 = human-typical, 1 = machine-typical)
- Segments Scored: %d of %d
- Counter-Evidence Segments: %d
- References: %d resolved, %d broken

Segment Highlights:
`, joinURLs(allowedURLs), report.Source, report.DocumentScore, report.Stats.Scored, len(report.Segments),
		countCounterEvidence(report.Segments), countResolved(report.Segments), countBroken(report.Segments))

	// Add the three most suspicious segments
	for _, seg := range topSegments(report.Segments, 3) {
		rationale := "no material signals"
		if len(seg.Score.Rationale) > 0 {
			rationale = seg.Score.Rationale[0]
		}
		prompt += fmt.Sprintf("- %s (%s, score %.2f, %s confidence): %s\n",
			seg.Segment.ID, seg.Segment.Type, seg.Score.Score, seg.Score.Confidence, rationale)
	}

	prompt += "\nProvide a 3-4 sentence summary focusing on what the signals show, not on verdicts."

	return prompt
}

// Helper functions

func joinURLs(urls []string) string {
	if len(urls) == 0 {
		return "(No reference URLs available)"
	}
	result := ""
	for i, url := range urls {
		if i >= 20 { // Limit to first 20 to avoid token bloat
			result += fmt.Sprintf("\n... and %d more URLs", len(urls)-20)
			break
		}
		result += fmt.Sprintf("\n- %s", url)
	}
	return result
}

func countResolved(segments []model.SegmentReport) int {
	count := 0
	for _, seg := range segments {
		for _, check := range seg.References {
			if !check.Skipped && check.Resolved {
				count++
			}
		}
	}
	return count
}

func countBroken(segments []model.SegmentReport) int {
	count := 0
	for _, seg := range segments {
		for _, check := range seg.References {
			if !check.Skipped && !check.Resolved {
				count++
			}
		}
	}
	return count
}

func countCounterEvidence(segments []model.SegmentReport) int {
	count := 0
	for _, seg := range segments {
		if seg.CounterEvidence {
			count++
		}
	}
	return count
}

// topSegments returns up to n segments ordered by descending score
func topSegments(segments []model.SegmentReport, n int) []model.SegmentReport {
	sorted := make([]model.SegmentReport, len(segments))
	copy(sorted, segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score.Score > sorted[j].Score.Score
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
