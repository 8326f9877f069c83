package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/provenalabs/mimesis/internal/model"
)

// Summarizer wraps a provider and turns reports into optional LLM
// narratives. Failures degrade to warnings: the analysis stands on its
// own and a missing summary never fails a run.
type Summarizer struct {
	provider Provider
	config   Config
}

// NewSummarizer creates a summarizer from configuration. An empty
// provider name yields a disabled summarizer, not an error.
func NewSummarizer(config Config) (*Summarizer, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Summarizer{
		provider: provider,
		config:   config,
	}, nil
}

// IsEnabled reports whether a provider is configured
func (s *Summarizer) IsEnabled() bool {
	return s.provider != nil
}

// ProviderName returns the configured provider's name, or "" when disabled
func (s *Summarizer) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// GenerateSummary produces the LLM narrative for a report. Returns
// (nil, nil) when disabled; provider failures come back as a summary
// carrying warnings rather than an error.
func (s *Summarizer) GenerateSummary(ctx context.Context, report model.Report) (*model.LLMSummary, error) {
	if s.provider == nil {
		return nil, nil
	}

	if !s.provider.IsAvailable(ctx) {
		return &model.LLMSummary{
			Enabled:    false,
			Provider:   s.provider.Name(),
			StrictRefs: s.config.StrictRefs,
			Warnings: []string{
				fmt.Sprintf("LLM provider %s is not available (check API key and endpoint)", s.provider.Name()),
			},
		}, nil
	}

	allowedURLs := collectReferenceURLs(report)

	resp, err := s.provider.Summarize(ctx, SummarizeRequest{
		Report:      report,
		AllowedURLs: allowedURLs,
		Model:       s.config.Model,
		MaxTokens:   s.config.MaxTokens,
	})
	if err != nil {
		return &model.LLMSummary{
			Enabled:    true,
			Provider:   s.provider.Name(),
			Model:      s.config.Model,
			StrictRefs: s.config.StrictRefs,
			Warnings: []string{
				fmt.Sprintf("Summary generation failed: %v", err),
			},
		}, nil
	}

	summary := &model.LLMSummary{
		Enabled:    true,
		Provider:   s.provider.Name(),
		Model:      resp.Model,
		StrictRefs: s.config.StrictRefs,
		SummaryMD:  resp.Summary,
		Warnings:   []string{},
	}

	if resp.TokensUsed > 0 {
		summary.Warnings = append(summary.Warnings, fmt.Sprintf("Tokens used: %d", resp.TokensUsed))
	}
	if len(resp.CitedURLs) > 0 {
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("Verified %d citations against the document's reference allowlist", len(resp.CitedURLs)))
	}

	return summary, nil
}

// collectReferenceURLs gathers every audited reference URL in the
// report, deduplicated, preserving document order. This is the strict
// allowlist for the LLM.
func collectReferenceURLs(report model.Report) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, seg := range report.Segments {
		for _, check := range seg.References {
			if !seen[check.URL] {
				seen[check.URL] = true
				urls = append(urls, check.URL)
			}
		}
	}
	return urls
}

// RenderSeparateMarkdown renders the LLM summary as a standalone
// markdown document, clearly separated from the deterministic report
func RenderSeparateMarkdown(summary *model.LLMSummary) string {
	if summary == nil || !summary.Enabled {
		return ""
	}

	var sb strings.Builder

	sb.WriteString("# LLM Summary\n\n")
	sb.WriteString("> **GENERATED CONTENT** - This narrative was produced by an LLM.\n")
	sb.WriteString("> Scores and confidence labels were determined independently and are never affected by it.\n\n")

	sb.WriteString(fmt.Sprintf("- **Provider**: %s\n", summary.Provider))
	sb.WriteString(fmt.Sprintf("- **Model**: %s\n", summary.Model))
	sb.WriteString(fmt.Sprintf("- **Strict References Mode**: %t\n\n", summary.StrictRefs))

	if summary.SummaryMD == "" {
		sb.WriteString("No summary generated.\n")
	} else {
		sb.WriteString(summary.SummaryMD)
		sb.WriteString("\n")
	}

	if len(summary.Warnings) > 0 {
		sb.WriteString("\n## Notes\n\n")
		for _, warning := range summary.Warnings {
			sb.WriteString(fmt.Sprintf("- %s\n", warning))
		}
	}

	return sb.String()
}
