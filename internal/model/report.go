package model

import "time"

// Report is the complete provenance analysis for one document
type Report struct {
	RunID     string    `json:"run_id"`     // Unique identifier for this analysis run
	Source    string    `json:"source"`     // File path or URL that was analyzed
	FetchedAt time.Time `json:"fetched_at"` // When the document was read
	FetchMeta FetchMeta `json:"fetch_meta"` // HTTP metadata for remote sources

	Segments []SegmentReport `json:"segments"` // Per-segment signals and scores

	DocumentScore float64    `json:"document_score"` // Length-weighted composite in [0, 1]
	Stats         ScoreStats `json:"stats"`          // Distribution of segment scores
	Weights       Weights    `json:"weights"`        // Normalized weights the engine used
	WeightsNote   string     `json:"weights_note"`   // Human-readable weight breakdown

	LLM *LLMSummary `json:"llm,omitempty"` // Optional LLM narrative (never affects scores)
}

// SegmentReport pairs one segment with everything derived from it
type SegmentReport struct {
	Segment         Segment      `json:"segment"`
	Signals         SignalSet    `json:"signals"`
	Score           SegmentScore `json:"score"`
	CounterEvidence bool         `json:"counter_evidence"`     // Curvature argued against generation
	References      []RefCheck   `json:"references,omitempty"` // Audited citations, when auditing ran
}

// SegmentScore is the engine's verdict for one segment
type SegmentScore struct {
	Score      float64    `json:"score"`      // Composite suspicion in [0, 1]
	Confidence Confidence `json:"confidence"` // How much corroboration backed the score
	Rationale  []string   `json:"rationale"`  // Human-readable fragments, one per material signal
}

// Confidence labels how much corroborating evidence backed a score
type Confidence string

const (
	ConfidenceLow    Confidence = "Low"
	ConfidenceMedium Confidence = "Medium"
	ConfidenceHigh   Confidence = "High"
)

// ScoreStats summarizes the distribution of segment scores
type ScoreStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Scored int     `json:"scored"` // Segments that produced a score
}

// FetchMeta contains HTTP metadata from fetching a remote source
type FetchMeta struct {
	StatusCode   int    `json:"status_code,omitempty"`
	ContentType  string `json:"content_type,omitempty"`
	LastModified string `json:"last_modified,omitempty"`
	ETag         string `json:"etag,omitempty"`
}

// LLMSummary contains the optional LLM-generated narrative.
// It never affects scoring and renders separately from the report body.
type LLMSummary struct {
	Enabled    bool     `json:"enabled"`
	Provider   string   `json:"provider,omitempty"`   // openai, anthropic, ollama
	Model      string   `json:"model,omitempty"`      // Model name
	StrictRefs bool     `json:"strict_refs"`          // Whether reference enforcement was enabled
	SummaryMD  string   `json:"summary_md,omitempty"` // Markdown narrative
	Warnings   []string `json:"warnings,omitempty"`   // Issues such as fabricated references
}
