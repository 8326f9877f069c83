package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/provenalabs/mimesis/internal/model"
)

func reportFixture() *model.Report {
	gltr := 0.12
	curv := 0.4
	return &model.Report{
		RunID:     "run-42",
		Source:    "essay.md",
		FetchedAt: time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Segments: []model.SegmentReport{
			{
				Segment: model.Segment{ID: "seg-001", Type: model.SegmentProse, StartLine: 1, EndLine: 24, LengthChars: 2400},
				Signals: model.SignalSet{GLTRTail: &gltr, LengthChars: 2400, Type: model.SegmentProse},
				Score: model.SegmentScore{
					Score:      0.71,
					Confidence: model.ConfidenceHigh,
					Rationale:  []string{"Low GLTR tail mass suggests model-typical token choices"},
				},
				References: []model.RefCheck{
					{URL: "https://example.com/cited", Kind: model.RefKindURL, Resolved: true, StatusCode: 200},
					{URL: "https://doi.org/10.1000/broken", Kind: model.RefKindDOI, StatusCode: 404},
					{URL: "https://blocked.example.com/page", Kind: model.RefKindURL, Skipped: true, Error: "robots.txt disallows"},
				},
			},
			{
				Segment:         model.Segment{ID: "seg-002", Type: model.SegmentCode, StartLine: 26, EndLine: 40, LengthChars: 900},
				Signals:         model.SignalSet{Curvature: &curv, LengthChars: 900, Type: model.SegmentCode},
				Score:           model.SegmentScore{Score: 0.38, Confidence: model.ConfidenceLow, Rationale: []string{"Short segment (<1000 chars)"}},
				CounterEvidence: true,
			},
		},
		DocumentScore: 0.62,
		Stats:         model.ScoreStats{Mean: 0.55, Median: 0.55, StdDev: 0.16, Min: 0.38, Max: 0.71, Scored: 2},
		Weights:       model.DefaultWeights(),
		WeightsNote:   "GLTR (22%), DetectGPT (22%), Watermark (18%), Citations (25%), Code Security (10%), Length penalty (3%)",
	}
}

func TestRenderer_RenderJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	renderer := NewRenderer(true)

	if err := renderer.RenderJSON(reportFixture(), path); err != nil {
		t.Fatalf("RenderJSON failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}

	var got model.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if got.RunID != "run-42" {
		t.Errorf("Expected run ID run-42, got %s", got.RunID)
	}
	if got.DocumentScore != 0.62 {
		t.Errorf("Expected document score 0.62, got %f", got.DocumentScore)
	}
	if len(got.Segments) != 2 {
		t.Errorf("Expected 2 segments, got %d", len(got.Segments))
	}
}

func TestRenderer_RenderMarkdown_Content(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	renderer := NewRenderer(true)

	if err := renderer.RenderMarkdown(reportFixture(), path); err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	md := string(data)

	for _, want := range []string{
		"# Provenance Report: essay.md",
		"**Document Score**: 0.62",
		"**Segments Scored**: 2 of 2",
		"GLTR (22%), DetectGPT (22%), Watermark (18%), Citations (25%), Code Security (10%), Length penalty (3%)",
		"## Score Distribution",
		"### seg-001 (prose, lines 1-24, 2400 chars)",
		"0.71 (High confidence)",
		"| GLTR tail | 0.120 |",
		"Low GLTR tail mass suggests model-typical token choices",
		"✓ https://example.com/cited (HTTP 200)",
		"✗ https://doi.org/10.1000/broken (HTTP 404)",
		"• https://blocked.example.com/page (skipped: robots.txt disallows)",
		"### seg-002 (code, lines 26-40, 900 chars)",
		"**Counter-Evidence**",
		"Short segment (<1000 chars)",
		"not authorship verdicts",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Expected markdown to contain %q", want)
		}
	}
}

func TestRenderer_RenderMarkdown_NoFooter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.md")
	renderer := NewRenderer(false)

	if err := renderer.RenderMarkdown(reportFixture(), path); err != nil {
		t.Fatalf("RenderMarkdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read report: %v", err)
	}
	if strings.Contains(string(data), "Generated by [mimesis]") {
		t.Error("Expected no footer when disabled")
	}
}

func TestRenderer_RenderLLMMarkdown(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.llm.md")
	renderer := NewRenderer(true)

	if err := renderer.RenderLLMMarkdown("# LLM Summary\n\nNarrative.", path); err != nil {
		t.Fatalf("RenderLLMMarkdown failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(data) != "# LLM Summary\n\nNarrative." {
		t.Errorf("Unexpected content: %s", data)
	}
}

func TestSignalRows_OnlyPresentSignals(t *testing.T) {
	tail := 0.25
	cwe := 4.0
	rows := signalRows(model.SignalSet{GLTRTail: &tail, CWEPerKLOC: &cwe})

	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "GLTR tail" || rows[0][1] != "0.250" {
		t.Errorf("Unexpected first row: %v", rows[0])
	}
	if rows[1][0] != "CWE per KLOC" || rows[1][1] != "4.000" {
		t.Errorf("Unexpected second row: %v", rows[1])
	}
}

func TestSignalRows_Empty(t *testing.T) {
	if rows := signalRows(model.SignalSet{LengthChars: 500, Type: model.SegmentProse}); len(rows) != 0 {
		t.Errorf("Expected no rows for empty signal set, got %d", len(rows))
	}
}

func TestRefLine(t *testing.T) {
	tests := []struct {
		name  string
		check model.RefCheck
		want  string
	}{
		{
			name:  "resolved",
			check: model.RefCheck{URL: "https://a.com", Resolved: true, StatusCode: 200},
			want:  "- ✓ https://a.com (HTTP 200)\n",
		},
		{
			name:  "resolved cached",
			check: model.RefCheck{URL: "https://a.com", Resolved: true, StatusCode: 200, Cached: true},
			want:  "- ✓ https://a.com (HTTP 200, cached)\n",
		},
		{
			name:  "broken status",
			check: model.RefCheck{URL: "https://a.com", StatusCode: 404},
			want:  "- ✗ https://a.com (HTTP 404)\n",
		},
		{
			name:  "broken error",
			check: model.RefCheck{URL: "https://a.com", Error: "connection refused"},
			want:  "- ✗ https://a.com (connection refused)\n",
		},
		{
			name:  "skipped",
			check: model.RefCheck{URL: "https://a.com", Skipped: true, Error: "robots.txt disallows"},
			want:  "- • https://a.com (skipped: robots.txt disallows)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := refLine(tt.check); got != tt.want {
				t.Errorf("refLine() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReferenceCounts_IgnoresSkipped(t *testing.T) {
	resolved, broken := referenceCounts(reportFixture())
	if resolved != 1 {
		t.Errorf("Expected 1 resolved, got %d", resolved)
	}
	if broken != 1 {
		t.Errorf("Expected 1 broken, got %d", broken)
	}
}

func TestCounterEvidenceCount(t *testing.T) {
	if n := counterEvidenceCount(reportFixture()); n != 1 {
		t.Errorf("Expected 1 counter-evidence segment, got %d", n)
	}
}
