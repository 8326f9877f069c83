package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/provenalabs/mimesis/internal/model"
)

// Renderer writes reports as JSON and Markdown
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a Renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the full report as indented JSON
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// RenderMarkdown writes the report as a human-readable Markdown document
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Provenance Report: %s\n\n", report.Source)
	fmt.Fprintf(&b, "- **Run ID**: %s\n", report.RunID)
	fmt.Fprintf(&b, "- **Analyzed**: %s\n", report.FetchedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- **Document Score**: %.2f (0 = human-typical, 1 = machine-typical)\n", report.DocumentScore)
	fmt.Fprintf(&b, "- **Segments Scored**: %d of %d\n\n", report.Stats.Scored, len(report.Segments))

	b.WriteString("## Weights\n\n")
	b.WriteString(report.WeightsNote)
	b.WriteString("\n\n")

	if report.Stats.Scored > 0 {
		b.WriteString("## Score Distribution\n\n")
		b.WriteString("| Mean | Median | Std Dev | Min | Max |\n")
		b.WriteString("|------|--------|---------|-----|-----|\n")
		fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f | %.2f |\n\n",
			report.Stats.Mean, report.Stats.Median, report.Stats.StdDev,
			report.Stats.Min, report.Stats.Max)
	}

	b.WriteString("## Segments\n\n")
	for _, sr := range report.Segments {
		r.writeSegment(&b, sr)
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("*Generated by [mimesis](https://github.com/provenalabs/mimesis). ")
		b.WriteString("Scores describe signal strength under the configured weights; they are not authorship verdicts.*\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// writeSegment renders one segment section
func (r *Renderer) writeSegment(b *strings.Builder, sr model.SegmentReport) {
	seg := sr.Segment
	fmt.Fprintf(b, "### %s (%s, lines %d-%d, %d chars)\n\n", seg.ID, seg.Type, seg.StartLine, seg.EndLine, seg.LengthChars)
	fmt.Fprintf(b, "- **Score**: %.2f (%s confidence)\n", sr.Score.Score, sr.Score.Confidence)
	if sr.CounterEvidence {
		b.WriteString("- **Counter-Evidence**: non-negative curvature argues against generation\n")
	}

	if rows := signalRows(sr.Signals); len(rows) > 0 {
		b.WriteString("\n| Signal | Value |\n|--------|-------|\n")
		for _, row := range rows {
			fmt.Fprintf(b, "| %s | %s |\n", row[0], row[1])
		}
	}

	if len(sr.Score.Rationale) > 0 {
		b.WriteString("\n**Rationale**:\n\n")
		for _, line := range sr.Score.Rationale {
			fmt.Fprintf(b, "- %s\n", line)
		}
	}

	if len(sr.References) > 0 {
		b.WriteString("\n**References**:\n\n")
		for _, check := range sr.References {
			b.WriteString(refLine(check))
		}
	}

	b.WriteString("\n")
}

// signalRows lists the present signals in display order
func signalRows(sig model.SignalSet) [][2]string {
	var rows [][2]string
	add := func(label string, v *float64) {
		if v != nil {
			rows = append(rows, [2]string{label, fmt.Sprintf("%.3f", *v)})
		}
	}
	add("GLTR tail", sig.GLTRTail)
	add("GLTR variance", sig.GLTRVar)
	add("DetectGPT curvature", sig.Curvature)
	add("Watermark p-value", sig.WatermarkP)
	add("Reference validity", sig.RefValidityRate)
	add("CWE per KLOC", sig.CWEPerKLOC)
	return rows
}

// refLine renders one audited reference as a list item
func refLine(check model.RefCheck) string {
	switch {
	case check.Skipped:
		return fmt.Sprintf("- • %s (skipped: %s)\n", check.URL, check.Error)
	case check.Resolved:
		detail := fmt.Sprintf("HTTP %d", check.StatusCode)
		if check.Cached {
			detail += ", cached"
		}
		return fmt.Sprintf("- ✓ %s (%s)\n", check.URL, detail)
	case check.Error != "":
		return fmt.Sprintf("- ✗ %s (%s)\n", check.URL, check.Error)
	default:
		return fmt.Sprintf("- ✗ %s (HTTP %d)\n", check.URL, check.StatusCode)
	}
}

// RenderLLMMarkdown writes the pre-rendered LLM narrative to its own file
func (r *Renderer) RenderLLMMarkdown(markdown, path string) error {
	if err := os.WriteFile(path, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write LLM summary: %w", err)
	}
	return nil
}

// RenderSummary prints a compact result block to stdout
func (r *Renderer) RenderSummary(report *model.Report) {
	fmt.Println()
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println("  Provenance Analysis")
	fmt.Println("═══════════════════════════════════════════════════════════")
	fmt.Println()
	fmt.Printf("  Source:           %s\n", report.Source)
	fmt.Printf("  Document score:   %.2f  (0 = human-typical, 1 = machine-typical)\n", report.DocumentScore)
	fmt.Printf("  Segments scored:  %d of %d\n", report.Stats.Scored, len(report.Segments))
	if n := counterEvidenceCount(report); n > 0 {
		fmt.Printf("  Counter-evidence: %d segment(s)\n", n)
	}
	if resolved, broken := referenceCounts(report); resolved+broken > 0 {
		fmt.Printf("  References:       %d resolved, %d broken\n", resolved, broken)
	}
	fmt.Println()
}

func counterEvidenceCount(report *model.Report) int {
	n := 0
	for _, sr := range report.Segments {
		if sr.CounterEvidence {
			n++
		}
	}
	return n
}

// referenceCounts tallies audited references, ignoring skipped checks
func referenceCounts(report *model.Report) (resolved, broken int) {
	for _, sr := range report.Segments {
		for _, check := range sr.References {
			if check.Skipped {
				continue
			}
			if check.Resolved {
				resolved++
			} else {
				broken++
			}
		}
	}
	return resolved, broken
}
