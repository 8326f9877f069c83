package pipeline

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/provenalabs/mimesis/internal/cache"
	"github.com/provenalabs/mimesis/internal/extract"
	"github.com/provenalabs/mimesis/internal/llm"
	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/score"
	"github.com/provenalabs/mimesis/internal/segment"
	"github.com/provenalabs/mimesis/internal/signals"
	"github.com/provenalabs/mimesis/internal/validate"
)

// Pipeline orchestrates a complete document analysis
type Pipeline struct {
	fetcher    *Fetcher
	registry   *extract.Registry
	segmenter  *segment.Segmenter
	auditor    *validate.Auditor
	engine     *score.Engine
	renderer   *Renderer
	summarizer *llm.Summarizer // Optional LLM summarizer (nil if disabled)
	config     model.Config
}

// NewPipeline builds a pipeline from the configuration. The error case
// is an unusable weight vector.
func NewPipeline(cfg model.Config) (*Pipeline, error) {
	engine, err := score.NewEngineWithScale(cfg.Weights, cfg.Engine.CWEDensityScale)
	if err != nil {
		return nil, fmt.Errorf("configure engine: %w", err)
	}

	store := buildCache(cfg.Cache)

	// Create LLM summarizer if configured
	var summarizer *llm.Summarizer
	if cfg.LLM.Provider != "" {
		s, err := llm.NewSummarizer(llm.ConfigFromModel(cfg))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			summarizer = s
		}
	}

	return &Pipeline{
		fetcher:    NewFetcher(cfg, store),
		registry:   extract.NewRegistry(),
		segmenter:  segment.NewSegmenter(cfg.Engine.MinSegmentChars),
		auditor:    validate.NewAuditor(cfg, store),
		engine:     engine,
		renderer:   NewRenderer(cfg.Output.IncludeFooter),
		summarizer: summarizer,
		config:     cfg,
	}, nil
}

// buildCache constructs the shared fetch/audit cache from configuration
func buildCache(cfg model.CacheConfig) cache.Cache {
	if !cfg.Enabled {
		return cache.Noop{}
	}
	return cache.NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// AnalyzeSource analyzes a local file path or an http(s) URL, whichever
// the source looks like. This is the entry point batch workers use.
func (p *Pipeline) AnalyzeSource(ctx context.Context, source string) (*model.Report, error) {
	if isRemote(source) {
		return p.AnalyzeURL(ctx, source)
	}
	return p.AnalyzeFile(ctx, source)
}

func isRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// AnalyzeFile analyzes a local document, merging detector signals from
// its sidecar file when one exists
func (p *Pipeline) AnalyzeFile(ctx context.Context, path string) (*model.Report, error) {
	fetched, err := p.fetcher.ReadLocal(path)
	if err != nil {
		return nil, err
	}

	sidecar, err := signals.LoadFor(path)
	if err != nil {
		// A present but unreadable sidecar is a broken detector handoff,
		// not an absent signal
		return nil, err
	}

	return p.analyze(ctx, path, fetched, sidecar)
}

// AnalyzeURL fetches and analyzes a remote document. Remote sources
// carry no detector sidecar; their signals come from citation auditing
// alone.
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Report, error) {
	fetched, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch document: %w", err)
	}

	return p.analyze(ctx, rawURL, fetched, signals.Sidecar{})
}

// analyze runs the shared stages: normalize, segment, score, aggregate,
// and optionally summarize
func (p *Pipeline) analyze(ctx context.Context, source string, fetched *FetchResult, sidecar signals.Sidecar) (*model.Report, error) {
	// 1. Normalize to plain text
	reader := p.registry.Find(source, fetched.Meta.ContentType)
	text, err := reader.Text(fetched.Content, fetched.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	// 2. Split into typed segments
	segs := p.segmenter.Split(text)
	if len(segs) == 0 {
		return nil, fmt.Errorf("document has no analyzable content")
	}

	// 3. Signals and scores per segment, fanned out
	segReports := p.scoreSegments(ctx, segs, sidecar)

	// 4. Aggregate to the document level
	scores := make(map[string]model.SegmentScore, len(segReports))
	for _, sr := range segReports {
		scores[sr.Segment.ID] = sr.Score
	}
	refs := make([]model.SegmentRef, 0, len(segs))
	for _, seg := range segs {
		refs = append(refs, seg.Ref())
	}

	report := &model.Report{
		RunID:         uuid.NewString(),
		Source:        source,
		FetchedAt:     time.Now().UTC(),
		FetchMeta:     fetched.Meta,
		Segments:      segReports,
		DocumentScore: score.Overall(scores, refs),
		Stats:         score.Distribution(scores),
		Weights:       p.engine.Weights(),
	}
	if note, err := score.ExplainWeights(p.engine.Weights()); err == nil {
		report.WeightsNote = note
	}

	// 5. Generate LLM summary if enabled (AFTER scoring, never affects scores)
	if p.summarizer != nil && p.summarizer.IsEnabled() {
		summary, err := p.summarizer.GenerateSummary(ctx, *report)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: LLM summary generation failed: %v\n", err)
		} else if summary != nil {
			report.LLM = summary
		}
	}

	return report, nil
}

// scoreSegments produces one SegmentReport per segment, preserving
// document order while bounding parallelism
func (p *Pipeline) scoreSegments(ctx context.Context, segs []model.Segment, sidecar signals.Sidecar) []model.SegmentReport {
	workers := p.config.Concurrency.Segments
	if workers < 1 {
		workers = 1
	}

	results := make([]model.SegmentReport, len(segs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, seg := range segs {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, seg model.Segment) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = p.scoreSegment(ctx, seg, sidecar)
		}(i, seg)
	}
	wg.Wait()

	return results
}

// scoreSegment assembles the signal set for one segment and scores it.
// Citation auditing only runs for non-code segments: the validity-rate
// signal does not apply to code, and auditing is the expensive step.
func (p *Pipeline) scoreSegment(ctx context.Context, seg model.Segment, sidecar signals.Sidecar) model.SegmentReport {
	sig := sidecar.For(seg)

	var checks []model.RefCheck
	if p.config.Citations.Enabled && !seg.Type.IsCode() {
		refs := extract.FindReferences(seg)
		if limit := p.config.Citations.MaxPerSegment; limit > 0 && len(refs) > limit {
			refs = refs[:limit]
		}
		if len(refs) > 0 {
			checks = p.auditor.Audit(ctx, refs)
			sig.RefValidityRate = validate.ValidityRate(checks)
		}
	}

	return model.SegmentReport{
		Segment:         seg,
		Signals:         sig,
		Score:           p.engine.ScoreSegment(sig),
		CounterEvidence: score.HasCounterEvidence(sig.Curvature),
		References:      checks,
	}
}

// RenderReport writes the report to the requested outputs and prints a
// summary to stdout
func (p *Pipeline) RenderReport(report *model.Report, jsonPath, mdPath string, verbose bool) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	// LLM narrative goes to its own file, never into the report body
	if report.LLM != nil && report.LLM.Enabled && mdPath != "" {
		llmPath := strings.TrimSuffix(mdPath, ".md") + ".llm.md"
		if err := p.renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to write LLM summary: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote LLM summary: %s\n", llmPath)
		}
	}

	p.renderer.RenderSummary(report)

	return nil
}
