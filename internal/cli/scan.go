package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/pipeline"
	"github.com/provenalabs/mimesis/internal/store"
)

var (
	outJSON     string
	outMD       string
	timeout     time.Duration
	userAgent   string
	maxBytes    int64
	noCache     bool
	noFooter    bool
	insecureTLS bool
	noCitations bool
	saveRun     bool
	llmEnabled  bool
	llmProvider string
	llmModel    string
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <path|url>",
	Short: "Score a single document or URL and generate a provenance report",
	Long: `Scan analyzes a single document (a local file or a URL) to:
- Split it into prose and code segments
- Merge detector signals from a sidecar file, when one exists
- Audit cited references for liveness and validity
- Combine the signals into one weighted, explainable score per segment
- Flag counter-evidence that argues against generation

Example:
  mimesis scan paper.md
  mimesis scan https://example.com/post --json report.json --md report.md
  mimesis scan main.go --no-citations
  mimesis scan essay.md --llm --llm-provider ollama --llm-model llama3.1`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Output flags
	scanCmd.Flags().StringVar(&outJSON, "json", "report.json", "output JSON path")
	scanCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")

	// HTTP flags
	scanCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall analysis timeout (increase for documents with many references)")
	scanCmd.Flags().StringVar(&userAgent, "ua", "Mimesis/0.2 (+https://github.com/provenalabs/mimesis)", "HTTP User-Agent")
	scanCmd.Flags().Int64Var(&maxBytes, "max-bytes", 4_000_000, "max response bytes to read")
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetches)")
	scanCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	scanCmd.Flags().BoolVar(&insecureTLS, "insecure", false, "skip TLS certificate verification (use for self-signed certs)")

	// Analysis flags
	scanCmd.Flags().BoolVar(&noCitations, "no-citations", false, "skip the reference audit")
	scanCmd.Flags().BoolVar(&saveRun, "save", false, "record this run in the local history database")

	// LLM flags
	scanCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	scanCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	scanCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runScan(cmd *cobra.Command, args []string) error {
	source := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyScanFlags(cmd, &cfg)
	if err := llmFromEnv(&cfg); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.Timeout)
	defer cancel()

	if verbose {
		fmt.Fprintf(os.Stderr, "Analyzing: %s\n", source)
		fmt.Fprintf(os.Stderr, "Timeout: %v\n", cfg.HTTP.Timeout)
		fmt.Fprintf(os.Stderr, "Cache: %v\n", cfg.Cache.Enabled)
		fmt.Fprintf(os.Stderr, "Citations: %v\n", cfg.Citations.Enabled)
		fmt.Fprintln(os.Stderr)
	}

	// Create pipeline
	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "⚙️  Reading document...\n")
	}

	report, err := p.AnalyzeSource(ctx, source)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "✓ Scored %d of %d segments\n", report.Stats.Scored, len(report.Segments))
		if n := auditedReferences(report); n > 0 {
			fmt.Fprintf(os.Stderr, "✓ Audited %d references\n", n)
		}
		fmt.Fprintf(os.Stderr, "✓ Document score: %.2f\n", report.DocumentScore)
		if report.LLM != nil && report.LLM.Enabled {
			fmt.Fprintf(os.Stderr, "✓ Generated LLM summary using %s/%s\n", report.LLM.Provider, report.LLM.Model)
		}
		fmt.Fprintln(os.Stderr)
	}

	// History is best-effort: a broken database never fails a scan
	if cfg.Store.Enabled || saveRun {
		if err := store.Save(storePath(cfg), report); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: saving run history: %v\n", err)
		} else if verbose {
			fmt.Fprintf(os.Stderr, "✓ Recorded run %s in history\n", report.RunID)
		}
	}

	// Render outputs
	if err := p.RenderReport(report, outJSON, outMD, verbose); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}

	return nil
}

// applyScanFlags overlays explicitly set flags onto cfg. Flags the user
// did not touch keep whatever the config file and environment decided.
func applyScanFlags(cmd *cobra.Command, cfg *model.Config) {
	if cmd.Flags().Changed("timeout") {
		cfg.HTTP.Timeout = timeout
	}
	if cmd.Flags().Changed("ua") {
		cfg.HTTP.UserAgent = userAgent
	}
	if cmd.Flags().Changed("max-bytes") {
		cfg.HTTP.MaxBodyBytes = maxBytes
	}
	if insecureTLS {
		cfg.HTTP.InsecureTLS = true
	}
	if noCache {
		cfg.Cache.Enabled = false
	}
	if noCitations {
		cfg.Citations.Enabled = false
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}
	cfg.Output.Verbose = verbose

	if llmEnabled {
		cfg.LLM.Provider = llmProvider
		if cmd.Flags().Changed("llm-model") {
			cfg.LLM.Model = llmModel
		}
	}
}

// llmFromEnv fills provider credentials from the environment when a
// provider is configured. Does nothing when the LLM stays disabled.
func llmFromEnv(cfg *model.Config) error {
	if cfg.LLM.Provider == "" {
		return nil
	}
	cfg.LLM.StrictRefs = true // Always enforced

	switch cfg.LLM.Provider {
	case "openai":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		if cfg.LLM.APIKey == "" {
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if cfg.LLM.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if cfg.LLM.BaseURL == "" {
			cfg.LLM.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
	default:
		return fmt.Errorf("unknown LLM provider: %s", cfg.LLM.Provider)
	}
	return nil
}

// auditedReferences counts references the audit actually checked
func auditedReferences(r *model.Report) int {
	n := 0
	for _, seg := range r.Segments {
		n += len(seg.References)
	}
	return n
}
