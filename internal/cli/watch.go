package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/provenalabs/mimesis/internal/llm"
	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/pipeline"
	"github.com/provenalabs/mimesis/internal/signals"
	"github.com/provenalabs/mimesis/internal/store"
)

var (
	watchDebounce time.Duration
	watchExts     []string
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Watch a directory and re-score documents as they change",
	Long: `Watch monitors a directory tree and re-analyzes documents on change:
- Score new and modified documents automatically
- Debounce rapid saves so each document is scored once per burst
- Re-score a document when its sidecar signal file is rewritten
- Write reports into the output directory

Stop with Ctrl-C.

Example:
  mimesis watch ./drafts
  mimesis watch ./drafts --output-dir ./reports --debounce 5s
  mimesis watch ./drafts --ext .md --ext .txt`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&outputDir, "output-dir", "./mimesis-reports", "output directory for reports")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "wait this long after the last write before scoring")
	watchCmd.Flags().StringSliceVar(&watchExts, "ext", []string{".md", ".markdown", ".txt", ".html", ".htm"}, "document extensions to score")
	watchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable cache (force fresh fetches)")
	watchCmd.Flags().BoolVar(&noCitations, "no-citations", false, "skip the reference audit")
	watchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
	watchCmd.Flags().BoolVar(&saveRun, "save", false, "record runs in the local history database")

	// LLM flags
	watchCmd.Flags().BoolVar(&llmEnabled, "llm", false, "enable LLM summary generation")
	watchCmd.Flags().StringVar(&llmProvider, "llm-provider", "openai", "LLM provider (openai, anthropic, ollama)")
	watchCmd.Flags().StringVar(&llmModel, "llm-model", "gpt-4o-mini", "LLM model name")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("watch path: %w", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("watch path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch path is not a directory: %s", dir)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyWatchFlags(cmd, &cfg)
	if err := llmFromEnv(&cfg); err != nil {
		return err
	}

	absOut, err := filepath.Abs(outputDir)
	if err != nil {
		return fmt.Errorf("output directory: %w", err)
	}
	if err := os.MkdirAll(absOut, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := addWatchTree(watcher, dir, absOut); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (debounce %v)\n", dir, watchDebounce)
	fmt.Fprintf(os.Stderr, "Reports: %s\n", absOut)
	fmt.Fprintf(os.Stderr, "\n")

	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
	)
	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(os.Stderr, "Stopping watch")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// New subdirectories join the watch
			if event.Op&fsnotify.Create != 0 {
				if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
					_ = addWatchTree(watcher, event.Name, absOut)
					continue
				}
			}

			// A rewritten sidecar rescores its document
			docPath := event.Name
			if strings.HasSuffix(docPath, signals.SidecarSuffix) {
				docPath = strings.TrimSuffix(docPath, signals.SidecarSuffix)
			}
			if !watchable(docPath, absOut) {
				continue
			}

			mu.Lock()
			if t, exists := timers[docPath]; exists {
				t.Stop()
			}
			path := docPath
			timers[path] = time.AfterFunc(watchDebounce, func() {
				mu.Lock()
				delete(timers, path)
				mu.Unlock()
				analyzeChanged(ctx, p, cfg, dir, path)
			})
			mu.Unlock()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "Watch error: %v\n", err)
		}
	}
}

// addWatchTree registers dir and its subdirectories, skipping hidden
// directories and the report output tree
func addWatchTree(watcher *fsnotify.Watcher, dir, absOut string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != dir && strings.HasPrefix(base, ".") {
			return filepath.SkipDir
		}
		if insideDir(path, absOut) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

// watchable filters events down to scoreable documents. Reports written
// into the output tree never feed back into the watch.
func watchable(path, absOut string) bool {
	if insideDir(path, absOut) {
		return false
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	for _, allowed := range watchExts {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func insideDir(path, dir string) bool {
	return path == dir || strings.HasPrefix(path, dir+string(filepath.Separator))
}

// analyzeChanged scores one document and writes its reports. Errors are
// reported and swallowed: one bad document must not stop the watch.
func analyzeChanged(ctx context.Context, p *pipeline.Pipeline, cfg model.Config, dir, path string) {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, cfg.HTTP.Timeout)
	defer cancel()

	report, err := p.AnalyzeFile(ctx, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		return
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = filepath.Base(path)
	}

	renderer := pipeline.NewRenderer(cfg.Output.IncludeFooter)
	slug := sanitizeFilename(rel)
	if err := renderer.RenderJSON(report, filepath.Join(outputDir, slug+".json")); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		return
	}
	if err := renderer.RenderMarkdown(report, filepath.Join(outputDir, slug+".md")); err != nil {
		fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		return
	}
	if report.LLM != nil && report.LLM.Enabled {
		llmPath := filepath.Join(outputDir, slug+".llm.md")
		if err := renderer.RenderLLMMarkdown(llm.RenderSeparateMarkdown(report.LLM), llmPath); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
		}
	}
	if cfg.Store.Enabled || saveRun {
		if err := store.Save(storePath(cfg), report); err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: failed to save history: %v\n", path, err)
		}
	}

	fmt.Fprintf(os.Stderr, "✓ %s (score: %.2f, %d segments, %v)\n",
		path, report.DocumentScore, len(report.Segments), time.Since(start).Round(time.Millisecond))
}

// applyWatchFlags overlays explicitly set watch flags onto cfg
func applyWatchFlags(cmd *cobra.Command, cfg *model.Config) {
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
