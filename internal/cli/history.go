package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provenalabs/mimesis/internal/model"
	"github.com/provenalabs/mimesis/internal/store"
)

var (
	historyLimit int
	historyDB    string
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or show one run's segment scores",
	Long: `History reads the local run database written by analyses run with
--save (or with store.enabled set in the config). Without arguments it
lists recent runs, newest first. With a run id it shows that run's
per-segment scores.

Example:
  mimesis history
  mimesis history --limit 50
  mimesis history 6f1c9c6e-8d4b-4f6e-9c1a-2b7d8e3f4a5b`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to list")
	historyCmd.Flags().StringVar(&historyDB, "db", "", "history database path (default: ~/.mimesis/history.db)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	dbPath := storePath(cfg)
	if historyDB != "" {
		dbPath = historyDB
	}
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("no run history at %s (analyze with --save to record runs)", dbPath)
	}

	if len(args) == 1 {
		return showRun(dbPath, args[0])
	}
	return listRuns(dbPath)
}

func listRuns(dbPath string) error {
	runs, err := store.Recent(dbPath, historyLimit)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs")
		return nil
	}

	fmt.Printf("%-36s %-19s %6s %9s  %s\n", "RUN", "ANALYZED", "SCORE", "SEGMENTS", "SOURCE")
	for _, run := range runs {
		fmt.Printf("%-36s %-19s %6.2f %5d/%-3d  %s\n",
			run.RunID,
			run.FetchedAt.Local().Format("2006-01-02 15:04:05"),
			run.DocumentScore,
			run.Scored, run.Segments,
			run.Source)
	}
	return nil
}

func showRun(dbPath, runID string) error {
	segs, err := store.RunSegments(dbPath, runID)
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}
	if len(segs) == 0 {
		return fmt.Errorf("no segments recorded for run %s", runID)
	}

	fmt.Printf("%-12s %-7s %7s %6s %-7s %s\n", "SEGMENT", "TYPE", "CHARS", "SCORE", "CONF", "COUNTER-EVIDENCE")
	for _, seg := range segs {
		counter := ""
		if seg.CounterEvidence {
			counter = "yes"
		}
		fmt.Printf("%-12s %-7s %7d %6.2f %-7s %s\n",
			seg.SegmentID, seg.Type, seg.LengthChars, seg.Score, seg.Confidence, counter)
	}
	return nil
}

// storePath resolves the history database location: explicit config
// path first, then ~/.mimesis/history.db
func storePath(cfg model.Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "mimesis-history.db"
	}
	return filepath.Join(home, ".mimesis", "history.db")
}
