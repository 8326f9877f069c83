package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provenalabs/mimesis/internal/score"
)

// weightsCmd represents the weights command
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Show the effective signal weights",
	Long: `Weights prints the configured weight for each signal next to the
normalized share the engine actually uses.

Weights are scale-invariant: only their ratios matter, and the engine
renormalizes whatever the configuration provides. Override individual
weights in the config file or with MIMESIS_WEIGHTS_* variables.`,
	RunE: runWeights,
}

func init() {
	rootCmd.AddCommand(weightsCmd)
}

func runWeights(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	norm, err := score.Normalize(cfg.Weights)
	if err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}
	note, err := score.ExplainWeights(norm)
	if err != nil {
		return fmt.Errorf("invalid weights: %w", err)
	}

	rows := []struct {
		name       string
		configured float64
		normalized float64
	}{
		{"gltr", cfg.Weights.GLTR, norm.GLTR},
		{"detectgpt", cfg.Weights.DetectGPT, norm.DetectGPT},
		{"watermark", cfg.Weights.Watermark, norm.Watermark},
		{"citations", cfg.Weights.Citations, norm.Citations},
		{"cwe", cfg.Weights.CWE, norm.CWE},
		{"short_penalty", cfg.Weights.ShortPenalty, norm.ShortPenalty},
	}

	fmt.Printf("%-14s %11s %11s\n", "SIGNAL", "CONFIGURED", "NORMALIZED")
	for _, row := range rows {
		fmt.Printf("%-14s %11.3f %11.3f\n", row.name, row.configured, row.normalized)
	}
	fmt.Println()
	fmt.Println(note)

	return nil
}
