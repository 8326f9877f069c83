package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/provenalabs/mimesis/internal/model"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mimesis",
	Short: "Mimesis - Explainable provenance scoring for text and code (non-normative)",
	Long: `Mimesis is an open-source diagnostic tool for scoring how strongly a
document resembles machine-generated writing.

It does not determine who or what wrote a document.

Mimesis combines statistical signals (GLTR token ranks, DetectGPT
curvature, watermark tests), citation audits, and code-security rates
into one weighted score per segment, and explains every number it
reports.

Mimesis measures resemblance, not authorship.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number and build information for Mimesis.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("mimesis v0.2.0")
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.mimesis/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		// Search for config in home directory
		viper.AddConfigPath(home + "/.mimesis")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// Read in environment variables that match MIMESIS_*
	// Nested keys use underscores: MIMESIS_WEIGHTS_GLTR, MIMESIS_LLM_MODEL.
	viper.SetEnvPrefix("MIMESIS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setWeightDefaults()

	// If a config file is found, read it in
	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// setWeightDefaults registers the default weight keys with viper so that
// environment overrides for individual weights are visible to Unmarshal
// even when no config file sets them.
func setWeightDefaults() {
	w := model.DefaultConfig().Weights
	viper.SetDefault("weights.gltr", w.GLTR)
	viper.SetDefault("weights.detectgpt", w.DetectGPT)
	viper.SetDefault("weights.watermark", w.Watermark)
	viper.SetDefault("weights.citations", w.Citations)
	viper.SetDefault("weights.cwe", w.CWE)
	viper.SetDefault("weights.short_penalty", w.ShortPenalty)
}

// loadConfig builds the effective configuration: defaults, overlaid by the
// config file and MIMESIS_* environment variables. Flag overrides are
// applied by individual commands on top of the returned value.
func loadConfig() (model.Config, error) {
	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse configuration: %w", err)
	}
	return cfg, nil
}
