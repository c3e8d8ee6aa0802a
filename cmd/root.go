package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecomlens/ecomlens/internal/config"
	"github.com/ecomlens/ecomlens/internal/logger"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ecomlens",
	Short: "Behavioral friction diagnosis for e-commerce session data",
	Long: `ecomlens reads raw e-commerce session events, detects behavioral
friction patterns like checkout hesitation and decision paralysis,
explains what drives them, and estimates the revenue at stake so you
know which intervention to ship first.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := "info"
		if verbose {
			level = "debug"
		}
		logger.Init(level, "console")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `ecomlens init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if !verbose && cfg.Log.Level != "" {
		logger.Init(cfg.Log.Level, string(cfg.Log.Format))
	}
	return cfg, nil
}
