package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecomlens/ecomlens/internal/alerts"
	"github.com/ecomlens/ecomlens/internal/config"
	"github.com/ecomlens/ecomlens/internal/db"
	"github.com/ecomlens/ecomlens/internal/diagnose"
	"github.com/ecomlens/ecomlens/internal/ingest"
	"github.com/ecomlens/ecomlens/internal/logger"
	"github.com/ecomlens/ecomlens/internal/patterns"
	"github.com/ecomlens/ecomlens/internal/progress"
	"github.com/ecomlens/ecomlens/internal/report"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [files...]",
	Short: "Diagnose friction patterns in a batch of session events",
	Long: `Loads session event files (JSON, NDJSON, or CSV), extracts behavioral
features per session, evaluates every registered friction pattern, and
stores the resulting diagnoses. Files given as arguments override the
configured input patterns.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().Int("concurrency", 0, "max parallel session extractions (overrides config)")
	analyzeCmd.Flags().String("report", "", "write a markdown report to this path")
	analyzeCmd.Flags().Bool("no-save", false, "skip persisting the run to the database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	start := time.Now()
	ctx := context.Background()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	inputs := cfg.Inputs
	if len(args) > 0 {
		inputs = args
	}

	batch, err := ingest.Load(inputs)
	if err != nil {
		return err
	}
	logger.Info().
		Int("files", len(batch.Files)).
		Int("events", len(batch.Events)).
		Int("dropped", batch.Dropped).
		Msg("loaded event batch")

	registry, err := loadPatterns(cfg)
	if err != nil {
		return err
	}

	noSave, _ := cmd.Flags().GetBool("no-save")

	var (
		database *db.DB
		store    *diagnose.Store
		emitter  *alerts.Emitter
	)
	if !noSave {
		database, err = db.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()
		store = diagnose.NewStore(database)
		emitter = alerts.NewEmitter(alerts.NewStore(database), cfg.AlertWebhookURL)
	}

	reporter := progress.NewReporter()
	reporter.Start(0)

	configErrors := map[string]error{}
	opts := diagnose.Options{
		Concurrency:    cfg.Concurrency,
		Logger:         logger.L(),
		AOV:            cfg.AOV,
		ConversionRate: cfg.ConversionRate,
		OnProgress: func(done, total int) {
			if done == 1 {
				reporter.Start(total)
			}
			reporter.Update(done, "")
		},
		OnConfigError: func(patternID string, err error) {
			configErrors[patternID] = err
		},
	}

	orch := diagnose.NewOrchestrator(registry, opts)
	result, err := orch.Run(ctx, batch.Events, sourceLabel(inputs))
	reporter.Finish()
	if err != nil {
		return err
	}
	result.DroppedEvents = batch.Dropped

	if store != nil {
		if err := store.SaveResult(ctx, result); err != nil {
			return fmt.Errorf("saving run: %w", err)
		}
		for _, patternID := range result.SkippedPatterns {
			cause := configErrors[patternID]
			if cause == nil {
				cause = fmt.Errorf("pattern evaluation failed")
			}
			_ = emitter.PatternConfigError(ctx, result.RunID, patternID, cause)
		}
		if err := emitter.EmitForRun(ctx, result); err != nil {
			logger.Warn().Err(err).Msg("emitting alerts")
		}
	}

	if reportPath, _ := cmd.Flags().GetString("report"); reportPath != "" {
		if err := os.WriteFile(reportPath, []byte(report.Markdown(result)), 0644); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
		logger.Info().Str("path", reportPath).Msg("report written")
	}

	printSummary(result, configErrors, time.Since(start))
	return nil
}

// loadPatterns merges the builtin pattern library with any definitions
// in the configured patterns directory. A missing directory is fine;
// a broken definition file is not.
func loadPatterns(cfg *config.Config) (*patterns.Registry, error) {
	registry, err := patterns.BuiltinRegistry()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.PatternsDir); os.IsNotExist(err) {
		return registry, nil
	}
	defs, err := patterns.LoadDir(cfg.PatternsDir)
	if err != nil {
		return nil, fmt.Errorf("loading patterns from %s: %w", cfg.PatternsDir, err)
	}
	for _, d := range defs {
		if err := registry.Add(d); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func sourceLabel(inputs []string) string {
	if len(inputs) == 1 {
		return inputs[0]
	}
	return fmt.Sprintf("%d input patterns", len(inputs))
}

func printSummary(result *diagnose.RunResult, configErrors map[string]error, elapsed time.Duration) {
	fmt.Printf("\nAnalyzed %d sessions (%d events) in %s\n",
		result.TotalSessions, result.TotalEvents, elapsed.Round(time.Millisecond))

	if len(result.Diagnoses) == 0 {
		fmt.Println("No friction patterns detected.")
	}
	for _, d := range result.Diagnoses {
		fmt.Printf("  [%s] %s: %s confidence (score %.1f), revenue at risk %.2f\n",
			d.Severity, d.Label, d.Tier, d.Score, d.RevenueAtRisk)
	}

	for _, patternID := range result.SkippedPatterns {
		fmt.Fprintf(os.Stderr, "Warning: pattern %s skipped: %v\n", patternID, configErrors[patternID])
	}

	if result.Baseline.AOVIsPlaceholder || result.Baseline.ConversionIsDefault {
		fmt.Println("\nNote: no purchase data in batch; revenue figures use placeholder baselines.")
	}
	fmt.Printf("\nRun ID: %s\n", result.RunID)
}
