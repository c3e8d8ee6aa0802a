package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ecomlens/ecomlens/internal/db"
	"github.com/ecomlens/ecomlens/internal/diagnose"
	"github.com/ecomlens/ecomlens/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Render a stored run as a markdown or HTML report",
	Long:  `Renders the diagnoses of a stored run. Without a run id the most recent run is used.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		database, err := db.Open(cfg.DatabasePath())
		if err != nil {
			return err
		}
		defer database.Close()

		ctx := context.Background()
		store := diagnose.NewStore(database)

		var run *diagnose.Run
		if len(args) > 0 {
			run, err = store.GetRun(ctx, args[0])
		} else {
			run, err = store.LatestRun(ctx)
		}
		if err != nil {
			return fmt.Errorf("no run to report on: %w", err)
		}

		stored, err := store.ListDiagnoses(ctx, run.ID)
		if err != nil {
			return err
		}

		markdown := report.Markdown(diagnose.Rehydrate(run, stored))

		outPath, _ := cmd.Flags().GetString("out")
		asHTML, _ := cmd.Flags().GetBool("html")
		if asHTML || strings.HasSuffix(outPath, ".html") {
			page, err := report.HTML(markdown, "Friction Diagnosis Report")
			if err != nil {
				return err
			}
			return writeOut(outPath, page)
		}
		return writeOut(outPath, []byte(markdown))
	},
}

func writeOut(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func init() {
	reportCmd.Flags().String("out", "", "write the report to this path instead of stdout")
	reportCmd.Flags().Bool("html", false, "render HTML instead of markdown")
	rootCmd.AddCommand(reportCmd)
}
