package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ecomlens/ecomlens/internal/patterns"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and validate friction pattern definitions",
}

var patternsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered patterns (builtin and custom)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		registry, err := loadPatterns(cfg)
		if err != nil {
			return err
		}

		for _, def := range registry.All() {
			fmt.Printf("%-28s %-12s %s\n", def.ID, def.Stage, def.Label)
			for _, rule := range def.Rules {
				fmt.Printf("    rule %-24s weight %.0f\n", rule.ID, rule.Weight)
			}
		}
		return nil
	},
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate pattern definition files",
	Long:  `Validates every pattern definition in the given directory (or the configured patterns directory) and reports the first error found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		} else {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir = cfg.PatternsDir
		}

		defs, err := patterns.LoadDir(dir)
		if err != nil {
			return err
		}
		fmt.Printf("%d pattern(s) in %s are valid\n", len(defs), dir)
		return nil
	},
}

func init() {
	patternsCmd.AddCommand(patternsListCmd)
	patternsCmd.AddCommand(patternsValidateCmd)
	rootCmd.AddCommand(patternsCmd)
}
