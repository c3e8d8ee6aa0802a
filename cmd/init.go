package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ecomlens/ecomlens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize ecomlens configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure ecomlens for your project and generates a .ecomlens.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
