// Package cmd implements the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "giji",
	Short: "Giji imports GitHub issues into JIRA",
	Long: `Giji is a batch import tool that moves open GitHub issues into JIRA.
It reads the repository directory, classifies issues by kind, creates the
matching JIRA tickets with their custom fields, backfills the discussion and
marks each imported issue on the GitHub side.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(labelsCmd)
}
