// Package cmd contains all cobra command definitions for the migrador CLI.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	flagYes     bool
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "migrador",
	Short: "Legacy site to Liferay migration CLI",
	Long: `migrador moves pages from the legacy institutional site into Liferay.

It reads a planning CSV, fetches each legacy page, splits the content
into structured content records, uploads referenced files and images,
and points the destination page's journal portlet at the new article.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable verbose output (log HTTP requests)")
	rootCmd.AddCommand(
		newMigrateCmd(),
		newRetryFoldersCmd(),
		newValidateCmd(),
	)
}
