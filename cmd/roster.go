package cmd

import (
	"github.com/spf13/cobra"
)

var rosterCmd = &cobra.Command{
	Use:   "roster",
	Short: "Manage the local roster cache",
	Long: `Manage the local roster cache synced from the student information system.
The engine resolves enrollment and course associations against this cache,
never against the SIS directly.`,
}

func init() {
	rootCmd.AddCommand(rosterCmd)
}
