package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "attendance-engine",
	Short: "Attendance verification engine",
	Long: `Attendance Engine turns raw identity-match signals from a biometric
matcher into durable, non-duplicated, auditable attendance records.
It enforces confidence thresholds, session windows, role-based access,
and one authoritative record per student, course, and date.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}
