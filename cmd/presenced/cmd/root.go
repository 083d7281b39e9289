package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "presenced",
	Short: "presenced records and reconciles course attendance",
	Long: `presenced is the attendance recording and reconciliation service:
it validates session-token scans, classifies them as on-time or late, and
sweeps in absence records for enrolled participants at day's end.`,
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Environment from a local .env file, when present. Real environment
	// variables win over file values.
	cobra.OnInitialize(func() {
		_ = godotenv.Load()
	})
}
