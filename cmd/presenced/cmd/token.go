package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tebraouisamy/presence-app/token"
)

var (
	tokenCourse  string
	tokenMinutes int
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed session token for a course",
	Long: `Token prints a signed session token suitable for embedding in a QR code.
The token is bound to the course and valid for the given number of minutes;
signing requires PRESENCE_TOKEN_KEY to be set so scans verify against the
same key the server uses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		codec, err := newCodec()
		if err != nil {
			return fmt.Errorf("building token codec: %w", err)
		}

		encoded, err := codec.Encode(token.Token{
			SessionID: tokenCourse,
			IssuedAt:  time.Now(),
			ValidFor:  time.Duration(tokenMinutes) * time.Minute,
		})
		if err != nil {
			return err
		}

		fmt.Println(encoded)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokenCmd)
	tokenCmd.Flags().StringVar(&tokenCourse, "course", "", "Course ID the token is issued for (required)")
	tokenCmd.Flags().IntVar(&tokenMinutes, "valid-minutes", 60, "Token validity in minutes")
	tokenCmd.MarkFlagRequired("course")
}
