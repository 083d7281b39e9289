package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/directory"
)

var (
	sweepCourse      string
	sweepDay         string
	sweepDataDir     string
	sweepBackend     string
	sweepPostgresDSN string
	sweepCourses     string
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Reconcile attendance for a course and day",
	Long: `Sweep inserts an absence record for every enrolled participant who has no
attendance record for the course on the given day. Running it again for the
same course/day is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if sweepPostgresDSN == "" {
			sweepPostgresDSN = os.Getenv("DATABASE_URL")
		}
		store, closeStore, err := openStore(ctx, sweepBackend, sweepDataDir, sweepPostgresDSN)
		if err != nil {
			return err
		}
		defer closeStore()

		dir, err := directory.Load(sweepCourses)
		if err != nil {
			return fmt.Errorf("loading course catalog: %w", err)
		}

		// Today in the catalog's timezone, not the server's.
		day := attendance.DayOf(time.Now().In(dir.Location()))
		if sweepDay != "" {
			day, err = attendance.ParseDay(sweepDay)
			if err != nil {
				return err
			}
		}

		roster, err := dir.Roster(ctx, sweepCourse)
		if err != nil {
			return fmt.Errorf("fetching roster: %w", err)
		}

		sweeper := attendance.NewSweeper(store)
		report, err := sweeper.Sweep(ctx, sweepCourse, day, roster)
		if err != nil {
			return err
		}

		fmt.Printf("swept %s on %s: %d absence(s) created, %d participant(s) skipped\n",
			sweepCourse, day, report.Created, report.Skipped)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepCourse, "course", "", "Course ID to sweep (required)")
	sweepCmd.Flags().StringVar(&sweepDay, "day", "", "Day to sweep, YYYY-MM-DD (defaults to today)")
	sweepCmd.Flags().StringVar(&sweepDataDir, "data-dir", "./data", "Directory for persistent data (bbolt backend)")
	sweepCmd.Flags().StringVar(&sweepBackend, "backend", "bbolt", "Storage backend: memory, bbolt or postgres")
	sweepCmd.Flags().StringVar(&sweepPostgresDSN, "postgres-dsn", "", "PostgreSQL DSN (defaults to DATABASE_URL)")
	sweepCmd.Flags().StringVar(&sweepCourses, "courses", "courses.yaml", "Path to the course catalog")
	sweepCmd.MarkFlagRequired("course")
}
