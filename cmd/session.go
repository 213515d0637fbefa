package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/config"
	"github.com/kozaktomas/attendance-engine/internal/database/postgres"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage course session windows",
}

var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Create or replace a course session window",
	Long: `Create or replace the marking window for a course on a date.
Attempts outside the window are rejected; attempts after start plus
grace are recorded as late.

Example:
  attendance-engine session set --course cs101 --date 2026-09-14 \
      --start 09:00 --end 10:30 --grace 15`,
	RunE: runSessionSet,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionSetCmd)

	sessionSetCmd.Flags().String("course", "", "Course id (required)")
	sessionSetCmd.Flags().String("date", "", "Session date, YYYY-MM-DD (required)")
	sessionSetCmd.Flags().String("start", "", "Window start, HH:MM local time (required)")
	sessionSetCmd.Flags().String("end", "", "Window end, HH:MM local time (required)")
	sessionSetCmd.Flags().Int("grace", 0, "Grace minutes after start (0 uses the configured default)")
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	courseID := mustGetString(cmd, "course")
	date := mustGetString(cmd, "date")
	startStr := mustGetString(cmd, "start")
	endStr := mustGetString(cmd, "end")
	graceMinutes := mustGetInt(cmd, "grace")

	if courseID == "" || date == "" || startStr == "" || endStr == "" {
		return errors.New("--course, --date, --start and --end are required")
	}

	day, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	start, err := parseClockOn(day, startStr)
	if err != nil {
		return fmt.Errorf("invalid start %q: %w", startStr, err)
	}
	end, err := parseClockOn(day, endStr)
	if err != nil {
		return fmt.Errorf("invalid end %q: %w", endStr, err)
	}
	if !end.After(start) {
		return errors.New("window end must be after start")
	}

	cfg := config.Load()
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	grace := time.Duration(graceMinutes) * time.Minute
	if graceMinutes <= 0 {
		grace = cfg.Thresholds.Grace()
	}

	repo := postgres.NewSessionRepository(pool, cfg.Thresholds.Grace())
	window := attendance.Window{Start: start, End: end, Grace: grace}
	if err := repo.PutWindow(context.Background(), courseID, date, window); err != nil {
		return fmt.Errorf("failed to store session window: %w", err)
	}

	fmt.Printf("Session window set for %s on %s: %s - %s (grace %s)\n",
		courseID, date, start.Format("15:04"), end.Format("15:04"), grace)
	return nil
}

// parseClockOn combines a HH:MM clock string with a date.
func parseClockOn(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}
