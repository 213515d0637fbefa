package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-engine/internal/config"
	"github.com/kozaktomas/attendance-engine/internal/database/mariadb"
	"github.com/kozaktomas/attendance-engine/internal/database/postgres"
)

var rosterSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync students and enrollments from the SIS",
	Long: `Sync students, enrollments, and teaching assignments from the
student information system's MariaDB into the local PostgreSQL cache.

Run this before the start of each term and whenever enrollment changes.

Examples:
  # Run sync with a progress bar
  attendance-engine roster sync

  # JSON output for scripting
  attendance-engine roster sync --json`,
	RunE: runRosterSync,
}

func init() {
	rosterCmd.AddCommand(rosterSyncCmd)

	rosterSyncCmd.Flags().Bool("json", false, "Output as JSON instead of progress bar")
}

// RosterSyncResult represents the result of a roster sync operation
type RosterSyncResult struct {
	Success        bool   `json:"success"`
	Students       int    `json:"students"`
	Courses        int    `json:"courses"`
	Enrollments    int    `json:"enrollments"`
	FacultyMembers int    `json:"faculty_members"`
	DurationMs     int64  `json:"duration_ms"`
	DurationHuman  string `json:"duration_human,omitempty"`
}

func runRosterSync(cmd *cobra.Command, args []string) error {
	jsonOutput := mustGetBool(cmd, "json")

	ctx := context.Background()
	cfg := config.Load()
	startTime := time.Now()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Roster.DatabaseURL == "" {
		return errors.New("ROSTER_DATABASE_URL environment variable is required")
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()
	cacheRepo := postgres.NewRosterRepository(pool)

	if !jsonOutput {
		fmt.Println("Connecting to SIS MariaDB...")
	}
	sisPool, err := mariadb.NewPool(cfg.Roster.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to SIS: %w", err)
	}
	defer sisPool.Close()

	students, err := sisPool.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to list students: %w", err)
	}
	enrollments, err := sisPool.ListEnrollments(ctx)
	if err != nil {
		return fmt.Errorf("failed to list enrollments: %w", err)
	}
	teaching, err := sisPool.ListTeaching(ctx)
	if err != nil {
		return fmt.Errorf("failed to list teaching assignments: %w", err)
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.Default(int64(len(students)), "Syncing students")
	}
	for _, s := range students {
		if err := cacheRepo.UpsertStudent(ctx, s); err != nil {
			return fmt.Errorf("failed to sync student %s: %w", s.ID, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	byCourse := make(map[string][]string)
	for _, e := range enrollments {
		byCourse[e.CourseID] = append(byCourse[e.CourseID], e.StudentID)
	}
	if !jsonOutput {
		bar = progressbar.Default(int64(len(byCourse)), "Syncing enrollments")
	}
	for courseID, studentIDs := range byCourse {
		if err := cacheRepo.ReplaceEnrollments(ctx, courseID, studentIDs); err != nil {
			return fmt.Errorf("failed to sync enrollments for %s: %w", courseID, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	byActor := make(map[string][]string)
	for _, t := range teaching {
		byActor[t.ActorID] = append(byActor[t.ActorID], t.CourseID)
	}
	if !jsonOutput {
		bar = progressbar.Default(int64(len(byActor)), "Syncing teaching")
	}
	for actorID, courseIDs := range byActor {
		if err := cacheRepo.ReplaceTeaching(ctx, actorID, courseIDs); err != nil {
			return fmt.Errorf("failed to sync teaching for %s: %w", actorID, err)
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	result := RosterSyncResult{
		Success:        true,
		Students:       len(students),
		Courses:        len(byCourse),
		Enrollments:    len(enrollments),
		FacultyMembers: len(byActor),
		DurationMs:     time.Since(startTime).Milliseconds(),
		DurationHuman:  time.Since(startTime).Round(time.Millisecond).String(),
	}

	if jsonOutput {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	fmt.Printf("\nSync complete: %d students, %d courses, %d enrollments, %d faculty (%s)\n",
		result.Students, result.Courses, result.Enrollments, result.FacultyMembers, result.DurationHuman)
	return nil
}
