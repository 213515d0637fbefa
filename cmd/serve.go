package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/config"
	"github.com/kozaktomas/attendance-engine/internal/database/postgres"
	"github.com/kozaktomas/attendance-engine/internal/matcher"
	"github.com/kozaktomas/attendance-engine/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the attendance API server",
	Long: `Start the attendance verification API server.
The server exposes marking, correction, record lookup, audit trail,
and course summary endpoints over HTTP.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
func resolveServeHostPort(cmd *cobra.Command) (int, string) {
	port := mustGetInt(cmd, "port")
	host := mustGetString(cmd, "host")

	if envPort := os.Getenv("WEB_PORT"); envPort != "" {
		fmt.Sscanf(envPort, "%d", &port)
	}
	if envHost := os.Getenv("WEB_HOST"); envHost != "" {
		host = envHost
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if cfg.Matcher.URL == "" {
		return errors.New("MATCHER_URL environment variable is required")
	}

	fmt.Printf("Connecting to PostgreSQL database...\n")
	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	recordRepo := postgres.NewRecordRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	sessionRepo := postgres.NewSessionRepository(pool, cfg.Thresholds.Grace())
	rosterRepo := postgres.NewRosterRepository(pool)

	matchClient, err := matcher.NewClient(&cfg.Matcher)
	if err != nil {
		return fmt.Errorf("failed to create matcher client: %w", err)
	}

	resolver := attendance.Resolver{
		High: cfg.Thresholds.Resolution.High,
		Low:  cfg.Thresholds.Resolution.Low,
	}
	engine := attendance.NewEngine(
		resolver,
		attendance.NewLedger(recordRepo),
		auditRepo,
		rosterRepo,
		sessionRepo,
		matchClient,
		cfg.Thresholds.Label,
	)

	port, host := resolveServeHostPort(cmd)
	server := web.NewServer(cfg, port, host, engine, rosterRepo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting attendance API on http://%s:%d\n", host, port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
