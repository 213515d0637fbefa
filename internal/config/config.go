package config

import (
	_ "embed"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kozaktomas/attendance-engine/internal/constants"
)

//go:embed thresholds.yaml
var thresholdsYAML []byte

type Config struct {
	Server     ServerConfig
	Matcher    MatcherConfig
	Roster     RosterConfig
	Database   DatabaseConfig
	Thresholds ThresholdsConfig
}

type ServerConfig struct {
	APIToken string // Bearer token required on all non-health endpoints
}

type MatcherConfig struct {
	URL     string        // Base URL of the external biometric matcher service
	Timeout time.Duration // Max wait per match call; a timeout resolves to no match
	Limit   int           // Max candidates requested per match call
}

type RosterConfig struct {
	DatabaseURL string // MariaDB DSN of the institution's student information system
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

// ThresholdsConfig holds the tunable verification thresholds.
// Defaults come from the embedded thresholds.yaml; env vars override.
type ThresholdsConfig struct {
	Resolution ResolutionThresholds `yaml:"resolution"`
	Window     WindowDefaults       `yaml:"window"`
	Labels     ConfidenceLabels     `yaml:"labels"`
}

type ResolutionThresholds struct {
	High float64 `yaml:"high"`
	Low  float64 `yaml:"low"`
}

type WindowDefaults struct {
	GraceMinutes int `yaml:"grace_minutes"`
}

type ConfidenceLabels struct {
	High   float64 `yaml:"high"`
	Medium float64 `yaml:"medium"`
	Low    float64 `yaml:"low"`
}

// Grace returns the default grace period as a duration.
func (t *ThresholdsConfig) Grace() time.Duration {
	return time.Duration(t.Window.GraceMinutes) * time.Minute
}

// Label maps a similarity score to a human-readable confidence tier.
func (t *ThresholdsConfig) Label(score float64) string {
	switch {
	case score >= t.Labels.High:
		return "HIGH"
	case score >= t.Labels.Medium:
		return "MEDIUM"
	case score >= t.Labels.Low:
		return "LOW"
	default:
		return "REJECTED"
	}
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a float in (0, 1].
// Returns the default value if the env var is unset, empty, or out of range.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f <= 1 {
		return f
	}
	return defaultVal
}

func Load() *Config {
	var thresholds ThresholdsConfig
	if err := yaml.Unmarshal(thresholdsYAML, &thresholds); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded thresholds.yaml: " + err.Error())
	}

	// Fill in anything the yaml file leaves out before applying env overrides.
	if thresholds.Resolution.High == 0 {
		thresholds.Resolution.High = constants.DefaultHighThreshold
	}
	if thresholds.Resolution.Low == 0 {
		thresholds.Resolution.Low = constants.DefaultLowThreshold
	}
	if thresholds.Window.GraceMinutes == 0 {
		thresholds.Window.GraceMinutes = constants.DefaultGraceMinutes
	}

	thresholds.Resolution.High = envFloat("RESOLVE_HIGH_THRESHOLD", thresholds.Resolution.High)
	thresholds.Resolution.Low = envFloat("RESOLVE_LOW_THRESHOLD", thresholds.Resolution.Low)
	thresholds.Window.GraceMinutes = envInt("SESSION_GRACE_MINUTES", thresholds.Window.GraceMinutes)

	return &Config{
		Server: ServerConfig{
			APIToken: os.Getenv("API_TOKEN"),
		},
		Matcher: MatcherConfig{
			URL:     os.Getenv("MATCHER_URL"),
			Timeout: time.Duration(envInt("MATCHER_TIMEOUT_SECONDS", constants.DefaultMatchTimeoutSeconds)) * time.Second,
			Limit:   envInt("MATCHER_LIMIT", constants.DefaultMatchLimit),
		},
		Roster: RosterConfig{
			DatabaseURL: os.Getenv("ROSTER_DATABASE_URL"),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Thresholds: thresholds,
	}
}
