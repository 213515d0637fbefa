// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Identity resolution constants
const (
	// DefaultHighThreshold is the minimum similarity score for a confirmed match.
	// Scores at or above this value resolve directly to an identity.
	DefaultHighThreshold = 0.85

	// DefaultLowThreshold is the minimum similarity score for an ambiguous match.
	// Scores in [low, high) are queued for human review instead of auto-committing.
	DefaultLowThreshold = 0.55
)

// Session window constants
const (
	// DefaultGraceMinutes is the on-time grace period after a session window opens.
	// Captures after the grace period but before the window closes are marked late.
	DefaultGraceMinutes = 15
)

// Matcher constants
const (
	// DefaultMatchTimeoutSeconds is the maximum time to wait for the external
	// biometric matcher. A timeout is treated as no match, never left pending.
	DefaultMatchTimeoutSeconds = 10

	// DefaultMatchLimit is the maximum number of candidates requested from the matcher
	DefaultMatchLimit = 5
)

// Audit constants
const (
	// DefaultAuditPageSize is the default number of audit entries to fetch per page
	DefaultAuditPageSize = 500
)
