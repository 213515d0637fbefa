// Package matcher provides the HTTP client for the external biometric
// matcher service. The engine consumes pre-computed similarity scores; face
// detection and embedding extraction happen on the matcher side.
package matcher

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/kozaktomas/attendance-engine/internal/attendance"
	"github.com/kozaktomas/attendance-engine/internal/config"
)

// Client calls the matcher's HTTP API.
type Client struct {
	baseURL string
	limit   int
	timeout time.Duration
	http    *http.Client
}

// NewClient creates a matcher client from config.
func NewClient(cfg *config.MatcherConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("matcher URL is required")
	}
	return &Client{
		baseURL: cfg.URL,
		limit:   cfg.Limit,
		timeout: cfg.Timeout,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type matchRequest struct {
	Probe string `json:"probe"` // base64-encoded capture payload
	Limit int    `json:"limit"`
}

type matchResponse struct {
	Candidates []attendance.Candidate `json:"candidates"`
}

// Match submits a capture probe and returns identity candidates ordered by
// score descending. A deadline hit maps to attendance.ErrMatchTimeout so the
// caller can run normal rejection handling instead of failing the attempt.
func (c *Client) Match(ctx context.Context, probe []byte) ([]attendance.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(matchRequest{
		Probe: base64.StdEncoding.EncodeToString(probe),
		Limit: c.limit,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, attendance.ErrMatchTimeout
		}
		return nil, fmt.Errorf("calling matcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matcher returned status %d", resp.StatusCode)
	}

	var parsed matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding match response: %w", err)
	}

	// The matcher promises descending order; enforce it anyway so the
	// resolver's top-1 semantics never depend on remote behavior.
	sort.SliceStable(parsed.Candidates, func(i, j int) bool {
		return parsed.Candidates[i].Score > parsed.Candidates[j].Score
	})
	return parsed.Candidates, nil
}

// isTimeout reports whether an HTTP client error was caused by a deadline.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) {
		return timeoutErr.Timeout()
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
