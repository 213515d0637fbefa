package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-engine/internal/config"
)

// ConfigHandler handles configuration endpoints
type ConfigHandler struct {
	config *config.Config
}

// NewConfigHandler creates a new config handler
func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{
		config: cfg,
	}
}

// ConfigResponse represents the configuration response
type ConfigResponse struct {
	HighThreshold     float64 `json:"high_threshold"`
	LowThreshold      float64 `json:"low_threshold"`
	GraceMinutes      int     `json:"grace_minutes"`
	MatcherConfigured bool    `json:"matcher_configured"`
}

// Get returns the effective verification thresholds. Clients use them to
// explain decisions; changing them requires a redeploy or env override.
func (h *ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	response := ConfigResponse{
		HighThreshold:     h.config.Thresholds.Resolution.High,
		LowThreshold:      h.config.Thresholds.Resolution.Low,
		GraceMinutes:      h.config.Thresholds.Window.GraceMinutes,
		MatcherConfigured: h.config.Matcher.URL != "",
	}

	respondJSON(w, http.StatusOK, response)
}
