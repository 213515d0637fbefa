package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/attendance-engine/internal/config"
)

func TestConfigHandler(t *testing.T) {
	cfg := &config.Config{
		Matcher: config.MatcherConfig{URL: "http://matcher:9000"},
		Thresholds: config.ThresholdsConfig{
			Resolution: config.ResolutionThresholds{High: 0.85, Low: 0.55},
			Window:     config.WindowDefaults{GraceMinutes: 15},
		},
	}
	handler := NewConfigHandler(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/config", nil)
	recorder := httptest.NewRecorder()
	handler.Get(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var response ConfigResponse
	parseJSONResponse(t, recorder, &response)

	if response.HighThreshold != 0.85 {
		t.Errorf("Expected high threshold 0.85, got %f", response.HighThreshold)
	}
	if response.LowThreshold != 0.55 {
		t.Errorf("Expected low threshold 0.55, got %f", response.LowThreshold)
	}
	if response.GraceMinutes != 15 {
		t.Errorf("Expected 15 grace minutes, got %d", response.GraceMinutes)
	}
	if !response.MatcherConfigured {
		t.Error("Expected matcher_configured true")
	}
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	recorder := httptest.NewRecorder()
	HealthCheck(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	var response map[string]string
	parseJSONResponse(t, recorder, &response)
	if response["status"] != "ok" {
		t.Errorf("Expected status ok, got %s", response["status"])
	}
}
