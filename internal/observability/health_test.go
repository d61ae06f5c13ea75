package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestReadinessHandler_AllHealthy(t *testing.T) {
	handler := ReadinessHandler(map[string]HealthCheckFunc{
		"transport": func(ctx context.Context) (bool, error) { return true, nil },
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if status.Status != "ready" {
		t.Errorf("Expected ready, got %s", status.Status)
	}
	if status.Dependencies["transport"].Status != "healthy" {
		t.Errorf("Expected transport healthy, got %+v", status.Dependencies["transport"])
	}
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	handler := ReadinessHandler(map[string]HealthCheckFunc{
		"transport":  func(ctx context.Context) (bool, error) { return true, nil },
		"wake_words": func(ctx context.Context) (bool, error) { return false, errors.New("no wake words installed") },
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if status.Status != "not_ready" {
		t.Errorf("Expected not_ready, got %s", status.Status)
	}
	if status.Dependencies["wake_words"].Message != "no wake words installed" {
		t.Errorf("Expected error message, got %q", status.Dependencies["wake_words"].Message)
	}
}

func TestParseLevel(t *testing.T) {
	if ParseLevel("debug") != zerolog.DebugLevel {
		t.Errorf("Expected debug level, got %s", ParseLevel("debug"))
	}
	if ParseLevel("bogus") != zerolog.InfoLevel {
		t.Errorf("Expected info level fallback, got %s", ParseLevel("bogus"))
	}
}

func TestTurnMetrics_EndOnce(t *testing.T) {
	m := NewTurnMetrics("turn-1")
	m.End("completed")
	m.End("aborted")
	if m.TurnID() != "turn-1" {
		t.Errorf("Expected turn-1, got %s", m.TurnID())
	}
}
