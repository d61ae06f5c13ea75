package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("media", 1)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("media")); got != 1 {
		t.Errorf("Expected breaker state 1, got %v", got)
	}
	SetBreakerState("media", 0)
	if got := testutil.ToFloat64(breakerState.WithLabelValues("media")); got != 0 {
		t.Errorf("Expected breaker state 0, got %v", got)
	}
}

func TestSetStatusClients(t *testing.T) {
	SetStatusClients(3)
	if got := testutil.ToFloat64(statusClients); got != 3 {
		t.Errorf("Expected 3 status clients, got %v", got)
	}
}
