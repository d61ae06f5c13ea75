package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        5 * time.Millisecond,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		return nil
	}, fastRetryConfig(3), nil)

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestRetry_FailureThenSuccess(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}, fastRetryConfig(3), nil)

	if err != nil {
		t.Errorf("Expected no error after retries, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetry_MaxAttempts(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		return errors.New("persistent error")
	}, fastRetryConfig(2), nil)

	if err == nil || err.Error() != "persistent error" {
		t.Errorf("Expected last error to be returned, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetry_NonRetryableError(t *testing.T) {
	attempts := 0
	err := Retry(context.Background(), func() error {
		attempts++
		return errors.New("not found")
	}, fastRetryConfig(5), IsRetryableNetworkError)

	if err == nil {
		t.Error("Expected error")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for non-retryable error, got %d", attempts)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	config := &RetryConfig{
		MaxAttempts:       5,
		InitialBackoff:    time.Hour,
		MaxBackoff:        time.Hour,
		BackoffMultiplier: 1,
	}

	attempts := 0
	err := Retry(ctx, func() error {
		attempts++
		cancel()
		return errors.New("connection refused")
	}, config, IsRetryableNetworkError)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", attempts)
	}
}

func TestIsRetryableNetworkError(t *testing.T) {
	retryable := []error{
		errors.New("dial tcp: connection refused"),
		errors.New("read: connection reset by peer"),
		errors.New("i/o timeout"),
		NewRetryableError(errors.New("status 503")),
	}
	for _, err := range retryable {
		if !IsRetryableNetworkError(err) {
			t.Errorf("Expected %v to be retryable", err)
		}
	}

	if IsRetryableNetworkError(errors.New("unsupported wav format")) {
		t.Error("Expected format error to not be retryable")
	}
	if IsRetryableNetworkError(nil) {
		t.Error("Expected nil to not be retryable")
	}
}

func TestIsRetryableHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 503} {
		if !IsRetryableHTTPStatus(code) {
			t.Errorf("Expected status %d to be retryable", code)
		}
	}
	for _, code := range []int{200, 400, 404} {
		if IsRetryableHTTPStatus(code) {
			t.Errorf("Expected status %d to not be retryable", code)
		}
	}
}

func TestCalculateBackoff(t *testing.T) {
	initial := 100 * time.Millisecond
	max := time.Second

	if got := CalculateBackoff(0, initial, max, 2.0); got != initial {
		t.Errorf("Expected %v, got %v", initial, got)
	}
	if got := CalculateBackoff(2, initial, max, 2.0); got != 400*time.Millisecond {
		t.Errorf("Expected 400ms, got %v", got)
	}
	if got := CalculateBackoff(10, initial, max, 2.0); got != max {
		t.Errorf("Expected cap %v, got %v", max, got)
	}
}

func TestNewRetryableError(t *testing.T) {
	if NewRetryableError(nil) != nil {
		t.Error("Expected nil for nil error")
	}
	base := errors.New("base")
	err := NewRetryableError(base)
	if !IsRetryable(err) {
		t.Error("Expected wrapped error to be retryable")
	}
	if !errors.Is(err, base) {
		t.Error("Expected wrapped error to unwrap to base")
	}
}

func TestReconnect_SucceedsAfterFailures(t *testing.T) {
	attempts := 0
	err := Reconnect(context.Background(), zerolog.Nop(), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("address in use")
		}
		return nil
	}, &ReconnectConfig{MaxAttempts: 5, Backoff: time.Millisecond, Multiplier: 2, MaxBackoff: 4 * time.Millisecond})

	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestReconnect_GivesUp(t *testing.T) {
	attempts := 0
	err := Reconnect(context.Background(), zerolog.Nop(), func() error {
		attempts++
		return errors.New("down")
	}, &ReconnectConfig{MaxAttempts: 2, Backoff: time.Millisecond, Multiplier: 1, MaxBackoff: time.Millisecond})

	if err == nil {
		t.Error("Expected error after exhausting attempts")
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}
