package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	errs "commentscraper/pkg/errors"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0, // No jitter for predictable testing
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{3, 400 * time.Millisecond, "Third attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{6, 1 * time.Second, "Sixth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if delay := backoff.NextDelay(test.attempt); delay != test.expected {
				t.Errorf("Expected delay %v, got %v", test.expected, delay)
			}
		})
	}
}

func TestExponentialBackoffWithJitter(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	delays := make(map[time.Duration]bool)
	for i := 0; i < 10; i++ {
		delays[backoff.NextDelay(2)] = true
	}

	if len(delays) < 2 {
		t.Error("Expected multiple different delays with jitter, but got consistent delays")
	}
}

func TestLinearBackoff(t *testing.T) {
	backoff := &LinearBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     500 * time.Millisecond,
		Increment:    100 * time.Millisecond,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 300 * time.Millisecond},
		{4, 400 * time.Millisecond},
		{5, 500 * time.Millisecond},
		{6, 500 * time.Millisecond}, // Capped at max
	}

	for _, test := range tests {
		if delay := backoff.NextDelay(test.attempt); delay != test.expected {
			t.Errorf("Attempt %d: expected %v, got %v", test.attempt, test.expected, delay)
		}
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	if err := Do(op, cfg); err != nil {
		t.Errorf("Expected success after retries, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		return errors.New("persistent error")
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when max attempts exceeded")
	}
	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{
		Type:    errs.ErrorTypeAuth,
		Message: "authentication required",
		Code:    401,
	}

	op := func() error {
		attempts++
		return authError
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	if err := Do(op, cfg); !errors.Is(err, authError) {
		t.Errorf("Expected auth error, got: %v", err)
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt (no retry for auth error), got %d", attempts)
	}
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"typed network error", errs.New(errs.ErrorTypeNetwork, "reset"), true},
		{"typed rate limit error", errs.New(errs.ErrorTypeRateLimit, "throttled"), false},
		{"typed validation error", errs.New(errs.ErrorTypeValidation, "bad id"), false},
		{"typed daily quota error", errs.New(errs.ErrorTypeDailyQuota, "spent"), false},
		{"context cancelled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, false},
		{"unknown plain error", errors.New("mystery"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DefaultRetryIf(tt.err); got != tt.want {
				t.Errorf("DefaultRetryIf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	op := func() error {
		attempts++
		if attempts == 2 {
			cancel() // Cancel after second attempt
		}
		return errors.New("error")
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: 100 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(op, cfg)
	if err == nil {
		t.Error("Expected error when context cancelled")
	}
	if attempts > 3 {
		t.Errorf("Expected at most 3 attempts before cancellation, got %d", attempts)
	}
}

func TestWait(t *testing.T) {
	if err := Wait(context.Background(), 0); err != nil {
		t.Errorf("Wait with zero delay returned %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Wait(ctx, time.Second); err == nil {
		t.Error("Wait on cancelled context returned nil")
	}
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: 10 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	if err != nil {
		t.Errorf("Expected success, got error: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got '%s'", result)
	}
	if attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", attempts)
	}
}

func TestRetrierCopies(t *testing.T) {
	base := NewRetrier(&Config{
		MaxAttempts: 2,
		Backoff:     &ConstantBackoff{Delay: 5 * time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	})

	attempts := 0
	err := base.WithMaxAttempts(4).Do(func() error {
		attempts++
		return errors.New("always")
	})
	if err == nil || attempts != 4 {
		t.Errorf("derived retrier ran %d attempts, want 4", attempts)
	}

	// The base retrier keeps its original budget.
	attempts = 0
	_ = base.Do(func() error {
		attempts++
		return errors.New("always")
	})
	if attempts != 2 {
		t.Errorf("base retrier ran %d attempts, want 2", attempts)
	}
}
