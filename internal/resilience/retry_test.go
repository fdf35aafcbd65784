package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
		Multiplier:     2.0,
	}
}

// run adapts an error-only callback to DoVal.
func run(ctx context.Context, cfg RetryConfig, fn func(ctx context.Context) error) error {
	_, err := DoVal(ctx, cfg, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func TestDoVal_SingleAttemptByDefault(t *testing.T) {
	var calls int
	err := run(context.Background(), RetryConfig{}, func(_ context.Context) error {
		calls++
		return NewTransientError(errors.New("unavailable"), 503)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_SuccessAfterRetry(t *testing.T) {
	var calls int
	err := run(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("temporary"), 503)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoVal_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	err := run(context.Background(), fastRetry(3), func(_ context.Context) error {
		calls++
		return errors.New("bad request")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoVal_ContextCancelledStopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	err := run(ctx, fastRetry(5), func(_ context.Context) error {
		calls++
		cancel()
		return NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call after cancel, got %d", calls)
	}
}

func TestDoVal_OnRetryCallback(t *testing.T) {
	var attempts []int
	cfg := fastRetry(3)
	cfg.OnRetry = func(attempt int, _ error) {
		attempts = append(attempts, attempt)
	}

	_ = run(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"), 500)
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
}

func TestDoVal_ReturnsValue(t *testing.T) {
	var calls int
	val, err := DoVal(context.Background(), fastRetry(2), func(_ context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", NewTransientError(errors.New("fail"), 502)
		}
		return "page", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "page" {
		t.Errorf("expected %q, got %q", "page", val)
	}
}

func TestDoVal_ZeroOnFailure(t *testing.T) {
	val, err := DoVal(context.Background(), fastRetry(2), func(_ context.Context) (int, error) {
		return 42, NewTransientError(errors.New("fail"), 500)
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if val != 0 {
		t.Errorf("expected zero value, got %d", val)
	}
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(0, 0, 0)
	if cfg.MaxAttempts != 1 {
		t.Errorf("expected default of 1 attempt, got %d", cfg.MaxAttempts)
	}

	cfg = FromSettings(4, 100, 2000)
	if cfg.MaxAttempts != 4 || cfg.InitialBackoff != 100*time.Millisecond || cfg.MaxBackoff != 2*time.Second {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestComputeBackoff_ExponentialAndCapped(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
		Multiplier:     2.0,
	})

	want := []time.Duration{100, 200, 400, 500, 500}
	for i, w := range want {
		if got := computeBackoff(i, cfg); got != w*time.Millisecond {
			t.Errorf("attempt %d: expected %v, got %v", i, w*time.Millisecond, got)
		}
	}
}

func TestComputeBackoff_JitterRange(t *testing.T) {
	cfg := applyDefaults(RetryConfig{
		InitialBackoff: time.Second,
		MaxBackoff:     30 * time.Second,
		JitterFraction: 0.5,
	})
	for i := 0; i < 50; i++ {
		d := computeBackoff(0, cfg)
		if d < 500*time.Millisecond || d > 1500*time.Millisecond {
			t.Errorf("delay %v outside [500ms, 1500ms]", d)
		}
	}
}
