package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

// instant records requested delays without sleeping.
func instant(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestDo_SuccessOnFirstAttempt(t *testing.T) {
	var calls int
	err := Do(context.Background(), DefaultRetryConfig(), func(_ context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_SuccessAfterRetry(t *testing.T) {
	var calls int
	var delays []time.Duration
	cfg := RetryConfig{MaxAttempts: 3, Wait: instant(&delays)}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		calls++
		if calls < 3 {
			return NewTransientError(errors.New("database is restarting"))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if len(delays) != 2 {
		t.Errorf("expected 2 waits, got %d", len(delays))
	}
}

func TestDo_ExactBackoffWithoutJitter(t *testing.T) {
	var delays []time.Duration
	cfg := RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 500 * time.Millisecond,
		Multiplier:     2,
		ShouldRetry:    RetryAny,
		Wait:           instant(&delays),
	}

	err := Do(context.Background(), cfg, func(_ context.Context) error {
		return errors.New("sink unavailable")
	})
	if err == nil || err.Error() != "sink unavailable" {
		t.Fatalf("expected last error, got %v", err)
	}
	want := []time.Duration{500 * time.Millisecond, 1000 * time.Millisecond}
	if len(delays) != len(want) {
		t.Fatalf("expected %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %v, got %v", i, want[i], delays[i])
		}
	}
}

func TestDo_NonTransientError_NoRetry(t *testing.T) {
	var calls int
	err := Do(context.Background(), RetryConfig{MaxAttempts: 3}, func(_ context.Context) error {
		calls++
		return errors.New("duplicate key value violates unique constraint")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_ContextCancelled_StopsRetry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	var delays []time.Duration

	err := Do(ctx, RetryConfig{MaxAttempts: 5, Wait: instant(&delays)}, func(_ context.Context) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return NewTransientError(errors.New("fail"))
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
}

func TestDo_OnRetryCallback(t *testing.T) {
	var attempts []int
	var delays []time.Duration
	cfg := RetryConfig{
		MaxAttempts: 3,
		Wait:        instant(&delays),
		OnRetry: func(attempt int, _ error) {
			attempts = append(attempts, attempt)
		},
	}

	_ = Do(context.Background(), cfg, func(_ context.Context) error {
		return NewTransientError(errors.New("fail"))
	})

	if len(attempts) != 2 || attempts[0] != 1 || attempts[1] != 2 {
		t.Errorf("expected attempts [1 2], got %v", attempts)
	}
}

func TestDoVal_ReturnsValueOnSuccess(t *testing.T) {
	var delays []time.Duration
	cfg := DefaultRetryConfig()
	cfg.Wait = instant(&delays)

	var calls int
	val, err := DoVal(context.Background(), cfg, func(_ context.Context) (string, error) {
		calls++
		if calls < 2 {
			return "", NewTransientError(errors.New("fail"))
		}
		return "evt-1", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "evt-1" {
		t.Errorf("expected %q, got %q", "evt-1", val)
	}
}

func TestDelay(t *testing.T) {
	cfg := RetryConfig{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 300 * time.Millisecond, Multiplier: 2}
	cases := map[int]time.Duration{
		0: 100 * time.Millisecond,
		1: 200 * time.Millisecond,
		2: 300 * time.Millisecond,
		5: 300 * time.Millisecond,
	}
	for attempt, want := range cases {
		if got := Delay(cfg, attempt); got != want {
			t.Errorf("attempt %d: expected %v, got %v", attempt, want, got)
		}
	}

	cfg.JitterFraction = 0.5
	for i := 0; i < 50; i++ {
		d := Delay(cfg, 0)
		if d < 50*time.Millisecond || d > 150*time.Millisecond {
			t.Fatalf("jittered delay %v outside ±50%%", d)
		}
	}
}

func TestSleep_ContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFromRetryConfig(t *testing.T) {
	cfg := FromRetryConfig(3, 500, 0, 2, 0)
	if cfg.MaxAttempts != 3 || cfg.InitialBackoff != 500*time.Millisecond || cfg.JitterFraction != 0 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.MaxBackoff != 30*time.Second {
		t.Errorf("expected default max backoff, got %v", cfg.MaxBackoff)
	}

	cfg = FromRetryConfig(0, 0, 0, 0, -1)
	if cfg.JitterFraction != 0.25 {
		t.Errorf("negative jitter should keep the default, got %v", cfg.JitterFraction)
	}
}
