package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("rate limited")
var errFatal = errors.New("invalid api key")

func isTransient(err error) bool {
	return errors.Is(err, errTransient)
}

// recordingSleep captures backoff delays without waiting.
type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(d time.Duration) {
	r.delays = append(r.delays, d)
}

func TestCallSucceedsFirstAttempt(t *testing.T) {
	sleeper := &recordingSleep{}
	c := NewController(isTransient, WithSleep(sleeper.sleep))

	calls := 0
	got, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "OK", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "OK" {
		t.Errorf("got %q, want OK", got)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("expected 0 sleeps, got %v", sleeper.delays)
	}
}

func TestCallExhaustsTransientFailures(t *testing.T) {
	sleeper := &recordingSleep{}
	c := NewController(isTransient, WithSleep(sleeper.sleep))

	calls := 0
	_, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errTransient
	})

	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
	if calls != 5 {
		t.Errorf("expected 5 attempts, got %d", calls)
	}
	if len(sleeper.delays) != 4 {
		t.Fatalf("expected 4 sleeps, got %d: %v", len(sleeper.delays), sleeper.delays)
	}

	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, d := range sleeper.delays {
		if d != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, d, want[i])
		}
		if i > 0 && d < sleeper.delays[i-1] {
			t.Errorf("backoff decreased at %d: %v after %v", i, d, sleeper.delays[i-1])
		}
	}
}

func TestCallSucceedsAfterTransientFailures(t *testing.T) {
	sleeper := &recordingSleep{}
	c := NewController(isTransient, WithSleep(sleeper.sleep))

	responses := []error{errTransient, errTransient, nil}
	calls := 0
	got, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		err := responses[calls]
		calls++
		if err != nil {
			return "", err
		}
		return "OK", nil
	})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "OK" {
		t.Errorf("got %q, want OK", got)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	if len(sleeper.delays) != 2 {
		t.Errorf("expected 2 sleeps, got %v", sleeper.delays)
	}
}

func TestCallFatalAbortsImmediately(t *testing.T) {
	sleeper := &recordingSleep{}
	c := NewController(isTransient, WithSleep(sleeper.sleep))

	calls := 0
	_, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errFatal
	})

	if !errors.Is(err, errFatal) {
		t.Fatalf("expected fatal error to propagate, got %v", err)
	}
	if errors.Is(err, ErrOverloaded) {
		t.Error("fatal error must not be reported as overloaded")
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
	if len(sleeper.delays) != 0 {
		t.Errorf("expected 0 sleeps, got %v", sleeper.delays)
	}
}

func TestCallCustomAttemptsAndDelay(t *testing.T) {
	sleeper := &recordingSleep{}
	c := NewController(isTransient,
		WithSleep(sleeper.sleep),
		WithAttempts(3),
		WithBaseDelay(10*time.Millisecond),
	)

	calls := 0
	_, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errTransient
	})

	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
	want := []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}
	if len(sleeper.delays) != len(want) {
		t.Fatalf("expected %d sleeps, got %v", len(want), sleeper.delays)
	}
	for i, d := range sleeper.delays {
		if d != want[i] {
			t.Errorf("sleep %d = %v, want %v", i, d, want[i])
		}
	}
}

func TestCallLargeAttemptBudgetBackoffStaysSane(t *testing.T) {
	// An attempt budget far past the exponent width must not wrap the delay
	// into a negative duration; delays stay positive and non-decreasing.
	sleeper := &recordingSleep{}
	c := NewController(isTransient,
		WithSleep(sleeper.sleep),
		WithAttempts(70),
		WithBaseDelay(time.Millisecond),
	)

	_, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		return "", errTransient
	})

	if !errors.Is(err, ErrOverloaded) {
		t.Fatalf("expected ErrOverloaded, got %v", err)
	}
	if len(sleeper.delays) != 69 {
		t.Fatalf("expected 69 sleeps, got %d", len(sleeper.delays))
	}
	for i, d := range sleeper.delays {
		if d <= 0 {
			t.Fatalf("sleep %d = %v, want positive", i, d)
		}
		if i > 0 && d < sleeper.delays[i-1] {
			t.Errorf("backoff decreased at %d: %v after %v", i, d, sleeper.delays[i-1])
		}
	}
	maxDelay := time.Duration(1<<maxBackoffShift) * time.Millisecond
	if last := sleeper.delays[len(sleeper.delays)-1]; last != maxDelay {
		t.Errorf("capped delay = %v, want %v", last, maxDelay)
	}
}

func TestTotalBackoff(t *testing.T) {
	// 1+2+4+8 units for the default five-attempt budget.
	if got, want := TotalBackoff(5, time.Second), 15*time.Second; got != want {
		t.Errorf("TotalBackoff(5, 1s) = %v, want %v", got, want)
	}
	if got := TotalBackoff(1, time.Second); got != 0 {
		t.Errorf("TotalBackoff(1, 1s) = %v, want 0", got)
	}
	if got := TotalBackoff(70, time.Millisecond); got <= 0 {
		t.Errorf("TotalBackoff(70, 1ms) = %v, want positive", got)
	}
}

func TestNilClassifierTreatsEverythingFatal(t *testing.T) {
	c := NewController(nil, WithSleep(func(time.Duration) {}))

	calls := 0
	_, err := c.Call(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		return "", errTransient
	})

	if !errors.Is(err, errTransient) {
		t.Fatalf("expected error to propagate, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 attempt, got %d", calls)
	}
}
