package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestDoSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	e := New(4, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	e := New(4, time.Millisecond)
	calls := 0
	err := e.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v, want nil", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoExhaustionReturnsLastError(t *testing.T) {
	t.Parallel()

	e := New(3, time.Millisecond)
	calls := 0
	lastErr := errors.New("attempt 3")
	err := e.Do(context.Background(), func() error {
		calls++
		if calls == 3 {
			return lastErr
		}
		return errors.New("earlier")
	})
	if !errors.Is(err, lastErr) {
		t.Errorf("Do() error = %v, want %v", err, lastErr)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}
}

func TestDoBackoffDoubles(t *testing.T) {
	t.Parallel()

	base := 20 * time.Millisecond
	e := New(3, base)

	start := time.Now()
	_ = e.Do(context.Background(), func() error {
		return errors.New("always")
	})
	elapsed := time.Since(start)

	// Waits: base before attempt 2, 2*base before attempt 3.
	if want := 3 * base; elapsed < want {
		t.Errorf("elapsed %v, want at least %v", elapsed, want)
	}
}

func TestDoContextCanceledBetweenAttempts(t *testing.T) {
	t.Parallel()

	e := New(4, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- e.Do(ctx, func() error {
			calls++
			return errors.New("transient")
		})
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Do() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Do() did not return after cancellation")
	}

	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}

func TestNewClampsAttempts(t *testing.T) {
	t.Parallel()

	e := New(0, time.Millisecond)
	if e.MaxAttempts() != 1 {
		t.Errorf("MaxAttempts() = %d, want 1", e.MaxAttempts())
	}

	calls := 0
	_ = e.Do(context.Background(), func() error {
		calls++
		return errors.New("always")
	})
	if calls != 1 {
		t.Errorf("fn called %d times, want 1", calls)
	}
}
