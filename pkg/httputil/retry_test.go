package httputil

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errBoom = errors.New("boom")

func TestRetrySuccessFirstTry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}
}

func TestRetryNonRetryableStopsImmediately(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return errBoom
	})
	if err != errBoom {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should not retry non-retryable error: %d", calls)
	}
}

func TestRetryRetryableSucceedsEventually(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return &RetryableError{Err: errBoom}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("Should call three times: %d", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		return &RetryableError{Err: errBoom}
	})
	if !errors.Is(err, errBoom) {
		t.Errorf("Should return last error: %v", err)
	}
	if calls != 3 {
		t.Errorf("Should stop at the attempt bound: %d", calls)
	}
}

func TestRetryUnbounded(t *testing.T) {
	// attempts <= 0 keeps retrying until success
	calls := 0
	err := Retry(context.Background(), 0, time.Millisecond, func() error {
		calls++
		if calls < 7 {
			return &RetryableError{Err: errBoom}
		}
		return nil
	})
	if err != nil {
		t.Errorf("Should succeed eventually: %v", err)
	}
	if calls != 7 {
		t.Errorf("Should call seven times: %d", calls)
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	err := Retry(ctx, 0, time.Millisecond, func() error {
		return &RetryableError{Err: errBoom}
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}

func TestRetryableErrorUnwrap(t *testing.T) {
	err := &RetryableError{Err: errBoom}
	if !errors.Is(err, errBoom) {
		t.Error("RetryableError should unwrap to the cause")
	}
	if err.Error() != errBoom.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
}

func TestRetryWithBackoffDefaults(t *testing.T) {
	calls := 0
	err := RetryWithBackoff(context.Background(), func() error {
		calls++
		return errBoom
	})
	if err != errBoom {
		t.Errorf("Should return non-retryable error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Should call once: %d", calls)
	}
}
