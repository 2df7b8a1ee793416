package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"testing"
	"testing/synctest"
	"time"
)

func TestRetryWithBackoff_SuccessAfterRetries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		callCount := 0
		start := time.Now()

		err := retryWithBackoff(context.Background(), "test op", func() error {
			callCount++
			if callCount < 3 {
				return syscall.EBUSY
			}
			return nil
		})

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if callCount != 3 {
			t.Errorf("callCount = %d, want 3", callCount)
		}
		// 500ms then 1s
		if elapsed := time.Since(start); elapsed != 1500*time.Millisecond {
			t.Errorf("elapsed = %v, want 1.5s", elapsed)
		}
	})
}

func TestRetryWithBackoff_ExhaustsRetries(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		var callTimes []time.Time

		err := retryWithBackoff(context.Background(), "test op", func() error {
			callTimes = append(callTimes, time.Now())
			return &os.PathError{Op: "rename", Path: "/x", Err: syscall.ETXTBSY}
		})

		if !errors.Is(err, syscall.ETXTBSY) {
			t.Fatalf("expected wrapped ETXTBSY, got %v", err)
		}
		if len(callTimes) != 1+maxRetries {
			t.Fatalf("expected %d calls, got %d", 1+maxRetries, len(callTimes))
		}

		want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
		for i, w := range want {
			if got := callTimes[i+1].Sub(callTimes[i]); got != w {
				t.Errorf("delay %d = %v, want %v", i+1, got, w)
			}
		}
	})
}

func TestRetryWithBackoff_NonRetryableError(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		callCount := 0

		err := retryWithBackoff(context.Background(), "test op", func() error {
			callCount++
			return ErrDestinationExists
		})

		if !errors.Is(err, ErrDestinationExists) {
			t.Fatalf("expected ErrDestinationExists, got %v", err)
		}
		if callCount != 1 {
			t.Errorf("callCount = %d, want 1 (no retry on non-retryable error)", callCount)
		}
	})
}

func TestRetryWithBackoff_ContextCancellation(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		callCount := 0

		done := make(chan error)
		go func() {
			done <- retryWithBackoff(ctx, "test op", func() error {
				callCount++
				return syscall.EAGAIN
			})
		}()

		// Cancel during the first backoff wait
		time.Sleep(100 * time.Millisecond)
		synctest.Wait()
		cancel()

		err := <-done
		if !errors.Is(err, syscall.EAGAIN) {
			t.Fatalf("expected last error in chain, got %v", err)
		}
		if callCount != 1 {
			t.Errorf("callCount = %d, want 1", callCount)
		}
	})
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"nil error", nil, false},
		{"busy", syscall.EBUSY, true},
		{"again", syscall.EAGAIN, true},
		{"text file busy", &os.PathError{Op: "open", Path: "/a", Err: syscall.ETXTBSY}, true},
		{"interrupted", fmt.Errorf("copy: %w", syscall.EINTR), true},
		{"deadline", os.ErrDeadlineExceeded, true},
		{"not found", &os.PathError{Op: "open", Path: "/a", Err: syscall.ENOENT}, false},
		{"exists", ErrDestinationExists, false},
		{"plain", errors.New("invalid argument"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableError(tt.err); got != tt.retryable {
				t.Errorf("isRetryableError(%v) = %v, want %v", tt.err, got, tt.retryable)
			}
		})
	}
}
