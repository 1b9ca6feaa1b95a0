package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	transient := &RetryableError{Err: errors.New("502")}
	permanent := errors.New("400")

	tests := []struct {
		name      string
		attempts  int
		errs      []error // returned per call, nil once exhausted
		wantCalls int
		wantErr   error
	}{
		{"first try", 3, nil, 1, nil},
		{"recovers", 3, []error{transient, transient}, 3, nil},
		{"gives up", 3, []error{transient, transient, transient, transient}, 3, transient},
		{"permanent", 3, []error{permanent}, 1, permanent},
		{"zero attempts runs once", 0, []error{transient}, 1, transient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), tt.attempts, time.Millisecond, func() error {
				defer func() { calls++ }()
				if calls < len(tt.errs) {
					return tt.errs[calls]
				}
				return nil
			})
			if !errors.Is(err, tt.wantErr) && err != tt.wantErr {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}

func TestRetryHonorsAfter(t *testing.T) {
	start := time.Now()
	calls := 0
	err := Retry(context.Background(), 2, time.Hour, func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errors.New("503"), After: 10 * time.Millisecond}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("waited %v, want the server's 10ms instead of the 1h backoff", elapsed)
	}
}

func TestRetryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("502")}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestPermanent(t *testing.T) {
	inner := errors.New("502")
	if got := Permanent(&RetryableError{Err: inner}); got != inner {
		t.Errorf("Permanent(retryable) = %v, want inner error", got)
	}
	if got := Permanent(inner); got != inner {
		t.Errorf("Permanent(plain) = %v, want unchanged", got)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		header string
		want   time.Duration
	}{
		{"", 0},
		{"3", 3 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{"Wed, 21 Oct 2015 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.header != "" {
			h.Set("Retry-After", tt.header)
		}
		if got := RetryAfter(h); got != tt.want {
			t.Errorf("RetryAfter(%q) = %v, want %v", tt.header, got, tt.want)
		}
	}
}
