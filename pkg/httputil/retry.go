package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// MaxDelay caps the wait between two attempts, including waits requested by
// the server.
const MaxDelay = 30 * time.Second

// RetryableError marks a failure as transient. After, when positive, is the
// wait the server asked for and replaces the backoff delay for that attempt.
type RetryableError struct {
	Err   error
	After time.Duration
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// Retry executes fn up to attempts times. Only errors wrapped with
// [RetryableError] are retried; others are returned immediately. The delay
// doubles after each failed attempt up to [MaxDelay]. Returns the last error
// if all attempts fail, or ctx.Err() if cancelled while waiting.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error) error {
	attempts = max(attempts, 1)
	var lastErr error

	for i := range attempts {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		var re *RetryableError
		if !errors.As(err, &re) {
			return err
		}
		if i == attempts-1 {
			break
		}

		wait := delay
		if re.After > 0 {
			wait = re.After
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(min(wait, MaxDelay)):
		}
		delay = min(delay*2, MaxDelay)
	}
	return lastErr
}

// Permanent strips a [RetryableError] wrapper so callers outside the retry
// loop see the underlying failure.
func Permanent(err error) error {
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Err
	}
	return err
}

// RetryAfter parses a Retry-After header given in seconds. HTTP dates and
// malformed values yield zero.
func RetryAfter(h http.Header) time.Duration {
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
