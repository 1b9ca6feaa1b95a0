package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidShape, "unknown shape %q", "blob")
	if err.Code != ErrCodeInvalidShape || err.Message != `unknown shape "blob"` {
		t.Fatalf("New() = %+v", err)
	}
	if got, want := err.Error(), `INVALID_SHAPE: unknown shape "blob"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeUpstream, cause, "upload blob")

	if err.Cause != cause || errors.Unwrap(err) != cause {
		t.Errorf("cause not preserved: %+v", err)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should see through Wrap")
	}
	if got := err.Error(); got != "UPSTREAM: upload blob: connection reset" {
		t.Errorf("Error() = %q", got)
	}
}

func TestIs(t *testing.T) {
	rotation := New(ErrCodeInvalidRotation, "out of range")
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"same code", rotation, ErrCodeInvalidRotation, true},
		{"other code", rotation, ErrCodeInvalidColor, false},
		{"outer code of a chain", Wrap(ErrCodeUpstream, rotation, "publish"), ErrCodeUpstream, true},
		{"fmt wrapped", fmt.Errorf("render: %w", rotation), ErrCodeInvalidRotation, true},
		{"plain error", errors.New("plain"), ErrCodeInvalidRotation, false},
		{"nil", nil, ErrCodeInvalidRotation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidShape, "test"),
			expected: ErrCodeInvalidShape,
		},
		{
			name:     "rate limited",
			err:      fmt.Errorf("publish: %w", &RateLimitedError{RetryAfter: 5}),
			expected: ErrCodeRateLimited,
		},
		{
			name:     "plain error",
			err:      errors.New("plain"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "Error type",
			err:      New(ErrCodeInvalidInput, "friendly message"),
			expected: "friendly message",
		},
		{
			name:     "plain error",
			err:      errors.New("plain error"),
			expected: "plain error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRateLimitedError(t *testing.T) {
	t.Run("with retry after", func(t *testing.T) {
		err := &RateLimitedError{RetryAfter: 60}
		expected := "rate limited: retry after 60 seconds"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("without retry after", func(t *testing.T) {
		err := &RateLimitedError{}
		expected := "rate limited"
		if err.Error() != expected {
			t.Errorf("Error() = %v, want %v", err.Error(), expected)
		}
	})

	t.Run("code method", func(t *testing.T) {
		err := &RateLimitedError{}
		if err.Code() != ErrCodeRateLimited {
			t.Errorf("Code() = %v, want %v", err.Code(), ErrCodeRateLimited)
		}
	})
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", New(ErrCodeInvalidColor, "bad"), http.StatusBadRequest},
		{"path", Wrap(ErrCodeInvalidPath, errors.New("syntax"), "shape"), http.StatusBadRequest},
		{"unauthorized", New(ErrCodeUnauthorized, "no DID"), http.StatusUnauthorized},
		{"rate limited", &RateLimitedError{RetryAfter: 12}, http.StatusTooManyRequests},
		{"upstream with status", Upstream(errors.New("boom"), http.StatusServiceUnavailable, "upload"), http.StatusServiceUnavailable},
		{"upstream rate limit", Upstream(errors.New("slow down"), http.StatusTooManyRequests, "upload"), http.StatusServiceUnavailable},
		{"upstream without status", Upstream(errors.New("dial"), 0, "upload"), http.StatusBadGateway},
		{"upstream 2xx status", &Error{Code: ErrCodeUpstream, Status: 200}, http.StatusInternalServerError},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	err := fmt.Errorf("publish: %w", &RateLimitedError{RetryAfter: 60})
	secs, ok := RetryAfterSeconds(err)
	if !ok || secs != 60 {
		t.Errorf("RetryAfterSeconds() = %d, %v, want 60, true", secs, ok)
	}
	if _, ok := RetryAfterSeconds(errors.New("other")); ok {
		t.Error("RetryAfterSeconds should report false for other errors")
	}
}
