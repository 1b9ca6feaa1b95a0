// Package errors provides structured error types for skyavatar.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP API
//   - Machine-readable error codes for programmatic handling
//   - A single mapping from error codes to HTTP status codes
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input validation failures (HTTP 400)
//   - UNAUTHORIZED: The account identity could not be resolved (HTTP 401)
//   - RATE_LIMITED: The publish cooldown is active (HTTP 429)
//   - UPSTREAM: The identity/repository service failed (upstream status or 500)
//   - INTERNAL: Unexpected internal errors (HTTP 500)
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidColor, "invalid color %q", color)
//	if errors.Is(err, errors.ErrCodeInvalidColor) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeUpstream, origErr, "upload blob")
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidBackground Code = "INVALID_BACKGROUND"
	ErrCodeInvalidColor      Code = "INVALID_COLOR"
	ErrCodeInvalidRotation   Code = "INVALID_ROTATION"
	ErrCodeInvalidShape      Code = "INVALID_SHAPE"
	ErrCodeInvalidAsset      Code = "INVALID_ASSET"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Authentication errors
	ErrCodeUnauthorized Code = "UNAUTHORIZED"

	// Rate limiting
	ErrCodeRateLimited Code = "RATE_LIMITED"

	// External service errors
	ErrCodeUpstream Code = "UPSTREAM"
	ErrCodeNetwork  Code = "NETWORK_ERROR"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	// Status is the HTTP status reported by an upstream service, if any.
	// Zero means the status is derived from Code.
	Status int
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Upstream wraps an error returned by the identity/repository service.
// status is the upstream HTTP status, or 0 when none was received.
func Upstream(cause error, status int, format string, args ...any) *Error {
	code := ErrCodeUpstream
	if status == 0 {
		code = ErrCodeNetwork
	}
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
		Status:  status,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return ErrCodeRateLimited
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsValidation reports whether err is an input validation failure.
func IsValidation(err error) bool {
	switch GetCode(err) {
	case ErrCodeInvalidInput, ErrCodeInvalidBackground, ErrCodeInvalidColor,
		ErrCodeInvalidRotation, ErrCodeInvalidShape, ErrCodeInvalidAsset, ErrCodeInvalidPath:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.Error()
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// HTTPStatus maps an error to the HTTP status code reported to callers.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if IsValidation(err) {
		return http.StatusBadRequest
	}
	switch GetCode(err) {
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeNetwork:
		return http.StatusBadGateway
	case ErrCodeUpstream:
		var e *Error
		if errors.As(err, &e) && e.Status == http.StatusTooManyRequests {
			// 429 is reserved for the local cooldown
			return http.StatusServiceUnavailable
		}
		if errors.As(err, &e) && e.Status >= 400 && e.Status <= 599 {
			return e.Status
		}
	}
	return http.StatusInternalServerError
}

// RateLimitedError provides additional information for rate-limited responses.
type RateLimitedError struct {
	RetryAfter int // Seconds to wait before retrying
	Message    string
}

// Error implements the error interface.
func (e *RateLimitedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited: retry after %d seconds", e.RetryAfter)
	}
	return "rate limited"
}

// Code returns the error code for this error type.
func (e *RateLimitedError) Code() Code {
	return ErrCodeRateLimited
}

// RetryAfterSeconds extracts the retry delay from a rate-limited error.
func RetryAfterSeconds(err error) (int, bool) {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
