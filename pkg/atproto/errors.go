package atproto

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by [XRPCError.Is].
var (
	// ErrNotFound matches missing records and unknown actors.
	ErrNotFound = stderrors.New("not found")

	// ErrInvalidSwap matches a putRecord whose swapRecord CID is stale.
	ErrInvalidSwap = stderrors.New("record changed concurrently")

	// ErrAuth matches authentication failures.
	ErrAuth = stderrors.New("authentication failed")
)

// XRPCError is an error response from the service.
type XRPCError struct {
	Status  int    // HTTP status
	Name    string // XRPC error name, e.g. "RecordNotFound"
	Message string
	Method  string // NSID of the failed call
}

func (e *XRPCError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %d %s: %s", e.Method, e.Status, e.Name, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Method, e.Status)
}

// Is maps service error names onto the package sentinels.
func (e *XRPCError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound || e.Name == "RecordNotFound" || e.Name == "NotFound"
	case ErrInvalidSwap:
		return e.Name == "InvalidSwap"
	case ErrAuth:
		return e.Status == http.StatusUnauthorized || e.Name == "AuthenticationRequired" ||
			e.Name == "AuthFactorTokenRequired" || e.Name == "AccountTakedown"
	}
	return false
}

// expiredToken reports whether the access token needs a refresh.
func (e *XRPCError) expiredToken() bool {
	return e.Name == "ExpiredToken" || e.Name == "InvalidToken"
}
