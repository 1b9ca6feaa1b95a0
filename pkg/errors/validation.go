package errors

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// colorRegex matches a 6-hex-digit RGB color such as "#1a2B3c".
var colorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// ValidateColor checks that color is a 6-hex-digit RGB string.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return New(ErrCodeInvalidColor, "invalid color %q (must match #RRGGBB)", color)
	}
	return nil
}

// ValidateRotation checks that rotation is a finite number in [0, 360).
func ValidateRotation(rotation float64) error {
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		return New(ErrCodeInvalidRotation, "rotation must be a finite number")
	}
	if rotation < 0 || rotation >= 360 {
		return New(ErrCodeInvalidRotation, "rotation %g out of range [0, 360)", rotation)
	}
	return nil
}

// ValidateKey validates an asset or shape key for safety.
// Keys are looked up in fixed tables or file systems, so they must be simple
// lowercase identifiers without path components.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - Maximum length of 64 characters
//   - No control characters
//   - No path separators or traversal sequences
func ValidateKey(code Code, kind, key string) error {
	if key == "" {
		return New(code, "%s is required", kind)
	}
	if len(key) > 64 {
		return New(code, "%s too long (max 64 characters)", kind)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(code, "%s contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return New(code, "%s contains invalid characters: %q", kind, key)
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
