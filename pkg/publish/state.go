package publish

import (
	"fmt"
	"strings"
)

// State is a step of the publish state machine:
//
//	Idle → CooldownCheck → Blocked
//	                     → Proceed → Uploading → ProfileUpdating → ArchiveAppending → Done
type State string

const (
	Idle             State = "idle"
	CooldownCheck    State = "cooldown_check"
	Blocked          State = "blocked"
	Proceed          State = "proceed"
	Uploading        State = "uploading"
	ProfileUpdating  State = "profile_updating"
	ArchiveAppending State = "archive_appending"
	Done             State = "done"
)

// CooldownSource selects where the last-update time comes from.
type CooldownSource string

const (
	// SourceProfile uses the profile's indexedAt timestamp. It moves on any
	// profile edit, not only avatar changes.
	SourceProfile CooldownSource = "profile"

	// SourceArchive uses createdAt of the newest archive record, which only
	// moves when an avatar is published here.
	SourceArchive CooldownSource = "archive"
)

// ParseCooldownSource parses a configured source name. Empty means profile.
func ParseCooldownSource(s string) (CooldownSource, error) {
	switch CooldownSource(strings.ToLower(strings.TrimSpace(s))) {
	case "", SourceProfile:
		return SourceProfile, nil
	case SourceArchive:
		return SourceArchive, nil
	}
	return "", fmt.Errorf("unknown cooldown source %q (want %s or %s)", s, SourceProfile, SourceArchive)
}

// StageError reports a publish that failed after the cooldown check.
// Stages in Committed were written to the service and were not undone.
type StageError struct {
	Stage     State
	Committed []State
	Err       error
}

func (e *StageError) Error() string {
	if len(e.Committed) == 0 {
		return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
	}
	names := make([]string, len(e.Committed))
	for i, s := range e.Committed {
		names[i] = string(s)
	}
	return fmt.Sprintf("%s failed after %s: %v", e.Stage, strings.Join(names, ", "), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Partial reports whether some writes were committed before the failure.
func (e *StageError) Partial() bool { return len(e.Committed) > 0 }
