package attendance

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidToken indicates a token that is malformed, fails integrity
	// verification, or has expired. Terminal; re-scanning is the only fix.
	ErrInvalidToken = errors.New("invalid token")
	// ErrSessionMismatch indicates the token was issued for a different
	// session than the one being scanned.
	ErrSessionMismatch = errors.New("token issued for a different session")
	// ErrAlreadyRecorded indicates attendance already exists for the
	// participant, session, and day. Expected under normal operation
	// (duplicate scans, a scan racing a sweep); never results in a write.
	ErrAlreadyRecorded = errors.New("attendance already recorded")
	// ErrDirectoryUnavailable indicates the course directory could not
	// answer. Retriable with backoff by the caller; the engine itself never
	// retries.
	ErrDirectoryUnavailable = errors.New("course directory unavailable")
	// ErrStoreUnavailable indicates the attendance store failed during a
	// read or the atomic write. Retriable with backoff by the caller.
	ErrStoreUnavailable = errors.New("attendance store unavailable")
	// ErrNotFound indicates no record exists under the requested key.
	ErrNotFound = errors.New("attendance record not found")
)

// SessionMismatchError reports a token presented against the wrong session.
// It matches ErrSessionMismatch under errors.Is and carries both session IDs
// so callers can point the user at the right scan target.
type SessionMismatchError struct {
	TokenSessionID string
	WantSessionID  string
}

func (e *SessionMismatchError) Error() string {
	return fmt.Sprintf("token issued for session %s, not %s", e.TokenSessionID, e.WantSessionID)
}

func (e *SessionMismatchError) Is(target error) bool {
	return target == ErrSessionMismatch
}
