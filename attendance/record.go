// Package attendance implements the attendance recording and reconciliation
// engine: status classification, idempotent recording of scans, and the
// day's-end absence sweep. The record store and the course directory are
// injected dependencies; the package holds no global state.
package attendance

import (
	"fmt"
	"time"
)

// Status classifies an attendance record. The set is closed; consumers
// switch exhaustively so that adding a status is a compile-visible change.
type Status string

const (
	StatusPresent Status = "present"
	StatusLate    Status = "late"
	StatusAbsent  Status = "absent"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusLate, StatusAbsent:
		return true
	}
	return false
}

// DayLayout is the wire and storage form of a Day.
const DayLayout = "2006-01-02"

// Day is a calendar date (YYYY-MM-DD). Record uniqueness is enforced at day
// granularity, not timestamp granularity.
type Day string

// DayOf returns the Day containing t, in t's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

// Key identifies at most one attendance record: one participant, one
// session, one day.
type Key struct {
	ParticipantID string
	SessionID     string
	Day           Day
}

// Record is a single attendance fact. Records are append-only: created
// exactly once, by the Recorder or the Sweeper, and never mutated.
type Record struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participant_id"`
	SessionID     string    `json:"session_id"`
	Day           Day       `json:"day"`
	RecordedAt    time.Time `json:"recorded_at"`
	Status        Status    `json:"status"`
}

// Key returns the uniqueness key for r.
func (r Record) Key() Key {
	return Key{ParticipantID: r.ParticipantID, SessionID: r.SessionID, Day: r.Day}
}
