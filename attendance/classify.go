package attendance

import "time"

// DefaultGrace is the on-time window after session start used when a
// deployment does not configure its own.
const DefaultGrace = 15 * time.Minute

// Classify maps a recording time against the session's scheduled start.
// Arrivals at or before start+grace are present, including early arrivals;
// anything later is late. Pure and total. Absence is never produced here,
// only by the Sweeper.
func Classify(recordedAt, sessionStart time.Time, grace time.Duration) Status {
	if recordedAt.Sub(sessionStart) <= grace {
		return StatusPresent
	}
	return StatusLate
}
