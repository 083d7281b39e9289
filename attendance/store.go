package attendance

import "context"

// Filter narrows List results. Zero-valued fields match everything.
type Filter struct {
	ParticipantID string
	SessionID     string
	Day           Day
	Status        Status
}

// Matches reports whether r satisfies every set field of f.
func (f Filter) Matches(r Record) bool {
	if f.ParticipantID != "" && r.ParticipantID != f.ParticipantID {
		return false
	}
	if f.SessionID != "" && r.SessionID != f.SessionID {
		return false
	}
	if f.Day != "" && r.Day != f.Day {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// Store is the durable attendance record store. Implementations must make
// InsertIfAbsent atomic with respect to concurrent writers on the same key:
// of any number of racing inserts, exactly one wins. Atomicity is per key;
// no ordering across different keys is required.
type Store interface {
	// InsertIfAbsent writes rec unless a record already exists under
	// rec.Key(). It returns true if the record was inserted and false if
	// the key was already taken. Existing records are never overwritten.
	InsertIfAbsent(ctx context.Context, rec Record) (bool, error)

	// Get returns the record stored under key, or ErrNotFound.
	Get(ctx context.Context, key Key) (*Record, error)

	// List returns a read-only snapshot of the records matching f, ordered
	// by recording time.
	List(ctx context.Context, f Filter) ([]Record, error)

	// Clear removes every record. Destructive and irreversible; callers
	// gate it behind explicit confirmation.
	Clear(ctx context.Context) error
}
