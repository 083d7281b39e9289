package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SweepReport summarises one reconciliation run.
type SweepReport struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

// Sweeper synthesises absence records for enrolled participants who never
// recorded presence for a session/day. It writes through the same atomic
// path as the Recorder, so a sweep racing a scan cannot double-write.
type Sweeper struct {
	store Store
	now   func() time.Time
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithClock overrides the sweep timestamp source. For tests.
func WithClock(now func() time.Time) SweeperOption {
	return func(s *Sweeper) {
		s.now = now
	}
}

// NewSweeper creates a Sweeper writing through store.
func NewSweeper(store Store, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sweep attempts an absent record for every participant in roster under
// (sessionID, day). Keys that already hold a record of any status are
// skipped, never overwritten, so re-running a sweep is a no-op that reports
// everything as skipped.
func (s *Sweeper) Sweep(ctx context.Context, sessionID string, day Day, roster []string) (SweepReport, error) {
	var report SweepReport
	sweepTime := s.now()
	for _, participantID := range roster {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		rec := Record{
			ID:            uuid.NewString(),
			ParticipantID: participantID,
			SessionID:     sessionID,
			Day:           day,
			RecordedAt:    sweepTime,
			Status:        StatusAbsent,
		}
		inserted, err := s.store.InsertIfAbsent(ctx, rec)
		if err != nil {
			return report, fmt.Errorf("sweeping %s/%s for %s: %w", sessionID, day, participantID, err)
		}
		if inserted {
			report.Created++
		} else {
			report.Skipped++
		}
	}
	return report, nil
}
