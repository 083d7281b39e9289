package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tebraouisamy/presence-app/token"
)

// Recorder validates incoming scans and commits attendance records.
type Recorder struct {
	store     Store
	directory Directory
	codec     *token.Codec
	grace     time.Duration
}

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithGrace overrides the on-time grace window (default DefaultGrace).
func WithGrace(grace time.Duration) RecorderOption {
	return func(r *Recorder) {
		r.grace = grace
	}
}

// NewRecorder creates a Recorder writing through store, resolving schedules
// from directory, and verifying tokens with codec.
func NewRecorder(store Store, directory Directory, codec *token.Codec, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:     store,
		directory: directory,
		codec:     codec,
		grace:     DefaultGrace,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record validates encoded against the target session and commits a new
// attendance record for participantID at now. The status is computed from
// now against the session's scheduled start; callers never choose it.
//
// The record's day is the calendar day of now in now's location. Callers
// should supply now in the directory's timezone, or a scan near midnight
// classifies against a neighbouring day's session start.
//
// The check-and-insert is a single atomic store operation: of concurrent
// scans and sweeps racing on the same (participant, session, day) key,
// exactly one writer wins and the rest observe ErrAlreadyRecorded.
func (r *Recorder) Record(ctx context.Context, encoded, participantID, sessionID string, now time.Time) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tok, err := r.codec.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if tok.Expired(now) {
		return nil, fmt.Errorf("%w: expired at %s", ErrInvalidToken, tok.ExpiresAt().Format(time.RFC3339))
	}
	if tok.SessionID != sessionID {
		return nil, &SessionMismatchError{TokenSessionID: tok.SessionID, WantSessionID: sessionID}
	}

	day := DayOf(now)
	start, err := r.directory.SessionStart(ctx, sessionID, day)
	if err != nil {
		return nil, fmt.Errorf("%w: session start for %s: %v", ErrDirectoryUnavailable, sessionID, err)
	}

	rec := Record{
		ID:            uuid.NewString(),
		ParticipantID: participantID,
		SessionID:     sessionID,
		Day:           day,
		RecordedAt:    now,
		Status:        Classify(now, start, r.grace),
	}
	inserted, err := r.store.InsertIfAbsent(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("committing attendance record: %w", err)
	}
	if !inserted {
		return nil, ErrAlreadyRecorded
	}
	return &rec, nil
}
