// Package api implements the REST surface over the attendance engine.
package api

import (
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/token"
)

// API holds the dependencies needed by the REST handlers.
type API struct {
	store     attendance.Store
	directory attendance.Directory
	codec     *token.Codec
	recorder  *attendance.Recorder
	sweeper   *attendance.Sweeper
	audit     *auditLogger
	grace     time.Duration
	now       func() time.Time
}

// Option configures the API instance.
type Option func(*API)

// WithLogger sets the structured logger for audit events.
// If not set, a default JSON logger writing to stderr is used.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.audit = newAuditLogger(logger)
	}
}

// WithGrace overrides the on-time grace window used to classify scans.
func WithGrace(grace time.Duration) Option {
	return func(a *API) {
		a.grace = grace
	}
}

// WithClock overrides the time source. For tests.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// New creates a new API instance over the given store, course directory,
// and token codec.
func New(store attendance.Store, directory attendance.Directory, codec *token.Codec, opts ...Option) *API {
	a := &API{
		store:     store,
		directory: directory,
		codec:     codec,
		grace:     attendance.DefaultGrace,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.recorder = attendance.NewRecorder(store, directory, codec, attendance.WithGrace(a.grace))
	a.sweeper = attendance.NewSweeper(store, attendance.WithClock(a.now))
	if a.audit == nil {
		a.audit = newAuditLogger(slog.New(slog.NewJSONHandler(os.Stderr, nil)))
	}
	return a
}

// Router returns a chi.Router with all API routes mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.With(a.IdentityMiddleware).Post("/scan", a.Scan)

	r.Post("/sweep", a.Sweep)
	r.Post("/tokens", a.IssueToken)

	r.Get("/attendance", a.ListAttendance)
	r.Get("/attendance/export", a.ExportAttendance)
	r.Delete("/attendance", a.ClearAttendance)

	r.Get("/participants/{participantID}/absences", a.ParticipantAbsences)
	r.Get("/courses", a.ListCourses)

	return r
}
