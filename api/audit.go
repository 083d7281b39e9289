package api

import (
	"log/slog"
	"net/http"

	"github.com/tebraouisamy/presence-app/attendance"
)

// AuditEvent identifies the type of attendance-relevant action being logged.
type AuditEvent string

const (
	AuditScanRecorded      AuditEvent = "scan_recorded"
	AuditScanRejected      AuditEvent = "scan_rejected"
	AuditSweepCompleted    AuditEvent = "sweep_completed"
	AuditTokenIssued       AuditEvent = "token_issued"
	AuditAttendanceCleared AuditEvent = "attendance_cleared"
)

// auditLogger wraps slog.Logger for structured audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

func (al *auditLogger) scanRecorded(r *http.Request, rec *attendance.Record) {
	al.log(AuditScanRecorded, r,
		slog.String("participant_id", rec.ParticipantID),
		slog.String("course_id", rec.SessionID),
		slog.String("day", string(rec.Day)),
		slog.String("status", string(rec.Status)),
	)
}

func (al *auditLogger) scanRejected(r *http.Request, participantID, courseID string, err error) {
	al.log(AuditScanRejected, r,
		slog.String("participant_id", participantID),
		slog.String("course_id", courseID),
		slog.String("reason", err.Error()),
	)
}

func (al *auditLogger) sweepCompleted(r *http.Request, courseID string, day attendance.Day, report attendance.SweepReport) {
	al.log(AuditSweepCompleted, r,
		slog.String("course_id", courseID),
		slog.String("day", string(day)),
		slog.Int("created", report.Created),
		slog.Int("skipped", report.Skipped),
	)
}

func (al *auditLogger) tokenIssued(r *http.Request, courseID string) {
	al.log(AuditTokenIssued, r,
		slog.String("course_id", courseID),
	)
}

func (al *auditLogger) attendanceCleared(r *http.Request) {
	al.log(AuditAttendanceCleared, r)
}
