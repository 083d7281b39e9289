package api

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/token"
)

// defaultTokenValidity is applied when an issue request does not name one.
const defaultTokenValidity = 60 * time.Minute

// Scan handles POST /scan. It records attendance for the authenticated
// participant against the course named in the request, validating the
// presented session token on the way.
func (a *API) Scan(w http.ResponseWriter, r *http.Request) {
	participantID := participantFromContext(r.Context())

	req, ok := decodeJSON[ScanRequest](w, r)
	if !ok {
		return
	}
	if req.Token == "" || req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "token and course_id are required")
		return
	}

	rec, err := a.recorder.Record(r.Context(), req.Token, participantID, req.CourseID, a.now())
	if err != nil {
		a.audit.scanRejected(r, participantID, req.CourseID, err)

		var mismatch *attendance.SessionMismatchError
		switch {
		case errors.As(err, &mismatch):
			writeError(w, http.StatusConflict, a.mismatchMessage(r.Context(), mismatch))
		case errors.Is(err, attendance.ErrAlreadyRecorded):
			writeError(w, http.StatusConflict, "attendance already recorded for this course today")
		default:
			mapError(w, err)
		}
		return
	}

	a.audit.scanRecorded(r, rec)
	writeJSON(w, http.StatusCreated, ScanResponse{
		RecordID: rec.ID,
		Status:   string(rec.Status),
		Message:  scanMessage(rec.Status),
	})
}

// mismatchMessage resolves course names so the user is pointed at the right
// scan target. Name lookups are best-effort; IDs are used when the
// directory cannot resolve them.
func (a *API) mismatchMessage(ctx context.Context, mismatch *attendance.SessionMismatchError) string {
	tokenCourse := mismatch.TokenSessionID
	if name, err := a.directory.CourseName(ctx, mismatch.TokenSessionID); err == nil {
		tokenCourse = name
	}
	wantCourse := mismatch.WantSessionID
	if name, err := a.directory.CourseName(ctx, mismatch.WantSessionID); err == nil {
		wantCourse = name
	}
	return fmt.Sprintf("this code is for %s; please scan the code for %s", tokenCourse, wantCourse)
}

func scanMessage(s attendance.Status) string {
	switch s {
	case attendance.StatusPresent:
		return "attendance recorded"
	case attendance.StatusLate:
		return "attendance recorded (late)"
	case attendance.StatusAbsent:
		return "absence recorded"
	}
	return "attendance recorded"
}

// Sweep handles POST /sweep. It fetches the course roster from the
// directory and synthesizes absent records for everyone without a record
// for the day. Safe to invoke repeatedly for the same course/day.
func (a *API) Sweep(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[SweepRequest](w, r)
	if !ok {
		return
	}
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "course_id is required")
		return
	}

	day := attendance.DayOf(a.now())
	if req.Day != "" {
		var err error
		day, err = attendance.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	roster, err := a.directory.Roster(r.Context(), req.CourseID)
	if err != nil {
		mapError(w, fmt.Errorf("%w: roster for %s: %v", attendance.ErrDirectoryUnavailable, req.CourseID, err))
		return
	}

	report, err := a.sweeper.Sweep(r.Context(), req.CourseID, day, roster)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.sweepCompleted(r, req.CourseID, day, report)
	writeJSON(w, http.StatusOK, SweepResponse{
		CourseID: req.CourseID,
		Day:      string(day),
		Created:  report.Created,
		Skipped:  report.Skipped,
	})
}

// IssueToken handles POST /tokens. Token issuance sits with the course
// staff UI; the engine only signs what it is asked to.
func (a *API) IssueToken(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeJSON[IssueTokenRequest](w, r)
	if !ok {
		return
	}
	if req.CourseID == "" {
		writeError(w, http.StatusBadRequest, "course_id is required")
		return
	}

	// Tokens are only signed for catalog courses.
	if _, err := a.directory.CourseName(r.Context(), req.CourseID); err != nil {
		mapError(w, fmt.Errorf("%w: course %s: %v", attendance.ErrNotFound, req.CourseID, err))
		return
	}

	validity := defaultTokenValidity
	if req.ValidForMinutes > 0 {
		validity = time.Duration(req.ValidForMinutes) * time.Minute
	}

	tok := token.Token{
		SessionID: req.CourseID,
		IssuedAt:  a.now(),
		ValidFor:  validity,
	}
	encoded, err := a.codec.Encode(tok)
	if err != nil {
		mapError(w, err)
		return
	}

	a.audit.tokenIssued(r, req.CourseID)
	writeJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:     encoded,
		CourseID:  req.CourseID,
		ExpiresAt: tok.ExpiresAt().UTC().Format(time.RFC3339),
	})
}

// filterFromQuery builds a record filter from list/export query parameters.
func filterFromQuery(r *http.Request) (attendance.Filter, error) {
	q := r.URL.Query()
	f := attendance.Filter{
		ParticipantID: q.Get("participant_id"),
		SessionID:     q.Get("course_id"),
	}
	if v := q.Get("day"); v != "" {
		day, err := attendance.ParseDay(v)
		if err != nil {
			return attendance.Filter{}, err
		}
		f.Day = day
	}
	if v := q.Get("status"); v != "" {
		status := attendance.Status(v)
		if !status.Valid() {
			return attendance.Filter{}, fmt.Errorf("unknown status %q", v)
		}
		f.Status = status
	}
	return f, nil
}

func toAPIRecord(rec attendance.Record) AttendanceRecord {
	return AttendanceRecord{
		ID:            rec.ID,
		ParticipantID: rec.ParticipantID,
		CourseID:      rec.SessionID,
		Day:           string(rec.Day),
		RecordedAt:    rec.RecordedAt.UTC().Format(time.RFC3339),
		Status:        string(rec.Status),
	}
}

// ListAttendance handles GET /attendance: a filtered, paginated, read-only
// snapshot of the store.
func (a *API) ListAttendance(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.store.List(r.Context(), f)
	if err != nil {
		mapError(w, err)
		return
	}

	start, end, meta := pageFromQuery(r).window(len(records))

	page := make([]AttendanceRecord, 0, end-start)
	for _, rec := range records[start:end] {
		page = append(page, toAPIRecord(rec))
	}
	writeJSON(w, http.StatusOK, ListAttendanceResponse{Records: page, Meta: meta})
}

func statusLabel(s attendance.Status) string {
	switch s {
	case attendance.StatusPresent:
		return "Present"
	case attendance.StatusLate:
		return "Late"
	case attendance.StatusAbsent:
		return "Absent"
	}
	return string(s)
}

// ExportAttendance handles GET /attendance/export. Formatting lives here at
// the edge; the engine only supplies the snapshot.
func (a *API) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	f, err := filterFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := a.store.List(r.Context(), f)
	if err != nil {
		mapError(w, err)
		return
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "json":
		out := make([]AttendanceRecord, 0, len(records))
		for _, rec := range records {
			out = append(out, toAPIRecord(rec))
		}
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.json"`)
		writeJSON(w, http.StatusOK, out)
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
		cw := csv.NewWriter(w)
		cw.Write([]string{"ID", "Participant", "Course", "Day", "Recorded At", "Status"})
		for _, rec := range records {
			cw.Write([]string{
				rec.ID,
				rec.ParticipantID,
				rec.SessionID,
				string(rec.Day),
				rec.RecordedAt.UTC().Format(time.RFC3339),
				statusLabel(rec.Status),
			})
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown export format %q", format))
	}
}

// confirmResetHeader must be set to "true" for DELETE /attendance to run.
const confirmResetHeader = "X-Confirm-Reset"

// ClearAttendance handles DELETE /attendance: the administrative
// whole-store reset. Destructive and irreversible, so it demands explicit
// confirmation.
func (a *API) ClearAttendance(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get(confirmResetHeader) != "true" {
		writeError(w, http.StatusBadRequest, confirmResetHeader+" header must be set to \"true\"")
		return
	}
	if err := a.store.Clear(r.Context()); err != nil {
		mapError(w, err)
		return
	}
	a.audit.attendanceCleared(r)
	w.WriteHeader(http.StatusNoContent)
}

// ParticipantAbsences handles GET /participants/{participantID}/absences:
// absence counts per course, with every known course present in the result.
func (a *API) ParticipantAbsences(w http.ResponseWriter, r *http.Request) {
	participantID := chi.URLParam(r, "participantID")

	courses, err := a.directory.Courses(r.Context())
	if err != nil {
		mapError(w, fmt.Errorf("%w: %v", attendance.ErrDirectoryUnavailable, err))
		return
	}

	records, err := a.store.List(r.Context(), attendance.Filter{
		ParticipantID: participantID,
		Status:        attendance.StatusAbsent,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	counts := make(map[string]int, len(courses))
	for _, c := range courses {
		counts[c.ID] = 0
	}
	for _, rec := range records {
		counts[rec.SessionID]++
	}
	writeJSON(w, http.StatusOK, AbsencesResponse{
		ParticipantID:    participantID,
		AbsencesByCourse: counts,
	})
}

// ListCourses handles GET /courses: a passthrough of the directory catalog.
func (a *API) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := a.directory.Courses(r.Context())
	if err != nil {
		mapError(w, fmt.Errorf("%w: %v", attendance.ErrDirectoryUnavailable, err))
		return
	}
	out := make([]CourseSummary, 0, len(courses))
	for _, c := range courses {
		out = append(out, CourseSummary{
			ID:       c.ID,
			Name:     c.Name,
			Teacher:  c.Teacher,
			Room:     c.Room,
			Schedule: c.Schedule,
		})
	}
	writeJSON(w, http.StatusOK, ListCoursesResponse{Courses: out})
}
