package attendance

import (
	"context"
	"time"
)

// CourseInfo describes a course as reported by the directory. Everything
// beyond the ID is display metadata.
type CourseInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Teacher  string `json:"teacher"`
	Room     string `json:"room"`
	Schedule string `json:"schedule"`
}

// Directory is the external course directory the engine consults for
// schedules and rosters. Its data is trusted: the engine never validates
// participant or session existence on its own.
type Directory interface {
	// SessionStart returns the scheduled start of the session on the given day.
	SessionStart(ctx context.Context, sessionID string, day Day) (time.Time, error)
	// Roster returns the participant IDs enrolled in the session.
	Roster(ctx context.Context, sessionID string) ([]string, error)
	// CourseName returns a display name for the session's course. Used only
	// in user-facing messages.
	CourseName(ctx context.Context, sessionID string) (string, error)
	// Courses lists the known courses.
	Courses(ctx context.Context) ([]CourseInfo, error)
}
