package api

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ScanRequest is the JSON body for POST /scan.
type ScanRequest struct {
	Token    string `json:"token"`
	CourseID string `json:"course_id"`
}

// ScanResponse is returned from POST /scan.
type ScanResponse struct {
	RecordID string `json:"record_id"`
	Status   string `json:"status"`
	Message  string `json:"message"`
}

// SweepRequest is the JSON body for POST /sweep.
type SweepRequest struct {
	CourseID string `json:"course_id"`
	Day      string `json:"day,omitempty"` // YYYY-MM-DD; defaults to today
}

// SweepResponse is returned from POST /sweep.
type SweepResponse struct {
	CourseID string `json:"course_id"`
	Day      string `json:"day"`
	Created  int    `json:"created"`
	Skipped  int    `json:"skipped"`
}

// IssueTokenRequest is the JSON body for POST /tokens.
type IssueTokenRequest struct {
	CourseID        string `json:"course_id"`
	ValidForMinutes int    `json:"valid_for_minutes,omitempty"`
}

// IssueTokenResponse is returned from POST /tokens.
type IssueTokenResponse struct {
	Token     string `json:"token"`
	CourseID  string `json:"course_id"`
	ExpiresAt string `json:"expires_at"`
}

// AttendanceRecord is the JSON form of a stored record.
type AttendanceRecord struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id"`
	CourseID      string `json:"course_id"`
	Day           string `json:"day"`
	RecordedAt    string `json:"recorded_at"`
	Status        string `json:"status"`
}

// ListAttendanceResponse is returned from GET /attendance.
type ListAttendanceResponse struct {
	Records []AttendanceRecord `json:"records"`
	Meta    PaginationMeta     `json:"meta"`
}

// AbsencesResponse is returned from GET /participants/{participantID}/absences.
type AbsencesResponse struct {
	ParticipantID    string         `json:"participant_id"`
	AbsencesByCourse map[string]int `json:"absences_by_course"`
}

// CourseSummary describes one course from the directory.
type CourseSummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Teacher  string `json:"teacher"`
	Room     string `json:"room"`
	Schedule string `json:"schedule"`
}

// ListCoursesResponse is returned from GET /courses.
type ListCoursesResponse struct {
	Courses []CourseSummary `json:"courses"`
}
