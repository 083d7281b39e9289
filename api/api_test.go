package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebraouisamy/presence-app/api"
	"github.com/tebraouisamy/presence-app/attendance"
	"github.com/tebraouisamy/presence-app/directory"
	"github.com/tebraouisamy/presence-app/storage/memory"
	"github.com/tebraouisamy/presence-app/token"
)

const testCatalog = `
timezone: UTC
courses:
  - id: DEVOPS
    name: DevOps
    teacher: Prof. Assad
    room: A101
    weekday: Monday
    start: "10:00"
    duration_minutes: 120
    roster: [u1, u2, u3]
  - id: CRYPTO
    name: Cryptographie
    teacher: Prof. El Mahdi
    room: E505
    weekday: Friday
    start: "13:00"
    duration_minutes: 120
    roster: [u1]
`

// testClock is a settable time source shared with the API under test.
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// 2026-03-02 is a Monday; DEVOPS starts at 10:00 UTC.
var devopsStart = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

func setupServer(t *testing.T) (*httptest.Server, *memory.Store, *testClock) {
	t.Helper()
	store := memory.NewStore()
	dir, err := directory.Parse([]byte(testCatalog))
	require.NoError(t, err)
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	clock := &testClock{now: devopsStart}
	a := api.New(store, dir, codec, api.WithClock(clock.Now))

	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store, clock
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func issueToken(t *testing.T, baseURL, courseID string) string {
	t.Helper()
	resp := doJSON(t, http.MethodPost, baseURL+"/api/v1/tokens", map[string]any{
		"course_id": courseID,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody[api.IssueTokenResponse](t, resp)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func scan(t *testing.T, baseURL, participantID, courseID, tok string) *http.Response {
	t.Helper()
	return doJSON(t, http.MethodPost, baseURL+"/api/v1/scan", api.ScanRequest{
		Token:    tok,
		CourseID: courseID,
	}, map[string]string{api.ParticipantIDHeader: participantID})
}

func TestScan_RecordsPresence(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(5 * time.Minute))
	resp := scan(t, srv.URL, "u1", "DEVOPS", tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody[api.ScanResponse](t, resp)
	assert.Equal(t, "present", out.Status)
	assert.NotEmpty(t, out.RecordID)
}

func TestScan_RecordsLateArrival(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(20 * time.Minute))
	resp := scan(t, srv.URL, "u2", "DEVOPS", tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decodeBody[api.ScanResponse](t, resp)
	assert.Equal(t, "late", out.Status)
}

func TestScan_DuplicateIsConflict(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(5 * time.Minute))
	resp := scan(t, srv.URL, "u1", "DEVOPS", tok)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	clock.Set(devopsStart.Add(10 * time.Minute))
	resp = scan(t, srv.URL, "u1", "DEVOPS", tok)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decodeBody[api.ErrorResponse](t, resp)
	assert.Contains(t, out.Error, "already recorded")
}

func TestScan_SessionMismatchNamesCourses(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(5 * time.Minute))
	resp := scan(t, srv.URL, "u1", "CRYPTO", tok)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	out := decodeBody[api.ErrorResponse](t, resp)
	assert.Contains(t, out.Error, "DevOps")
	assert.Contains(t, out.Error, "Cryptographie")
}

func TestScan_InvalidToken(t *testing.T) {
	srv, _, _ := setupServer(t)
	resp := scan(t, srv.URL, "u1", "DEVOPS", "garbage")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestScan_ExpiredToken(t *testing.T) {
	srv, _, clock := setupServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/tokens", map[string]any{
		"course_id":         "DEVOPS",
		"valid_for_minutes": 10,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	tok := decodeBody[api.IssueTokenResponse](t, resp).Token

	clock.Set(devopsStart.Add(30 * time.Minute))
	resp = scan(t, srv.URL, "u1", "DEVOPS", tok)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := decodeBody[api.ErrorResponse](t, resp)
	assert.Contains(t, out.Error, "expired")
}

func TestScan_RequiresIdentity(t *testing.T) {
	srv, _, _ := setupServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/scan", api.ScanRequest{
		Token:    "whatever",
		CourseID: "DEVOPS",
	}, nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}

// unavailableStore fails every write the way a store with a dead backend
// connection does.
type unavailableStore struct {
	*memory.Store
}

func (unavailableStore) InsertIfAbsent(ctx context.Context, rec attendance.Record) (bool, error) {
	return false, fmt.Errorf("%w: connection reset", attendance.ErrStoreUnavailable)
}

func TestScan_StoreUnavailable(t *testing.T) {
	dir, err := directory.Parse([]byte(testCatalog))
	require.NoError(t, err)
	codec, err := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)

	a := api.New(unavailableStore{memory.NewStore()}, dir, codec,
		api.WithClock(func() time.Time { return devopsStart.Add(5 * time.Minute) }))
	r := chi.NewRouter()
	r.Mount("/api/v1", a.Router())
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	tok := issueToken(t, srv.URL, "DEVOPS")
	resp := scan(t, srv.URL, "u1", "DEVOPS", tok)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestSweep_FillsAbsences(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(5 * time.Minute))
	scan(t, srv.URL, "u1", "DEVOPS", tok).Body.Close()
	clock.Set(devopsStart.Add(20 * time.Minute))
	scan(t, srv.URL, "u2", "DEVOPS", tok).Body.Close()

	clock.Set(devopsStart.Add(8 * time.Hour))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sweep", api.SweepRequest{CourseID: "DEVOPS"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[api.SweepResponse](t, resp)
	assert.Equal(t, 1, out.Created)
	assert.Equal(t, 2, out.Skipped)
	assert.Equal(t, "2026-03-02", out.Day)

	// A repeated sweep is a no-op.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/v1/sweep", api.SweepRequest{CourseID: "DEVOPS"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	again := decodeBody[api.SweepResponse](t, resp)
	assert.Equal(t, 0, again.Created)
	assert.Equal(t, 3, again.Skipped)
}

func TestIssueToken_UnknownCourse(t *testing.T) {
	srv, _, _ := setupServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/tokens", map[string]any{
		"course_id": "NOPE",
	}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSweep_UnknownCourse(t *testing.T) {
	srv, _, _ := setupServer(t)
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sweep", api.SweepRequest{CourseID: "NOPE"}, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestListAttendance_FiltersAndPaginates(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")

	clock.Set(devopsStart.Add(5 * time.Minute))
	scan(t, srv.URL, "u1", "DEVOPS", tok).Body.Close()
	clock.Set(devopsStart.Add(6 * time.Minute))
	scan(t, srv.URL, "u2", "DEVOPS", tok).Body.Close()
	clock.Set(devopsStart.Add(7 * time.Minute))
	scan(t, srv.URL, "u3", "DEVOPS", tok).Body.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance?course_id=DEVOPS", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[api.ListAttendanceResponse](t, resp)
	require.Len(t, out.Records, 3)
	assert.Equal(t, 3, out.Meta.TotalCount)
	// Ordered by recording time.
	assert.Equal(t, "u1", out.Records[0].ParticipantID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance?limit=2", nil, nil)
	out = decodeBody[api.ListAttendanceResponse](t, resp)
	assert.Len(t, out.Records, 2)
	assert.True(t, out.Meta.HasMore)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance?participant_id=u2", nil, nil)
	out = decodeBody[api.ListAttendanceResponse](t, resp)
	require.Len(t, out.Records, 1)
	assert.Equal(t, "u2", out.Records[0].ParticipantID)

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance?status=bogus", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestExportAttendance_CSV(t *testing.T) {
	srv, _, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")
	clock.Set(devopsStart.Add(5 * time.Minute))
	scan(t, srv.URL, "u1", "DEVOPS", tok).Body.Close()

	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance/export?format=csv", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Participant")
	assert.Contains(t, lines[1], "u1")
	assert.Contains(t, lines[1], "Present")

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/attendance/export?format=xml", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestParticipantAbsences(t *testing.T) {
	srv, _, clock := setupServer(t)

	clock.Set(devopsStart.Add(8 * time.Hour))
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/v1/sweep", api.SweepRequest{CourseID: "DEVOPS"}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/v1/participants/u1/absences", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[api.AbsencesResponse](t, resp)
	assert.Equal(t, "u1", out.ParticipantID)
	assert.Equal(t, 1, out.AbsencesByCourse["DEVOPS"])
	// Every catalog course is reported, even with no absences.
	assert.Equal(t, 0, out.AbsencesByCourse["CRYPTO"])
}

func TestListCourses(t *testing.T) {
	srv, _, _ := setupServer(t)
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/v1/courses", nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := decodeBody[api.ListCoursesResponse](t, resp)
	require.Len(t, out.Courses, 2)
	assert.Equal(t, "CRYPTO", out.Courses[0].ID)
	assert.Equal(t, "DevOps", out.Courses[1].Name)
}

func TestClearAttendance_RequiresConfirmation(t *testing.T) {
	srv, store, clock := setupServer(t)
	tok := issueToken(t, srv.URL, "DEVOPS")
	clock.Set(devopsStart.Add(5 * time.Minute))
	scan(t, srv.URL, "u1", "DEVOPS", tok).Body.Close()

	resp := doJSON(t, http.MethodDelete, srv.URL+"/api/v1/attendance", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/v1/attendance", nil, map[string]string{
		"X-Confirm-Reset": "true",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	records, err := store.List(context.Background(), attendance.Filter{})
	require.NoError(t, err)
	assert.Empty(t, records)
}
