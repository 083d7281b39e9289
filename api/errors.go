package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tebraouisamy/presence-app/attendance"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// mapError translates engine errors to HTTP statuses. Validation failures
// are client errors, idempotency collisions are conflicts, and the two
// retriable infrastructure classes surface as 503 so callers know to back
// off and retry.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, attendance.ErrInvalidToken):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, attendance.ErrSessionMismatch):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, attendance.ErrAlreadyRecorded):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, attendance.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, attendance.ErrDirectoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, attendance.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

const maxBodySize = 1 << 20

// decodeJSON reads and decodes a JSON request body, writing a 400 response
// itself when the body is unusable.
func decodeJSON[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return v, false
	}
	return v, true
}
