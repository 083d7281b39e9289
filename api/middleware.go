package api

import (
	"context"
	"net/http"
)

// ParticipantIDHeader carries the participant identity established by the
// external identity layer. The engine trusts it as-is and performs no
// authentication of its own.
const ParticipantIDHeader = "X-Participant-ID"

type contextKey int

const participantKey contextKey = iota

// IdentityMiddleware extracts the authenticated participant ID supplied by
// the identity layer and stores it on the request context. Requests that
// arrive without one are rejected.
func (a *API) IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		participantID := r.Header.Get(ParticipantIDHeader)
		if participantID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+ParticipantIDHeader+" header")
			return
		}
		ctx := context.WithValue(r.Context(), participantKey, participantID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func participantFromContext(ctx context.Context) string {
	id, _ := ctx.Value(participantKey).(string)
	return id
}
