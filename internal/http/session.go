package http

import (
	"context"
	"net/http"
	"strings"
)

// SessionHeader carries the opaque owner key of the caller. Every ledger
// read and write is scoped by it.
const SessionHeader = "X-Session-ID"

// maxSessionLength bounds the owner key accepted from clients.
const maxSessionLength = 128

type ownerKey struct{}

// requireSession rejects requests without a usable session and stores the
// owner key in the request context.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner := sessionFrom(r)
		if owner == "" {
			UnauthorizedError("missing or invalid " + SessionHeader).Write(w)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, owner)))
	})
}

// sessionFrom returns the trimmed session header, or "" when it is absent,
// too long or contains control characters.
func sessionFrom(r *http.Request) string {
	s := strings.TrimSpace(r.Header.Get(SessionHeader))
	if len(s) > maxSessionLength || sanitizeInput(s) != s {
		return ""
	}
	return s
}

func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}
