package server

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey string

const callerIDKey contextKey = "caller-id"

// callerID returns the authenticated caller's opaque user id.
func callerID(ctx context.Context) string {
	id, _ := ctx.Value(callerIDKey).(string)
	return id
}

// basicAuthMiddleware resolves basic-auth credentials to the caller's user id
// and stores it in the request context.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		userID, err := s.users.ResolveIdentity(r.Context(), username, password)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), callerIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// auditLogMiddleware captures mutating requests and feeds them to the audit
// pipeline. Reads pass through untouched.
func (s *Server) auditLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		entry := AuditLogEntry{
			Timestamp: time.Now().UTC(),
			Method:    r.Method,
			Path:      r.URL.Path,
			RequestID: r.Header.Get(requestIDHeader),
		}
		if username, _, ok := r.BasicAuth(); ok {
			entry.UserID = username
		}
		if route := mux.CurrentRoute(r); route != nil {
			entry.Handler = route.GetName()
		}

		if r.Body != nil {
			requestBody, _ := io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
			entry.Request = string(requestBody)
		}

		wrw := newResponseWriterWrapper(w)
		next.ServeHTTP(wrw, r)

		entry.StatusCode = wrw.GetStatusCode()
		entry.Response = string(wrw.GetBody())

		s.audit.LogEntry(r.Context(), entry)
	})
}

const requestIDHeader = "X-Request-Id"

// requestID returns the caller-supplied idempotency key, or a fresh one when
// the header is absent (the command then has nothing to deduplicate against).
func requestID(r *http.Request) string {
	if id := r.Header.Get(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
