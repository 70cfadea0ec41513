package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"spendwise/internal/auth"
	"spendwise/internal/backend"
	"spendwise/internal/events"
	applog "spendwise/internal/log"
	"spendwise/internal/middleware/trace"
	"spendwise/internal/view"
)

type ctxKey string

const sessionKey ctxKey = "session_id"

// withSession makes sure every browser carries a session id so its page
// state can be cached. A fresh id has no token until login.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := auth.SessionID(r, s.sessionCookie)
		if sid == "" {
			sid = auth.NewSessionID()
			auth.SetSessionCookie(w, r, s.sessionCookie, sid, s.sessionTTL)
		}
		ctx := context.WithValue(r.Context(), sessionKey, sid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionID(r *http.Request) string {
	sid, _ := r.Context().Value(sessionKey).(string)
	return sid
}

// page returns the cached page state of the request's session.
func (s *Server) page(r *http.Request) *view.Page {
	return s.pages.GetOrCreate(sessionID(r), view.NewPage)
}

func (s *Server) authContext(r *http.Request) auth.Context {
	return auth.FromRequest(r, s.sessions, s.sessionCookie)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// redirect sends the browser to target: HX-Redirect for HTMX requests, a
// 303 otherwise.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// backendFailure answers a failed backend call. 401 always redirects to the
// login page; everything else is shown inline with the server's message.
// It returns false when err is nil.
func (s *Server) backendFailure(w http.ResponseWriter, r *http.Request, err error, op, fallback string) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Not authenticated, redirecting to login",
			applog.FieldOperation, op)
		redirect(w, r, "/login")
		return true
	}
	s.logBackendError(r, err, op)
	ErrorResponse(failureStatus(err), backend.Message(err, fallback)).Write(w)
	return true
}

// failureStatus maps a backend error to the status of the inline error:
// 422 when the backend rejected the input, 502 otherwise.
func failureStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadGateway
}

func (s *Server) logBackendError(r *http.Request, err error, op string) {
	errType := applog.ErrorTypeBackend
	if errors.Is(err, backend.ErrNetwork) {
		errType = applog.ErrorTypeNetwork
	}
	s.sl.LogError(r.Context(), "SpendWise API call failed", err, applog.ComponentBackend, op,
		applog.NewFields().WithRequestID(trace.GetRequestID(r.Context())).WithErrorType(errType))
}

// publish emits e for other replicas. Failures are logged only.
func (s *Server) publish(r *http.Request, e events.Event) {
	if err := s.publisher.Publish(r.Context(), e); err != nil {
		s.logger.WarnContext(r.Context(), "Failed to publish event",
			applog.FieldEventType, string(e.Type),
			applog.FieldError, err)
	}
}

// stale answers a request whose response was superseded by a newer load.
func (s *Server) stale(w http.ResponseWriter, r *http.Request, loader string) {
	s.sl.LogStale(r.Context(), loader)
	NoContent().Write(w)
}

// partial renders name for use as an HTMX response body.
func (s *Server) partial(w http.ResponseWriter, r *http.Request, name string, data any) (string, bool) {
	html, err := s.renderer.RenderToString(name, data)
	if err != nil {
		s.sl.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		InternalServerError("Unable to render page").Write(w)
		return "", false
	}
	return html, true
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	if err := s.renderer.Render(w, status, name, data); err != nil {
		s.sl.LogError(r.Context(), "Template execution failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		InternalServerError("Unable to render page").Write(w)
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
