package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"spendwise/internal/auth"
	"spendwise/internal/backend"
	applog "spendwise/internal/log"
)

type loginData struct {
	Title    string
	Username string
	Error    string
	Notice   string
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	data := loginData{Title: "Sign in"}
	if r.URL.Query().Get("signed_up") != "" {
		data.Notice = "Account created. Sign in to continue."
	}
	s.render(w, r, http.StatusOK, "login.html", data)
}

type signupData struct {
	Title    string
	Username string
	Email    string
	Error    string
}

func (s *Server) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "signup.html", signupData{Title: "Sign up"})
}

// handleSignup registers an account and sends the user on to sign in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	in := SignupFromBody(p)
	data := signupData{Title: "Sign up", Username: in.Username, Email: in.Email}
	if in.Username == "" || in.Email == "" || in.Password == "" {
		data.Error = "Username, email and password are required"
		s.render(w, r, http.StatusUnprocessableEntity, "signup.html", data)
		return
	}

	if err := s.backend.Signup(ctx, in); err != nil {
		s.logBackendError(r, err, applog.OpSignup)
		data.Error = backend.Message(err, "Signup failed")
		s.render(w, r, failureStatus(err), "signup.html", data)
		return
	}
	s.logger.WithComponent(applog.ComponentAuth).InfoContext(ctx, "Account created",
		applog.FieldOperation, applog.OpSignup)
	redirect(w, r, "/login?signed_up=1")
}

// handleLogin exchanges credentials for a token and binds it to a fresh
// session id.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, errResp := ParseBodyOrFail(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}
	username, password := CredentialsFromBody(p)
	data := loginData{Title: "Sign in", Username: username}

	token, err := s.backend.Login(ctx, username, password)
	if err != nil {
		status := failureStatus(err)
		data.Error = backend.Message(err, "Login failed")
		if errors.Is(err, backend.ErrUnauthorized) {
			status = http.StatusUnauthorized
			data.Error = "Invalid username or password"
		} else {
			s.logBackendError(r, err, applog.OpLogin)
		}
		s.render(w, r, status, "login.html", data)
		return
	}

	sid := auth.NewSessionID()
	if err := s.sessions.Put(ctx, sid, token, s.sessionTTL); err != nil {
		s.sl.LogError(ctx, "Failed to store session", err, applog.ComponentStorage, applog.OpLogin, nil)
		data.Error = "Unable to start session"
		s.render(w, r, http.StatusInternalServerError, "login.html", data)
		return
	}
	s.pages.Delete(sessionID(r))
	auth.SetSessionCookie(w, r, s.sessionCookie, sid, s.sessionTTL)

	s.logger.WithComponent(applog.ComponentAuth).InfoContext(ctx, "User logged in",
		applog.FieldOperation, applog.OpLogin)
	redirect(w, r, "/")
}

// handleLogout forgets the session's token and page state.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if sid := auth.SessionID(r, s.sessionCookie); sid != "" {
		if err := s.sessions.Delete(ctx, sid); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete session", applog.FieldError, err)
		}
		s.pages.Delete(sid)
	}
	auth.ClearSessionCookie(w, s.sessionCookie)
	redirect(w, r, "/login")
}

var reportKinds = map[string]bool{"expenses": true, "summary": true}

// handleReport proxies a CSV export as a download.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	if !reportKinds[kind] {
		NotFoundError("Unknown report").Write(w)
		return
	}
	data, err := s.backend.Report(r.Context(), s.authContext(r), kind)
	if s.backendFailure(w, r, err, applog.OpRead, "Unable to export report") {
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="spendwise-`+kind+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
