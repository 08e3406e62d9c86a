package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tradejournal/internal/core"
)

type registerViewModel struct {
	Error    string
	Email    string
	Username string
}

type loginViewModel struct {
	Error      string
	Registered bool
}

// handleIndex shows the landing page, or the dashboard when the visitor
// already holds a valid session.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if _, err := s.accounts.ResolveSession(r.Context(), cookie.Value); err == nil {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, "index.html", nil)
}

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "register.html", registerViewModel{})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, "register.html", registerViewModel{Error: "Invalid form submission."})
		return
	}

	reg := core.Registration{
		Email:    sanitizeInput(r.Form.Get("email")),
		Username: sanitizeInput(r.Form.Get("username")),
		Password: r.Form.Get("password"),
	}
	vm := registerViewModel{Email: reg.Email, Username: reg.Username}

	_, err := s.accounts.Register(r.Context(), reg)
	switch {
	case err == nil:
		http.Redirect(w, r, "/login?registered=1", http.StatusSeeOther)
	case errors.Is(err, core.ErrConflict):
		if strings.HasPrefix(err.Error(), "email") {
			vm.Error = "Email already registered."
		} else {
			vm.Error = "Username already taken."
		}
		w.WriteHeader(http.StatusConflict)
		s.render(w, r, "register.html", vm)
	case errors.Is(err, core.ErrEmptyEmail), errors.Is(err, core.ErrInvalidEmail),
		errors.Is(err, core.ErrEmptyUsername), errors.Is(err, core.ErrEmptyPassword):
		vm.Error = "All fields are required and the email must be valid."
		w.WriteHeader(http.StatusUnprocessableEntity)
		s.render(w, r, "register.html", vm)
	default:
		slog.ErrorContext(r.Context(), "Registration failed", "error", err)
		vm.Error = "Registration failed. Please try again."
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "register.html", vm)
	}
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "login.html", loginViewModel{
		Registered: r.URL.Query().Get("registered") == "1",
	})
}

// handleLogin verifies credentials and issues a session cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.render(w, r, "login.html", loginViewModel{Error: "Invalid form submission."})
		return
	}

	username := sanitizeInput(r.Form.Get("username"))
	password := r.Form.Get("password")

	user, err := s.accounts.Authenticate(r.Context(), username, password)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			slog.ErrorContext(r.Context(), "Authentication error", "error", err)
		}
		w.WriteHeader(http.StatusUnauthorized)
		s.render(w, r, "login.html", loginViewModel{Error: "Incorrect username or password."})
		return
	}

	token, err := s.accounts.StartSession(r.Context(), user.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Session creation failed", "error", err, "user_id", user.ID)
		w.WriteHeader(http.StatusInternalServerError)
		s.render(w, r, "login.html", loginViewModel{Error: "An error occurred. Please try again."})
		return
	}

	s.setSessionCookie(w, token, s.accounts.SessionTTL())
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		if err := s.accounts.EndSession(r.Context(), cookie.Value); err != nil {
			slog.WarnContext(r.Context(), "Session deletion failed", "error", err)
		}
	}
	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
