// Package http wires the web surface: session-authenticated pages and
// form posts on top of the ledger services. Dashboard reads are never
// cached; every render reflects the latest committed data.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"tradejournal/internal/core"
	"tradejournal/internal/services"
	appweb "tradejournal/web"
)

// SessionCookieName is the cookie carrying the session token.
const SessionCookieName = "session"

type contextKey string

const userContextKey contextKey = "user"

type Server struct {
	http.Server
	templates    *template.Template
	accounts     *services.AccountService
	ledger       *services.LedgerService
	insights     *services.InsightService
	rateLimiter  *rateLimiter
	secureCookie bool
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr string, accounts *services.AccountService, ledger *services.LedgerService, insights *services.InsightService, secureCookie bool) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		accounts:     accounts,
		ledger:       ledger,
		insights:     insights,
		rateLimiter:  newRateLimiter(),
		secureCookie: secureCookie,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("GET /{$}", s.withRequestContext(s.handleIndex))
	mux.HandleFunc("GET /register", s.withRequestContext(s.handleRegisterForm))
	mux.HandleFunc("POST /register", s.withRequestContext(s.handleRegister))
	mux.HandleFunc("GET /login", s.withRequestContext(s.handleLoginForm))
	mux.HandleFunc("POST /token", s.withRequestContext(s.handleLogin))
	mux.HandleFunc("POST /logout", s.withRequestContext(s.handleLogout))

	mux.HandleFunc("GET /dashboard", s.withRequestContext(s.requireUser(s.handleDashboard)))
	mux.HandleFunc("GET /deposit", s.withRequestContext(s.requireUser(s.handleDepositForm)))
	mux.HandleFunc("POST /deposit", s.withRequestContext(s.requireUser(s.handleCreateDeposit)))
	mux.HandleFunc("GET /withdraw", s.withRequestContext(s.requireUser(s.handleWithdrawForm)))
	mux.HandleFunc("POST /withdraw", s.withRequestContext(s.requireUser(s.handleCreateWithdrawal)))
	mux.HandleFunc("GET /daily-entry", s.withRequestContext(s.requireUser(s.handleDailyEntryForm)))
	mux.HandleFunc("POST /daily-entry", s.withRequestContext(s.requireUser(s.handleCreateDailyEntry)))
	mux.HandleFunc("PUT /daily-entry/{id}", s.withRequestContext(s.requireUser(s.handleUpdateDailyEntry)))
	mux.HandleFunc("POST /reset", s.withRequestContext(s.requireUser(s.handleReset)))

	// UI partials and audit endpoints
	mux.HandleFunc("GET /ui/insights", s.withRequestContext(s.requireUser(s.handleInsights)))
	mux.HandleFunc("GET /audit/balance", s.withRequestContext(s.requireUser(s.handleBalanceAudit)))

	return s
}

// Shutdown gracefully shuts down the server and its cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withRequestContext adds security headers, rate limiting and request
// logging.
func (s *Server) withRequestContext(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), contextKey("request_id"), requestID)
		r = r.WithContext(ctx)

		// Mutations are rate limited per client.
		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"client_ip", clientIP)
	}
}

// requireUser resolves the session cookie to a user and puts it on the
// request context. Browsers get a redirect to /login; API-style requests
// get a 401.
func (s *Server) requireUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil || cookie.Value == "" {
			s.rejectUnauthenticated(w, r)
			return
		}
		user, err := s.accounts.ResolveSession(r.Context(), cookie.Value)
		if err != nil {
			s.clearSessionCookie(w)
			s.rejectUnauthenticated(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

func (s *Server) rejectUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	http.Error(w, "authentication required", http.StatusUnauthorized)
}

// userFrom returns the authenticated user placed by requireUser.
func userFrom(r *http.Request) core.User {
	user, _ := r.Context().Value(userContextKey).(core.User)
	return user
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
