package http

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"preventivi/internal/auth"
	"preventivi/internal/directory"
	"preventivi/internal/log"
	"preventivi/internal/services"
	"preventivi/internal/storage"
	appweb "preventivi/web"
)

// UserStore persists back-office accounts for the auth endpoints.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash, fullName string) (storage.User, error)
	GetUserByUsername(ctx context.Context, username string) (storage.User, error)
}

type Server struct {
	http.Server
	templates *template.Template

	budgets *services.BudgetService
	reports *services.ReportService
	clients directory.Lookup
	users   UserStore
	auth    *auth.Manager

	logger *log.Logger
	logx   *log.StructuredLogger

	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, budgets *services.BudgetService, reports *services.ReportService, clients directory.Lookup, users UserStore, authMgr *auth.Manager) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budgets:     budgets,
		reports:     reports,
		clients:     clients,
		users:       users,
		auth:        authMgr,
		rateLimiter: newRateLimiter(),
	}

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentHTTP
	s.logger = log.New(cfg)
	s.logx = log.NewStructuredLogger(s.logger)

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	mux.HandleFunc("GET /{$}", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/auth/register", s.withSecurityHeaders(s.handleRegister))
	mux.HandleFunc("POST /api/auth/login", s.withSecurityHeaders(s.handleLogin))

	mux.HandleFunc("POST /api/budgets", s.protected(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets", s.protected(s.handleListBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.protected(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.protected(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.protected(s.handleDeleteBudget))
	mux.HandleFunc("PATCH /api/budgets/{id}/approve", s.protected(s.handleApproveBudget))
	mux.HandleFunc("PATCH /api/budgets/{id}/reject", s.protected(s.handleRejectBudget))
	mux.HandleFunc("GET /api/budgets/{id}/pdf", s.protected(s.handleBudgetPDF))
	mux.HandleFunc("POST /api/budgets/{id}/invoice", s.protected(s.handleIssueInvoice))
	mux.HandleFunc("GET /api/invoices", s.protected(s.handleListInvoices))
	mux.HandleFunc("PATCH /api/invoices/{id}/paid", s.protected(s.handleInvoicePaid))

	mux.HandleFunc("GET /api/reports/clients", s.protected(s.handleClientReport))
	mux.HandleFunc("GET /api/reports/vendors", s.protected(s.handleVendorReport))
	mux.HandleFunc("GET /api/reports/export", s.protected(s.handleExport))

	mux.HandleFunc("GET /api/clients", s.protected(s.handleClientSearch))

	return s
}

// protected stacks the auth check on top of the standard middleware.
func (s *Server) protected(next http.HandlerFunc) http.HandlerFunc {
	guarded := s.auth.Require(next)
	return s.withSecurityHeaders(guarded.ServeHTTP)
}

// Shutdown gracefully shuts down the server and cleanup routines.
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

// withSecurityHeaders adds security headers, rate limiting and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.logx.LogHTTPStart(ctx, r, clientIP)

		// Rate limit mutating requests only.
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			if !s.rateLimiter.allow(clientIP) {
				slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
				w.Header().Set("Retry-After", "60")
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		duration := time.Since(start)
		s.logx.LogHTTPEnd(ctx, r, rw.statusCode, duration.Milliseconds(), clientIP)
	}
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

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	data := struct {
		Year int
	}{Year: time.Now().Year()}

	if err := s.templates.ExecuteTemplate(w, "index.html", data); err != nil {
		slog.ErrorContext(r.Context(), "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
