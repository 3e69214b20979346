package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/receiptwise/receiptwise/internal/auth"
	"github.com/receiptwise/receiptwise/internal/common"
	"github.com/receiptwise/receiptwise/internal/entity"
	"github.com/receiptwise/receiptwise/internal/export"
	"github.com/receiptwise/receiptwise/internal/repository"
	"github.com/receiptwise/receiptwise/internal/scan"
)

// Server handles HTTP requests for the expense API.
type Server struct {
	scanner  *scan.Scanner
	auth     *auth.Service
	expenses repository.ExpenseRepository
	exporter *export.Service
	logger   *slog.Logger
	mux      *http.ServeMux
}

func New(scanner *scan.Scanner, authSvc *auth.Service, expenses repository.ExpenseRepository, exporter *export.Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		scanner:  scanner,
		auth:     authSvc,
		expenses: expenses,
		exporter: exporter,
		logger:   logger,
		mux:      http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// registerRoutes registers all API routes, most specific first.
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("POST /api/auth/session", s.handleCreateSession)
	s.mux.HandleFunc("GET /api/auth/me", s.requireAuth(s.handleMe))
	s.mux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	s.mux.HandleFunc("POST /api/scan-receipt", s.requireAuth(s.handleScanReceipt))
	s.mux.HandleFunc("POST /api/upload-receipt-image", s.requireAuth(s.handleUploadReceiptImage))

	s.mux.HandleFunc("POST /api/expenses/bulk-delete", s.requireAuth(s.handleBulkDeleteExpenses))
	s.mux.HandleFunc("GET /api/expenses/{id}", s.requireAuth(s.handleGetExpense))
	s.mux.HandleFunc("PUT /api/expenses/{id}", s.requireAuth(s.handleUpdateExpense))
	s.mux.HandleFunc("DELETE /api/expenses/{id}", s.requireAuth(s.handleDeleteExpense))
	s.mux.HandleFunc("GET /api/expenses", s.requireAuth(s.handleListExpenses))
	s.mux.HandleFunc("POST /api/expenses", s.requireAuth(s.handleCreateExpense))

	s.mux.HandleFunc("GET /api/analytics/summary", s.requireAuth(s.handleAnalyticsSummary))
	s.mux.HandleFunc("POST /api/reports/generate", s.requireAuth(s.handleGenerateReport))
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
	s.mux.HandleFunc("GET /api/tags", s.requireAuth(s.handleTags))

	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/", s.handleRoot)
}

// ServeHTTP implements http.Handler; all requests pass through the CORS
// middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

type ctxKey int

const userKey ctxKey = 0

// requireAuth resolves the session token from the cookie or the
// Authorization header and attaches the user to the request context.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		user, err := s.auth.CurrentUser(r.Context(), token)
		if err != nil {
			if errors.Is(err, common.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Not authenticated")
				return
			}
			s.logger.Error("auth lookup failed", "error", err)
			writeError(w, http.StatusInternalServerError, "internal", "Internal server error")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	}
}

func sessionToken(r *http.Request) string {
	if c, err := r.Cookie("session_token"); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func currentUser(r *http.Request) *entity.User {
	user, _ := r.Context().Value(userKey).(*entity.User)
	return user
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorResponse is the uniform error body. Kind identifies the failure
// class so callers can tell input, provider, and parse errors apart.
type errorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, kind, msg string) {
	writeJSON(w, status, errorResponse{Kind: kind, Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Receipt Scanner API", "status": "healthy"})
}
