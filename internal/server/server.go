// Package server exposes the HTTP API: the public site endpoints under
// /api and the admin console endpoints under /api/admin.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"kimmigration/internal/app"
	"kimmigration/internal/util"
	"kimmigration/pkg/content"
	"kimmigration/pkg/domain"
	"kimmigration/pkg/store"
)

// maxUploadBytes caps attachment uploads.
const maxUploadBytes = 10 * 1024 * 1024

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
}

// Server exposes the HTTP endpoints.
type Server struct {
	app *app.App
	mux *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app: cfg.App,
		mux: http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// public site
	s.mux.HandleFunc("/api/consultations", s.handleConsultations)
	s.mux.HandleFunc("/api/consultations/", s.handleConsultationByID)
	s.mux.HandleFunc("/api/services/", s.handleService)
	s.mux.HandleFunc("/api/pages/", s.handlePage)
	s.mux.HandleFunc("/api/faqs", s.handleFAQs)
	s.mux.HandleFunc("/api/news", s.handleNews)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/translate", s.handleTranslate)
	s.mux.HandleFunc("/api/auth/google", s.handleGoogleSignIn)

	// admin console
	s.mux.HandleFunc("/api/admin/login", s.handleAdminLogin)
	s.mux.HandleFunc("/api/admin/register", s.handleAdminRegister)
	s.mux.Handle("/api/admin/logout", s.withAdmin(s.handleAdminLogout))
	s.mux.Handle("/api/admin/admins", s.withAdmin(s.handleAdmins))
	s.mux.Handle("/api/admin/admins/", s.withAdmin(s.handleAdminByEmail))
	s.mux.Handle("/api/admin/consultations", s.withAdmin(s.handleAdminConsultations))
	s.mux.Handle("/api/admin/consultations/", s.withAdmin(s.handleAdminConsultationByID))
	s.mux.Handle("/api/admin/services/", s.withAdmin(s.handleAdminService))
	s.mux.Handle("/api/admin/pages/", s.withAdmin(s.handleAdminPage))
	s.mux.Handle("/api/admin/faqs", s.withAdmin(s.handleAdminFAQs))
	s.mux.Handle("/api/admin/news", s.withAdmin(s.handleAdminNews))
	s.mux.Handle("/api/admin/news/", s.withAdmin(s.handleAdminNewsByID))
	s.mux.Handle("/api/admin/chats", s.withAdmin(s.handleAdminChats))
	s.mux.Handle("/api/admin/users", s.withAdmin(s.handleAdminUsers))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type adminHandler func(http.ResponseWriter, *http.Request, domain.AdminUser)

func (s *Server) withAdmin(next adminHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		admin, ok, err := s.app.AdminByToken(token)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if !ok || !admin.IsApproved {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, admin)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func notFound(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusNotFound, msg)
}

// writeAppError maps service-layer errors to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation), errors.Is(err, app.ErrInvalidStatus):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound), errors.Is(err, content.ErrSubMenuNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, app.ErrAdminPending):
		writeError(w, http.StatusForbidden, "admin approval pending")
	case errors.Is(err, app.ErrAdminExists):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, store.ErrSuperAdminDelete):
		writeError(w, http.StatusForbidden, "super admin cannot be removed")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "REQUEST_INVALID"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "AUTH_FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	default:
		if status >= http.StatusInternalServerError {
			return "INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}
