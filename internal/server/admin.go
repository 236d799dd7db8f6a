package server

import (
	"net/http"
	"strconv"
	"strings"

	"kimmigration/pkg/content"
	"kimmigration/pkg/domain"
)

func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	token, admin, err := s.app.VerifyAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"admin": admin,
	})
}

func (s *Server) handleAdminRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	admin, err := s.app.RegisterAdmin(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, admin)
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, _ := bearerToken(r)
	if err := s.app.Logout(token); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleAdmins(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	admins, err := s.app.Admins()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": admins, "count": len(admins)})
}

// /api/admin/admins/{email} and /api/admin/admins/{email}/approve
func (s *Server) handleAdminByEmail(w http.ResponseWriter, r *http.Request, caller domain.AdminUser) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/admins/")
	parts := strings.Split(path, "/")
	email := parts[0]
	if email == "" {
		notFound(w, "not found")
		return
	}
	if !caller.IsSuperAdmin {
		writeError(w, http.StatusForbidden, "super admin role required")
		return
	}
	switch {
	case len(parts) == 2 && parts[1] == "approve":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := s.app.ApproveAdmin(email); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
	case len(parts) == 1:
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if err := s.app.DeleteAdmin(email); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAdminConsultations(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.Consultations()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// /api/admin/consultations/{id}
// /api/admin/consultations/{id}/status
// /api/admin/consultations/{id}/reply
// /api/admin/consultations/{id}/payment-amount
// /api/admin/consultations/{id}/attachments
// /api/admin/consultations/{id}/attachments/{attachmentID}
// /api/admin/consultations/{id}/attachments/{attachmentID}/preview
func (s *Server) handleAdminConsultationByID(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/consultations/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	switch {
	case len(parts) == 1:
		s.handleAdminConsultation(w, r, id)
	case len(parts) == 2 && parts[1] == "status":
		s.handleSetStatus(w, r, id)
	case len(parts) == 2 && parts[1] == "reply":
		s.handleReply(w, r, id)
	case len(parts) == 2 && parts[1] == "payment-amount":
		s.handleSetPaymentAmount(w, r, id)
	case len(parts) == 2 && parts[1] == "attachments":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleUploadAttachment(w, r, id, domain.UploadedByAdmin)
	case len(parts) == 3 && parts[1] == "attachments" && parts[2] != "":
		s.handleAttachment(w, r, id, parts[2])
	case len(parts) == 4 && parts[1] == "attachments" && parts[3] == "preview":
		s.handleAttachmentPreview(w, r, id, parts[2])
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAdminConsultation(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		c, err := s.app.Consultation(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case http.MethodDelete:
		if err := s.app.DeleteConsultation(id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ProcessStatus string `json:"processStatus"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c, err := s.app.SetStatus(r.Context(), id, domain.ProcessStatus(req.ProcessStatus))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleReply(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Reply string `json:"reply"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	c, err := s.app.Reply(r.Context(), id, req.Reply)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleSetPaymentAmount(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Amount int64 `json:"amount"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must not be negative")
		return
	}
	c, err := s.app.SetPaymentAmount(r.Context(), id, req.Amount)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleAttachmentPreview(w http.ResponseWriter, r *http.Request, id, attachmentID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	text, supported, err := s.app.PreviewAttachment(r.Context(), id, attachmentID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"preview": text, "supported": supported})
}

// /api/admin/services/{id} replaces the whole category;
// /api/admin/services/{id}/scope edits one scope (root or sub-menu).
func (s *Server) handleAdminService(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	path := strings.TrimPrefix(r.URL.Path, "/api/admin/services/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		// raw record for the editor, sub-menus and options included
		svc, err := s.app.ServiceContent(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case len(parts) == 1 && r.Method == http.MethodPut:
		var svc domain.ServiceContent
		if err := decodeJSON(r, &svc); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		svc.ID = id
		if err := s.app.SaveServiceContent(r.Context(), svc); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, svc)
	case len(parts) == 2 && parts[1] == "scope":
		if r.Method != http.MethodPut {
			methodNotAllowed(w)
			return
		}
		var req struct {
			SubMenuID       string                  `json:"subMenuId"`
			Title           string                  `json:"title"`
			Target          string                  `json:"target"`
			Documents       string                  `json:"documents"`
			DocumentOptions []domain.DocumentOption `json:"documentOptions"`
			Reference       string                  `json:"reference"`
			Content         string                  `json:"content"`
			Procedure       string                  `json:"procedure"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		updated, err := s.app.SaveScope(r.Context(), content.Scope{
			ServiceID:       id,
			SubMenuID:       req.SubMenuID,
			Title:           req.Title,
			Target:          req.Target,
			Documents:       req.Documents,
			DocumentOptions: req.DocumentOptions,
			Reference:       req.Reference,
			ContentBody:     req.Content,
			Procedure:       req.Procedure,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	case len(parts) == 1:
		methodNotAllowed(w)
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/pages/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	page := domain.PageContent{ID: id, Title: req.Title, Content: req.Content}
	if err := s.app.SavePage(page); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleAdminFAQs(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Items []domain.FAQItem `json:"items"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := s.app.ReplaceFAQs(req.Items); err != nil {
		writeAppError(w, err)
		return
	}
	items, err := s.app.FAQs()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleAdminNews(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Date    string `json:"date"`
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	item, err := s.app.AddNews(req.Date, req.Title, req.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleAdminNewsByID(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	raw := strings.TrimPrefix(r.URL.Path, "/api/admin/news/")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid news id")
		return
	}
	if err := s.app.DeleteNews(id); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleAdminChats(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	sessions, err := s.app.ChatSessions()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": sessions, "count": len(sessions)})
}

func (s *Server) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ domain.AdminUser) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.Users()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
}
