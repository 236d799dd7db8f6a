package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"kimmigration/internal/app"
	"kimmigration/pkg/content"
	"kimmigration/pkg/domain"
)

// handleConsultations serves POST /api/consultations (submit) and
// GET /api/consultations?email= (the applicant's own requests).
func (s *Server) handleConsultations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			ServiceType string `json:"serviceType"`
			Name        string `json:"name"`
			Email       string `json:"email"`
			Phone       string `json:"phone"`
			PassportNo  string `json:"passportNo"`
			Content     string `json:"content"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		c, err := s.app.SubmitConsultation(r.Context(), app.SubmitConsultationInput{
			ServiceType: req.ServiceType,
			Name:        req.Name,
			Email:       req.Email,
			Phone:       req.Phone,
			PassportNo:  req.PassportNo,
			Content:     req.Content,
		})
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, c)
	case http.MethodGet:
		email := strings.TrimSpace(r.URL.Query().Get("email"))
		if email == "" {
			writeError(w, http.StatusBadRequest, "email query parameter is required")
			return
		}
		items, err := s.app.ConsultationsByEmail(email)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	default:
		methodNotAllowed(w)
	}
}

// /api/consultations/{id}
// /api/consultations/{id}/pay
// /api/consultations/{id}/attachments
// /api/consultations/{id}/attachments/{attachmentID}
func (s *Server) handleConsultationByID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/consultations/")
	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		notFound(w, "not found")
		return
	}
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		c, err := s.app.Consultation(id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	case len(parts) == 2 && parts[1] == "pay":
		s.handlePay(w, r, id)
	case len(parts) == 2 && parts[1] == "attachments":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		s.handleUploadAttachment(w, r, id, domain.UploadedByUser)
	case len(parts) == 3 && parts[1] == "attachments" && parts[2] != "":
		s.handleAttachment(w, r, id, parts[2])
	default:
		notFound(w, "not found")
	}
}

func (s *Server) handlePay(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Method string `json:"method"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	method, ok := parsePaymentMethod(req.Method)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid payment method")
		return
	}
	c, err := s.app.Pay(r.Context(), id, method)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUploadAttachment(w http.ResponseWriter, r *http.Request, id string, by domain.UploadedBy) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required (field: file)")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c, att, err := s.app.AddAttachment(r.Context(), id, header.Filename, contentType, data, by)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"consultation": c,
		"attachment":   att,
	})
}

func (s *Server) handleAttachment(w http.ResponseWriter, r *http.Request, id, attachmentID string) {
	switch r.Method {
	case http.MethodGet:
		att, data, err := s.app.Attachment(r.Context(), id, attachmentID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		w.Header().Set("Content-Type", att.Type)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.Name))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	case http.MethodDelete:
		c, err := s.app.DeleteAttachment(r.Context(), id, attachmentID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	default:
		methodNotAllowed(w)
	}
}

// handleService serves GET /api/services/{id}?subMenu=&docOption= with the
// resolved scope and its required-documents text.
func (s *Server) handleService(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/services/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	scope, docs, err := s.app.ResolvedService(id, r.URL.Query().Get("subMenu"), r.URL.Query().Get("docOption"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scopeResponse(scope, docs))
}

func scopeResponse(scope content.Scope, docs string) map[string]any {
	return map[string]any{
		"serviceId":       scope.ServiceID,
		"subMenuId":       scope.SubMenuID,
		"title":           scope.Title,
		"target":          scope.Target,
		"documents":       docs,
		"documentOptions": scope.DocumentOptions,
		"reference":       scope.Reference,
		"content":         scope.ContentBody,
		"procedure":       scope.Procedure,
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/pages/")
	if id == "" || strings.Contains(id, "/") {
		notFound(w, "not found")
		return
	}
	page, err := s.app.Page(id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleFAQs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.FAQs()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	items, err := s.app.News()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		SessionID string `json:"sessionId"`
		Message   string `json:"message"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	session, err := s.app.SendChatMessage(r.Context(), req.SessionID, req.Message)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Text       string `json:"text"`
		TargetLang string `json:"targetLang"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"text": s.app.Translate(r.Context(), req.Text, req.TargetLang),
	})
}

func (s *Server) handleGoogleSignIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		IDToken string `json:"idToken"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.IDToken) == "" {
		writeError(w, http.StatusBadRequest, "idToken is required")
		return
	}
	user, err := s.app.SignIn(r.Context(), req.IDToken)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func parsePaymentMethod(method string) (domain.PaymentMethod, bool) {
	switch domain.PaymentMethod(strings.TrimSpace(method)) {
	case domain.PayBankTransfer:
		return domain.PayBankTransfer, true
	case domain.PayVirtualAccount:
		return domain.PayVirtualAccount, true
	case domain.PayCreditCard:
		return domain.PayCreditCard, true
	case domain.PayPayPal:
		return domain.PayPayPal, true
	default:
		return "", false
	}
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}
