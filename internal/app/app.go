// Package app is the core service layer: consultation workflow, CMS saves,
// chat, translation and admin account management. HTTP handlers delegate
// here; this package owns the invariants.
package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"kimmigration/internal/identity"
	"kimmigration/internal/notify"
	"kimmigration/internal/preview"
	"kimmigration/internal/util"
	"kimmigration/pkg/ai"
	"kimmigration/pkg/auth"
	"kimmigration/pkg/content"
	"kimmigration/pkg/domain"
	"kimmigration/pkg/storage"
	"kimmigration/pkg/store"
)

const chatSystemPrompt = `당신은 'K-Immigration'의 다국어 AI 행정 도우미입니다.

[역할]
외국인들이 한국에서 비자, 체류, 이민, 난민, 국적, 외국인등록 등의 업무를 볼 수 있도록 도와주세요.

[핵심 규칙]
1. **언어 감지**: 사용자가 입력한 언어를 감지하여 반드시 **그 언어와 동일한 언어**로 답변해야 합니다.
2. **말투**: 항상 친절하고 전문적인 말투를 사용하세요.
3. **내용**: 답변은 명확하고 간결하게 해주세요.`

const chatApology = "Service temporarily unavailable. Please try again later."

// chatHistoryLimit bounds how many prior turns are replayed to the model.
const chatHistoryLimit = 20

// Config wires the application's collaborators.
type Config struct {
	Store       store.Store
	Sessions    store.SessionStore
	Objects     storage.ObjectStore
	Generator   ai.TextGenerator
	Translator  *ai.Translator
	Broadcaster notify.Broadcaster
	Events      notify.EventPublisher
	Identity    *identity.Verifier
}

// App is the core application service.
type App struct {
	store       store.Store
	sessions    store.SessionStore
	objects     storage.ObjectStore
	generator   ai.TextGenerator
	translator  *ai.Translator
	broadcaster notify.Broadcaster
	events      notify.EventPublisher
	identity    *identity.Verifier
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	if cfg.Objects == nil {
		cfg.Objects = storage.NewMemoryObjectStore()
	}
	if cfg.Broadcaster == nil {
		cfg.Broadcaster = notify.NewMemoryBroadcaster()
	}
	return &App{
		store:       cfg.Store,
		sessions:    cfg.Sessions,
		objects:     cfg.Objects,
		generator:   cfg.Generator,
		translator:  cfg.Translator,
		broadcaster: cfg.Broadcaster,
		events:      cfg.Events,
		identity:    cfg.Identity,
	}, nil
}

// --- consultations ---

// SubmitConsultationInput is the public submission form.
type SubmitConsultationInput struct {
	ServiceType string
	Name        string
	Email       string
	Phone       string
	PassportNo  string
	Content     string
}

// SubmitConsultation creates a new consultation at the first workflow stage.
func (a *App) SubmitConsultation(ctx context.Context, in SubmitConsultationInput) (domain.ConsultationRequest, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Content) == "" {
		return domain.ConsultationRequest{}, fmt.Errorf("%w: name, email and content are required", ErrValidation)
	}
	c := domain.ConsultationRequest{
		ID:            util.NewID(),
		ServiceType:   in.ServiceType,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		PassportNo:    in.PassportNo,
		Content:       in.Content,
		CreatedAt:     time.Now().UTC(),
		ProcessStatus: domain.StatusRequested,
		Status:        domain.StatusRequested.LegacyStatus(),
		Attachments:   []domain.Attachment{},
		IsPaid:        false,
	}
	if err := a.store.SaveConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	a.publishEvent(ctx, "created", c)
	return c, nil
}

func (a *App) Consultations() ([]domain.ConsultationRequest, error) {
	return a.store.ListConsultations()
}

func (a *App) ConsultationsByEmail(email string) ([]domain.ConsultationRequest, error) {
	return a.store.ListConsultationsByEmail(email)
}

func (a *App) Consultation(id string) (domain.ConsultationRequest, error) {
	c, ok, err := a.store.GetConsultation(id)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	if !ok {
		return domain.ConsultationRequest{}, ErrNotFound
	}
	return c, nil
}

func (a *App) DeleteConsultation(id string) error {
	return a.store.DeleteConsultation(id)
}

// SetStatus sets the process status to any of the 8 stages. Transitions are
// unrestricted for the admin role so mis-clicks can be corrected.
func (a *App) SetStatus(ctx context.Context, id string, status domain.ProcessStatus) (domain.ConsultationRequest, error) {
	if !status.Valid() {
		return domain.ConsultationRequest{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	c, err := a.Consultation(id)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	c.ProcessStatus = status
	c.Status = status.LegacyStatus()
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	a.publishEvent(ctx, "status_changed", c)
	return c, nil
}

// Reply records the admin's answer on a consultation.
func (a *App) Reply(_ context.Context, id, reply string) (domain.ConsultationRequest, error) {
	c, err := a.Consultation(id)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	c.AdminReply = reply
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	return c, nil
}

// SetPaymentAmount records the fee the admin quotes.
func (a *App) SetPaymentAmount(_ context.Context, id string, amount int64) (domain.ConsultationRequest, error) {
	c, err := a.Consultation(id)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	c.PaymentAmount = amount
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	return c, nil
}

// Pay records a payment by the applicant. It always sets isPaid and the
// method; it advances the workflow to DOC_PREP only from FEE_NOTICE or
// PAYMENT. Repeating a payment is accepted and has no further effect.
func (a *App) Pay(ctx context.Context, id string, method domain.PaymentMethod) (domain.ConsultationRequest, error) {
	c, err := a.Consultation(id)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	if c.ProcessStatus.PaymentAdvances() {
		c.ProcessStatus = domain.StatusDocPrep
		c.Status = c.ProcessStatus.LegacyStatus()
	}
	c.IsPaid = true
	c.PaymentMethod = method
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	a.publishEvent(ctx, "paid", c)
	return c, nil
}

func (a *App) publishEvent(ctx context.Context, eventType string, c domain.ConsultationRequest) {
	if a.events == nil {
		return
	}
	ev := notify.ConsultationEvent{
		Type:           eventType,
		ConsultationID: c.ID,
		Email:          c.Email,
		ProcessStatus:  c.ProcessStatus,
		OccurredAt:     time.Now().UTC(),
	}
	if err := a.events.PublishConsultationEvent(ctx, ev); err != nil {
		slog.Warn("consultation event publish failed", "type", eventType, "id", c.ID, "err", err)
	}
}

// --- attachments ---

// AddAttachment stores the payload in the object store and appends the
// metadata record to the consultation.
func (a *App) AddAttachment(ctx context.Context, consultationID, name, contentType string, data []byte, by domain.UploadedBy) (domain.ConsultationRequest, domain.Attachment, error) {
	c, err := a.Consultation(consultationID)
	if err != nil {
		return domain.ConsultationRequest{}, domain.Attachment{}, err
	}
	att := domain.Attachment{
		ID:         util.NewID(),
		Name:       name,
		Size:       int64(len(data)),
		Type:       contentType,
		UploadedBy: by,
		CreatedAt:  time.Now().UTC(),
	}
	att.StorageKey = fmt.Sprintf("attachments/%s/%s", c.ID, att.ID)
	if err := a.objects.Put(ctx, att.StorageKey, bytes.NewReader(data), att.Size, contentType); err != nil {
		return domain.ConsultationRequest{}, domain.Attachment{}, err
	}
	c.Attachments = append(c.Attachments, att)
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, domain.Attachment{}, err
	}
	return c, att, nil
}

// Attachment returns the metadata and payload of one attachment.
func (a *App) Attachment(ctx context.Context, consultationID, attachmentID string) (domain.Attachment, []byte, error) {
	c, err := a.Consultation(consultationID)
	if err != nil {
		return domain.Attachment{}, nil, err
	}
	for _, att := range c.Attachments {
		if att.ID == attachmentID {
			data, err := a.objects.Get(ctx, att.StorageKey)
			if err != nil {
				return domain.Attachment{}, nil, err
			}
			return att, data, nil
		}
	}
	return domain.Attachment{}, nil, ErrNotFound
}

// DeleteAttachment removes the record and its stored payload.
func (a *App) DeleteAttachment(ctx context.Context, consultationID, attachmentID string) (domain.ConsultationRequest, error) {
	c, err := a.Consultation(consultationID)
	if err != nil {
		return domain.ConsultationRequest{}, err
	}
	filtered := make([]domain.Attachment, 0, len(c.Attachments))
	var removed *domain.Attachment
	for _, att := range c.Attachments {
		if att.ID == attachmentID {
			removed = &att
			continue
		}
		filtered = append(filtered, att)
	}
	if removed == nil {
		return domain.ConsultationRequest{}, ErrNotFound
	}
	c.Attachments = filtered
	if err := a.store.UpdateConsultation(c); err != nil {
		return domain.ConsultationRequest{}, err
	}
	if err := a.objects.Delete(ctx, removed.StorageKey); err != nil {
		slog.Warn("attachment payload delete failed", "key", removed.StorageKey, "err", err)
	}
	return c, nil
}

// PreviewAttachment extracts a plain-text snippet from a PDF/HTML/text
// attachment for the admin console. Types without a text form report
// supported=false instead of failing.
func (a *App) PreviewAttachment(ctx context.Context, consultationID, attachmentID string) (string, bool, error) {
	att, data, err := a.Attachment(ctx, consultationID, attachmentID)
	if err != nil {
		return "", false, err
	}
	if !preview.Supported(att.Type) {
		return "", false, nil
	}
	text, err := preview.Extract(att.Type, data)
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// --- CMS ---

func (a *App) ServiceContent(id string) (domain.ServiceContent, error) {
	return a.store.GetServiceContent(id)
}

// ResolvedService resolves the requested scope and document-option text.
func (a *App) ResolvedService(serviceID, subMenuID, docOption string) (content.Scope, string, error) {
	svc, err := a.store.GetServiceContent(serviceID)
	if err != nil {
		return content.Scope{}, "", err
	}
	scope, err := content.ResolveScope(svc, subMenuID)
	if err != nil {
		return content.Scope{}, "", err
	}
	return scope, content.DocumentsFor(scope, docOption), nil
}

// SaveServiceContent replaces the category's content and broadcasts the
// content-updated signal so open navigation views refresh.
func (a *App) SaveServiceContent(ctx context.Context, c domain.ServiceContent) error {
	if err := a.store.SaveServiceContent(c); err != nil {
		return err
	}
	if err := a.broadcaster.ContentUpdated(ctx); err != nil {
		slog.Warn("content-updated broadcast failed", "service", c.ID, "err", err)
	}
	return nil
}

// SaveScope applies a scope edit (root or sub-menu) and saves the result.
func (a *App) SaveScope(ctx context.Context, scope content.Scope) (domain.ServiceContent, error) {
	svc, err := a.store.GetServiceContent(scope.ServiceID)
	if err != nil {
		return domain.ServiceContent{}, err
	}
	updated, err := content.ApplyScope(svc, scope)
	if err != nil {
		return domain.ServiceContent{}, err
	}
	if err := a.SaveServiceContent(ctx, updated); err != nil {
		return domain.ServiceContent{}, err
	}
	return updated, nil
}

func (a *App) Page(id string) (domain.PageContent, error) {
	return a.store.GetPageContent(id)
}

func (a *App) SavePage(p domain.PageContent) error {
	return a.store.SavePageContent(p)
}

func (a *App) FAQs() ([]domain.FAQItem, error) {
	return a.store.ListFAQs()
}

func (a *App) ReplaceFAQs(items []domain.FAQItem) error {
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = util.NewID()
		}
	}
	return a.store.ReplaceFAQs(items)
}

func (a *App) News() ([]domain.NewsItem, error) {
	return a.store.ListNews()
}

func (a *App) AddNews(date, title, body string) (domain.NewsItem, error) {
	if strings.TrimSpace(title) == "" {
		return domain.NewsItem{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(date) == "" {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return a.store.AddNews(date, title, body)
}

func (a *App) DeleteNews(id int64) error {
	return a.store.DeleteNews(id)
}

// --- chat & translation ---

// SendChatMessage appends the user's message to the session, asks the
// model with the session history, and records the reply. Remote failure
// degrades to a canned apology, never to an error.
func (a *App) SendChatMessage(ctx context.Context, sessionID, message string) (domain.ChatSession, error) {
	if strings.TrimSpace(message) == "" {
		return domain.ChatSession{}, fmt.Errorf("%w: message is required", ErrValidation)
	}
	now := time.Now().UTC()
	session := domain.ChatSession{ID: sessionID, StartTime: now}
	if sessionID == "" {
		session.ID = util.NewID()
	} else {
		existing, err := a.store.ListChatSessions()
		if err != nil {
			return domain.ChatSession{}, err
		}
		for _, s := range existing {
			if s.ID == sessionID {
				session = s
				break
			}
		}
	}

	history := make([]ai.Turn, 0, len(session.Messages))
	start := 0
	if len(session.Messages) > chatHistoryLimit {
		start = len(session.Messages) - chatHistoryLimit
	}
	for _, msg := range session.Messages[start:] {
		history = append(history, ai.Turn{Role: msg.Role, Text: msg.Text})
	}

	replyText := chatApology
	if a.generator != nil {
		if generated, err := a.generator.GenerateText(ctx, chatSystemPrompt, history, message); err != nil {
			slog.Warn("chat generation failed", "session", session.ID, "err", err)
		} else if strings.TrimSpace(generated) != "" {
			replyText = generated
		}
	}

	session.Messages = append(session.Messages,
		domain.ChatMessage{ID: util.NewID(), Role: domain.ChatRoleUser, Text: message, Timestamp: now},
		domain.ChatMessage{ID: util.NewID(), Role: domain.ChatRoleModel, Text: replyText, Timestamp: time.Now().UTC()},
	)
	session.LastMessage = message
	if err := a.store.SaveChatSession(session); err != nil {
		return domain.ChatSession{}, err
	}
	return session, nil
}

func (a *App) ChatSessions() ([]domain.ChatSession, error) {
	return a.store.ListChatSessions()
}

// Translate renders text into the target language, falling back to the
// original on any failure.
func (a *App) Translate(ctx context.Context, text, targetLang string) string {
	if a.translator == nil {
		return text
	}
	return a.translator.Translate(ctx, text, targetLang)
}

// --- users / identity ---

// SignIn verifies an external ID token and provisions the user record.
// Users are deduplicated by email; the first sign-in wins.
func (a *App) SignIn(_ context.Context, idToken string) (domain.User, error) {
	if a.identity == nil {
		return domain.User{}, fmt.Errorf("identity provider not configured")
	}
	profile, err := a.identity.Verify(idToken)
	if err != nil {
		return domain.User{}, fmt.Errorf("verify id token: %w", err)
	}
	user := domain.User{
		UID:         profile.Subject,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		PhotoURL:    profile.PhotoURL,
		Provider:    "google",
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, err
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return domain.User{}, err
	}
	for _, u := range users {
		if strings.EqualFold(u.Email, user.Email) {
			return u, nil
		}
	}
	return user, nil
}

func (a *App) Users() ([]domain.User, error) {
	return a.store.ListUsers()
}

// --- admin accounts ---

// VerifyAdmin checks credentials and issues a session token. Credential
// mismatch and pending approval fail with distinct errors so the UI can
// show the right message.
func (a *App) VerifyAdmin(_ context.Context, email, password string) (string, domain.AdminUser, error) {
	admin, ok, err := a.store.GetAdmin(email)
	if err != nil {
		return "", domain.AdminUser{}, err
	}
	if !ok || !auth.CheckPassword(password, admin.PasswordHash) {
		return "", domain.AdminUser{}, ErrInvalidCredentials
	}
	if !admin.IsApproved {
		return "", domain.AdminUser{}, ErrAdminPending
	}
	token, err := a.sessions.NewSession(admin.Email)
	if err != nil {
		return "", domain.AdminUser{}, err
	}
	return token, admin, nil
}

// RegisterAdmin files an access request; the account stays unapproved
// until the super-admin approves it.
func (a *App) RegisterAdmin(_ context.Context, email, password string) (domain.AdminUser, error) {
	if strings.TrimSpace(email) == "" || strings.TrimSpace(password) == "" {
		return domain.AdminUser{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if _, exists, err := a.store.GetAdmin(email); err != nil {
		return domain.AdminUser{}, err
	} else if exists {
		return domain.AdminUser{}, ErrAdminExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.AdminUser{}, fmt.Errorf("hash password: %w", err)
	}
	admin := domain.AdminUser{
		Email:        email,
		PasswordHash: hash,
		IsApproved:   false,
		IsSuperAdmin: false,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveAdmin(admin); err != nil {
		return domain.AdminUser{}, err
	}
	return admin, nil
}

func (a *App) Admins() ([]domain.AdminUser, error) {
	return a.store.ListAdmins()
}

func (a *App) ApproveAdmin(email string) error {
	return a.store.ApproveAdmin(email)
}

func (a *App) DeleteAdmin(email string) error {
	return a.store.DeleteAdmin(email)
}

// AdminByToken resolves a session token to the admin record.
func (a *App) AdminByToken(token string) (domain.AdminUser, bool, error) {
	email, ok, err := a.sessions.GetEmailByToken(token)
	if err != nil || !ok {
		return domain.AdminUser{}, false, err
	}
	return a.store.GetAdmin(email)
}

// Logout invalidates a session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}
