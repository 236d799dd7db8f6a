package store

import (
	"errors"

	"kimmigration/pkg/domain"
)

// ErrSuperAdminDelete is returned when a delete targets the bootstrap
// super-admin account.
var ErrSuperAdminDelete = errors.New("super admin cannot be deleted")

// Store defines persistence for all entity families. Each family is an
// independent collection; no method touches more than one family. Writes are
// full-record replaces, last write wins.
type Store interface {
	// consultations
	SaveConsultation(c domain.ConsultationRequest) error
	UpdateConsultation(c domain.ConsultationRequest) error
	GetConsultation(id string) (domain.ConsultationRequest, bool, error)
	ListConsultations() ([]domain.ConsultationRequest, error)
	ListConsultationsByEmail(email string) ([]domain.ConsultationRequest, error)
	DeleteConsultation(id string) error

	// CMS service contents; GetServiceContent never reports absence, it
	// returns the seed (visa) or an empty shape instead.
	GetServiceContent(id string) (domain.ServiceContent, error)
	SaveServiceContent(c domain.ServiceContent) error

	// static pages
	GetPageContent(id string) (domain.PageContent, error)
	SavePageContent(p domain.PageContent) error

	// FAQ list; replaced wholesale, as the admin console edits it
	ListFAQs() ([]domain.FAQItem, error)
	ReplaceFAQs(items []domain.FAQItem) error

	// news
	ListNews() ([]domain.NewsItem, error)
	AddNews(date, title, body string) (domain.NewsItem, error)
	DeleteNews(id int64) error

	// chat sessions
	SaveChatSession(s domain.ChatSession) error
	ListChatSessions() ([]domain.ChatSession, error)

	// users
	SaveUser(u domain.User) error
	ListUsers() ([]domain.User, error)

	// admins; reads guarantee the bootstrap super-admin exists
	ListAdmins() ([]domain.AdminUser, error)
	GetAdmin(email string) (domain.AdminUser, bool, error)
	SaveAdmin(a domain.AdminUser) error
	ApproveAdmin(email string) error
	DeleteAdmin(email string) error
}

// Bootstrap carries the super-admin identity every store guarantees to exist
// before any admin read.
type Bootstrap struct {
	AdminEmail        string
	AdminPasswordHash string
}

// SessionStore persists admin session tokens.
type SessionStore interface {
	NewSession(email string) (string, error)
	GetEmailByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
