package store

import (
	"strings"
	"sync"

	"kimmigration/pkg/domain"
)

// MemoryStore keeps all collections in-process. It is the dev/test backend
// beside GormStore and shares its seeding behavior.
type MemoryStore struct {
	mu        sync.RWMutex
	bootstrap Bootstrap

	consultations []domain.ConsultationRequest // newest first
	services      map[string]domain.ServiceContent
	pages         map[string]domain.PageContent
	faqs          []domain.FAQItem
	news          []domain.NewsItem // newest first
	newsSeeded    bool
	chats         []domain.ChatSession // newest first
	users         []domain.User
	admins        []domain.AdminUser
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore(b Bootstrap) *MemoryStore {
	return &MemoryStore{
		bootstrap: b,
		services:  make(map[string]domain.ServiceContent),
		pages:     make(map[string]domain.PageContent),
	}
}

func (m *MemoryStore) SaveConsultation(c domain.ConsultationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.consultations = append([]domain.ConsultationRequest{c}, m.consultations...)
	return nil
}

func (m *MemoryStore) UpdateConsultation(c domain.ConsultationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.consultations {
		if m.consultations[i].ID == c.ID {
			m.consultations[i] = c
			return nil
		}
	}
	return nil
}

func (m *MemoryStore) GetConsultation(id string) (domain.ConsultationRequest, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.consultations {
		if c.ID == id {
			return c, true, nil
		}
	}
	return domain.ConsultationRequest{}, false, nil
}

func (m *MemoryStore) ListConsultations() ([]domain.ConsultationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ConsultationRequest, len(m.consultations))
	copy(res, m.consultations)
	return res, nil
}

func (m *MemoryStore) ListConsultationsByEmail(email string) ([]domain.ConsultationRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ConsultationRequest, 0)
	for _, c := range m.consultations {
		if strings.EqualFold(c.Email, email) {
			res = append(res, c)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteConsultation(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	filtered := m.consultations[:0]
	for _, c := range m.consultations {
		if c.ID != id {
			filtered = append(filtered, c)
		}
	}
	m.consultations = filtered
	return nil
}

func (m *MemoryStore) GetServiceContent(id string) (domain.ServiceContent, error) {
	m.mu.RLock()
	svc, ok := m.services[id]
	m.mu.RUnlock()
	if ok {
		return svc.Clone(), nil
	}
	if id == "visa" {
		return VisaSeedContent(), nil
	}
	return EmptyServiceContent(id), nil
}

func (m *MemoryStore) SaveServiceContent(c domain.ServiceContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.services[c.ID] = c
	return nil
}

func (m *MemoryStore) GetPageContent(id string) (domain.PageContent, error) {
	m.mu.RLock()
	p, ok := m.pages[id]
	m.mu.RUnlock()
	if ok {
		return p, nil
	}
	return EmptyPageContent(id), nil
}

func (m *MemoryStore) SavePageContent(p domain.PageContent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pages[p.ID] = p
	return nil
}

func (m *MemoryStore) ListFAQs() ([]domain.FAQItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.FAQItem, len(m.faqs))
	copy(res, m.faqs)
	return res, nil
}

func (m *MemoryStore) ReplaceFAQs(items []domain.FAQItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faqs = make([]domain.FAQItem, len(items))
	copy(m.faqs, items)
	return nil
}

func (m *MemoryStore) ListNews() ([]domain.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedNewsLocked()
	res := make([]domain.NewsItem, len(m.news))
	copy(res, m.news)
	return res, nil
}

func (m *MemoryStore) AddNews(date, title, body string) (domain.NewsItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedNewsLocked()
	var maxID int64
	for _, n := range m.news {
		if n.ID > maxID {
			maxID = n.ID
		}
	}
	item := domain.NewsItem{ID: maxID + 1, Date: date, Title: title, Content: body}
	m.news = append([]domain.NewsItem{item}, m.news...)
	return item, nil
}

func (m *MemoryStore) DeleteNews(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seedNewsLocked()
	filtered := m.news[:0]
	for _, n := range m.news {
		if n.ID != id {
			filtered = append(filtered, n)
		}
	}
	m.news = filtered
	return nil
}

// seedNewsLocked installs the starter list on first access. Seeding happens
// once; deleting every item afterwards leaves the list empty.
func (m *MemoryStore) seedNewsLocked() {
	if m.newsSeeded {
		return
	}
	m.news = SeedNews()
	m.newsSeeded = true
}

func (m *MemoryStore) SaveChatSession(s domain.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.chats {
		if m.chats[i].ID == s.ID {
			m.chats[i] = s
			return nil
		}
	}
	m.chats = append([]domain.ChatSession{s}, m.chats...)
	return nil
}

func (m *MemoryStore) ListChatSessions() ([]domain.ChatSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.ChatSession, len(m.chats))
	copy(res, m.chats)
	return res, nil
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return nil
		}
	}
	m.users = append(m.users, u)
	return nil
}

func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, len(m.users))
	copy(res, m.users)
	return res, nil
}

func (m *MemoryStore) ListAdmins() ([]domain.AdminUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSuperAdminLocked()
	res := make([]domain.AdminUser, len(m.admins))
	copy(res, m.admins)
	return res, nil
}

func (m *MemoryStore) GetAdmin(email string) (domain.AdminUser, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSuperAdminLocked()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) {
			return a, true, nil
		}
	}
	return domain.AdminUser{}, false, nil
}

func (m *MemoryStore) SaveAdmin(a domain.AdminUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSuperAdminLocked()
	for i := range m.admins {
		if strings.EqualFold(m.admins[i].Email, a.Email) {
			m.admins[i] = a
			return nil
		}
	}
	m.admins = append(m.admins, a)
	return nil
}

func (m *MemoryStore) ApproveAdmin(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.admins {
		if strings.EqualFold(m.admins[i].Email, email) {
			m.admins[i].IsApproved = true
		}
	}
	return nil
}

func (m *MemoryStore) DeleteAdmin(email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, email) && a.IsSuperAdmin {
			return ErrSuperAdminDelete
		}
	}
	filtered := m.admins[:0]
	for _, a := range m.admins {
		if !strings.EqualFold(a.Email, email) {
			filtered = append(filtered, a)
		}
	}
	m.admins = filtered
	return nil
}

func (m *MemoryStore) ensureSuperAdminLocked() {
	for _, a := range m.admins {
		if strings.EqualFold(a.Email, m.bootstrap.AdminEmail) {
			return
		}
	}
	m.admins = append(m.admins, BootstrapAdmin(m.bootstrap))
}
