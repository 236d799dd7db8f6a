package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"kimmigration/pkg/domain"
)

const migrateLockID int64 = 52103712

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db        *gorm.DB
	bootstrap Bootstrap
}

// NewGormStore opens the DB, runs auto-migrations under an advisory lock and
// installs the starter news list when the table is empty.
func NewGormStore(dsn string, b Bootstrap) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(
			&ConsultationModel{},
			&ServiceContentModel{},
			&PageContentModel{},
			&FAQModel{},
			&NewsModel{},
			&ChatSessionModel{},
			&UserModel{},
			&AdminModel{},
		); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		var newsCount int64
		if err := tx.Model(&NewsModel{}).Count(&newsCount).Error; err != nil {
			return fmt.Errorf("count news: %w", err)
		}
		if newsCount == 0 {
			for _, n := range SeedNews() {
				seeded := NewsModel{ID: n.ID, Date: n.Date, Title: n.Title, Content: n.Content}
				if err := tx.Create(&seeded).Error; err != nil {
					return fmt.Errorf("seed news: %w", err)
				}
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db, bootstrap: b}, nil
}

// withMigrationLock serializes schema migration across replicas with a
// Postgres advisory lock.
func withMigrationLock(db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("acquire migration lock: %w", err)
		}
		return fn(tx)
	})
}

func (g *GormStore) SaveConsultation(c domain.ConsultationRequest) error {
	model, err := consultationToModel(c)
	if err != nil {
		return err
	}
	if err := g.db.Create(&model).Error; err != nil {
		return fmt.Errorf("save consultation: %w", err)
	}
	return nil
}

func (g *GormStore) UpdateConsultation(c domain.ConsultationRequest) error {
	model, err := consultationToModel(c)
	if err != nil {
		return err
	}
	// Full-record replace; Save updates every column.
	if err := g.db.Save(&model).Error; err != nil {
		return fmt.Errorf("update consultation: %w", err)
	}
	return nil
}

func (g *GormStore) GetConsultation(id string) (domain.ConsultationRequest, bool, error) {
	var model ConsultationModel
	err := g.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ConsultationRequest{}, false, nil
	}
	if err != nil {
		return domain.ConsultationRequest{}, false, fmt.Errorf("get consultation: %w", err)
	}
	c, err := consultationFromModel(model)
	if err != nil {
		return domain.ConsultationRequest{}, false, err
	}
	return c, true, nil
}

func (g *GormStore) ListConsultations() ([]domain.ConsultationRequest, error) {
	var models []ConsultationModel
	if err := g.db.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return consultationsFromModels(models)
}

func (g *GormStore) ListConsultationsByEmail(email string) ([]domain.ConsultationRequest, error) {
	var models []ConsultationModel
	if err := g.db.Where("LOWER(email) = LOWER(?)", email).
		Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list consultations by email: %w", err)
	}
	return consultationsFromModels(models)
}

func consultationsFromModels(models []ConsultationModel) ([]domain.ConsultationRequest, error) {
	res := make([]domain.ConsultationRequest, 0, len(models))
	for _, m := range models {
		c, err := consultationFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, nil
}

func (g *GormStore) DeleteConsultation(id string) error {
	if err := g.db.Delete(&ConsultationModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete consultation: %w", err)
	}
	return nil
}

func (g *GormStore) GetServiceContent(id string) (domain.ServiceContent, error) {
	var model ServiceContentModel
	err := g.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if id == "visa" {
			return VisaSeedContent(), nil
		}
		return EmptyServiceContent(id), nil
	}
	if err != nil {
		return domain.ServiceContent{}, fmt.Errorf("get service content: %w", err)
	}
	return serviceFromModel(model)
}

func (g *GormStore) SaveServiceContent(c domain.ServiceContent) error {
	model, err := serviceToModel(c)
	if err != nil {
		return err
	}
	if err := g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
		return fmt.Errorf("save service content: %w", err)
	}
	return nil
}

func (g *GormStore) GetPageContent(id string) (domain.PageContent, error) {
	var model PageContentModel
	err := g.db.First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return EmptyPageContent(id), nil
	}
	if err != nil {
		return domain.PageContent{}, fmt.Errorf("get page content: %w", err)
	}
	return domain.PageContent{ID: model.ID, Title: model.Title, Content: model.Content}, nil
}

func (g *GormStore) SavePageContent(p domain.PageContent) error {
	model := PageContentModel{ID: p.ID, Title: p.Title, Content: p.Content}
	if err := g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
		return fmt.Errorf("save page content: %w", err)
	}
	return nil
}

func (g *GormStore) ListFAQs() ([]domain.FAQItem, error) {
	var models []FAQModel
	if err := g.db.Order("position ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	res := make([]domain.FAQItem, 0, len(models))
	for _, m := range models {
		res = append(res, domain.FAQItem{ID: m.ID, Question: m.Question, Answer: m.Answer})
	}
	return res, nil
}

func (g *GormStore) ReplaceFAQs(items []domain.FAQItem) error {
	return g.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&FAQModel{}).Error; err != nil {
			return fmt.Errorf("clear faqs: %w", err)
		}
		for i, item := range items {
			model := FAQModel{ID: item.ID, Question: item.Question, Answer: item.Answer, Position: i}
			if err := tx.Create(&model).Error; err != nil {
				return fmt.Errorf("save faq: %w", err)
			}
		}
		return nil
	})
}

func (g *GormStore) ListNews() ([]domain.NewsItem, error) {
	var models []NewsModel
	if err := g.db.Order("id DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list news: %w", err)
	}
	res := make([]domain.NewsItem, 0, len(models))
	for _, m := range models {
		res = append(res, domain.NewsItem{ID: m.ID, Date: m.Date, Title: m.Title, Content: m.Content})
	}
	return res, nil
}

func (g *GormStore) AddNews(date, title, body string) (domain.NewsItem, error) {
	var item domain.NewsItem
	err := g.db.Transaction(func(tx *gorm.DB) error {
		var maxID int64
		if err := tx.Model(&NewsModel{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return fmt.Errorf("max news id: %w", err)
		}
		model := NewsModel{ID: maxID + 1, Date: date, Title: title, Content: body}
		if err := tx.Create(&model).Error; err != nil {
			return fmt.Errorf("add news: %w", err)
		}
		item = domain.NewsItem{ID: model.ID, Date: date, Title: title, Content: body}
		return nil
	})
	return item, err
}

func (g *GormStore) DeleteNews(id int64) error {
	if err := g.db.Delete(&NewsModel{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete news: %w", err)
	}
	return nil
}

func (g *GormStore) SaveChatSession(s domain.ChatSession) error {
	model, err := chatSessionToModel(s)
	if err != nil {
		return err
	}
	if err := g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
		return fmt.Errorf("save chat session: %w", err)
	}
	return nil
}

func (g *GormStore) ListChatSessions() ([]domain.ChatSession, error) {
	var models []ChatSessionModel
	if err := g.db.Order("updated_at DESC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	res := make([]domain.ChatSession, 0, len(models))
	for _, m := range models {
		s, err := chatSessionFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, s)
	}
	return res, nil
}

func (g *GormStore) SaveUser(u domain.User) error {
	model := UserModel{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
		Provider:    u.Provider,
		CreatedAt:   u.CreatedAt,
	}
	// Dedup by email: first sign-in wins, later ones are no-ops.
	err := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (g *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := g.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, domain.User{
			UID:         m.UID,
			Email:       m.Email,
			DisplayName: m.DisplayName,
			PhotoURL:    m.PhotoURL,
			Provider:    m.Provider,
			CreatedAt:   m.CreatedAt,
		})
	}
	return res, nil
}

func (g *GormStore) ListAdmins() ([]domain.AdminUser, error) {
	if err := g.ensureSuperAdmin(); err != nil {
		return nil, err
	}
	var models []AdminModel
	if err := g.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	res := make([]domain.AdminUser, 0, len(models))
	for _, m := range models {
		res = append(res, adminFromModel(m))
	}
	return res, nil
}

func (g *GormStore) GetAdmin(email string) (domain.AdminUser, bool, error) {
	if err := g.ensureSuperAdmin(); err != nil {
		return domain.AdminUser{}, false, err
	}
	var model AdminModel
	err := g.db.First(&model, "LOWER(email) = LOWER(?)", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AdminUser{}, false, nil
	}
	if err != nil {
		return domain.AdminUser{}, false, fmt.Errorf("get admin: %w", err)
	}
	return adminFromModel(model), true, nil
}

func (g *GormStore) SaveAdmin(a domain.AdminUser) error {
	model := AdminModel{
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		IsApproved:   a.IsApproved,
		IsSuperAdmin: a.IsSuperAdmin,
		CreatedAt:    a.CreatedAt,
	}
	if err := g.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&model).Error; err != nil {
		return fmt.Errorf("save admin: %w", err)
	}
	return nil
}

func (g *GormStore) ApproveAdmin(email string) error {
	err := g.db.Model(&AdminModel{}).
		Where("LOWER(email) = LOWER(?)", email).
		Update("is_approved", true).Error
	if err != nil {
		return fmt.Errorf("approve admin: %w", err)
	}
	return nil
}

func (g *GormStore) DeleteAdmin(email string) error {
	admin, ok, err := g.GetAdmin(email)
	if err != nil {
		return err
	}
	if ok && admin.IsSuperAdmin {
		return ErrSuperAdminDelete
	}
	if err := g.db.Delete(&AdminModel{}, "LOWER(email) = LOWER(?)", email).Error; err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (g *GormStore) ensureSuperAdmin() error {
	boot := BootstrapAdmin(g.bootstrap)
	model := AdminModel{
		Email:        boot.Email,
		PasswordHash: boot.PasswordHash,
		IsApproved:   true,
		IsSuperAdmin: true,
		CreatedAt:    boot.CreatedAt,
	}
	err := g.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoNothing: true,
	}).Create(&model).Error
	if err != nil {
		return fmt.Errorf("ensure super admin: %w", err)
	}
	return nil
}

func adminFromModel(m AdminModel) domain.AdminUser {
	return domain.AdminUser{
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		IsApproved:   m.IsApproved,
		IsSuperAdmin: m.IsSuperAdmin,
		CreatedAt:    m.CreatedAt,
	}
}
