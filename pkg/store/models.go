package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"kimmigration/pkg/domain"
)

// GORM models used for persistence. Nested collections (attachments,
// document options, sub-menus, chat messages) are stored as JSON columns.
type ConsultationModel struct {
	ID            string `gorm:"primaryKey"`
	ServiceType   string
	Name          string `gorm:"not null"`
	Email         string `gorm:"not null;index"`
	Phone         string
	PassportNo    string
	Content       string `gorm:"type:text"`
	Status        string
	ProcessStatus string         `gorm:"not null"`
	Attachments   datatypes.JSON `gorm:"type:jsonb"`
	AdminReply    string         `gorm:"type:text"`
	PaymentAmount int64
	PaymentMethod string
	IsPaid        bool
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time
}

type ServiceContentModel struct {
	ID              string `gorm:"primaryKey"`
	Target          string `gorm:"type:text"`
	Documents       string `gorm:"type:text"`
	DocumentOptions datatypes.JSON `gorm:"type:jsonb"`
	Reference       string `gorm:"type:text"`
	ContentBody     string `gorm:"type:text"`
	Procedure       string `gorm:"type:text"`
	SubMenus        datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt       time.Time
}

type PageContentModel struct {
	ID        string `gorm:"primaryKey"`
	Title     string
	Content   string `gorm:"type:text"`
	UpdatedAt time.Time
}

type FAQModel struct {
	ID       string `gorm:"primaryKey"`
	Question string `gorm:"type:text;not null"`
	Answer   string `gorm:"type:text"`
	Position int    `gorm:"not null;index"`
}

type NewsModel struct {
	ID        int64  `gorm:"primaryKey;autoIncrement:false"`
	Date      string `gorm:"not null"`
	Title     string `gorm:"not null"`
	Content   string `gorm:"type:text"`
	CreatedAt time.Time
}

type ChatSessionModel struct {
	ID          string    `gorm:"primaryKey"`
	StartTime   time.Time `gorm:"not null"`
	LastMessage string    `gorm:"type:text"`
	Messages    datatypes.JSON `gorm:"type:jsonb"`
	UpdatedAt   time.Time `gorm:"index"`
}

type UserModel struct {
	UID         string `gorm:"primaryKey"`
	Email       string `gorm:"uniqueIndex;not null"`
	DisplayName string
	PhotoURL    string
	Provider    string
	CreatedAt   time.Time `gorm:"not null"`
}

type AdminModel struct {
	Email        string `gorm:"primaryKey"`
	PasswordHash string `gorm:"not null"`
	IsApproved   bool
	IsSuperAdmin bool
	CreatedAt    time.Time `gorm:"not null"`
}

// DecodeSubMenus parses a stored sub-menu column. Legacy records hold a bare
// list of title strings; those are upgraded to full blocks with fresh ids
// and empty fields. Old data never errors, it is upgraded on next save.
func DecodeSubMenus(raw []byte) ([]domain.SubMenuContent, error) {
	if len(raw) == 0 {
		return []domain.SubMenuContent{}, nil
	}
	var subs []domain.SubMenuContent
	if err := json.Unmarshal(raw, &subs); err == nil {
		if subs == nil {
			subs = []domain.SubMenuContent{}
		}
		return subs, nil
	}
	var titles []string
	if err := json.Unmarshal(raw, &titles); err != nil {
		return nil, fmt.Errorf("decode sub-menus: %w", err)
	}
	subs = make([]domain.SubMenuContent, 0, len(titles))
	for _, title := range titles {
		subs = append(subs, NewSubMenu(title))
	}
	return subs, nil
}

func marshalJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func consultationToModel(c domain.ConsultationRequest) (ConsultationModel, error) {
	attachments, err := marshalJSON(c.Attachments)
	if err != nil {
		return ConsultationModel{}, err
	}
	return ConsultationModel{
		ID:            c.ID,
		ServiceType:   c.ServiceType,
		Name:          c.Name,
		Email:         c.Email,
		Phone:         c.Phone,
		PassportNo:    c.PassportNo,
		Content:       c.Content,
		Status:        c.Status,
		ProcessStatus: string(c.ProcessStatus),
		Attachments:   attachments,
		AdminReply:    c.AdminReply,
		PaymentAmount: c.PaymentAmount,
		PaymentMethod: string(c.PaymentMethod),
		IsPaid:        c.IsPaid,
		CreatedAt:     c.CreatedAt,
	}, nil
}

func consultationFromModel(m ConsultationModel) (domain.ConsultationRequest, error) {
	attachments := []domain.Attachment{}
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &attachments); err != nil {
			return domain.ConsultationRequest{}, fmt.Errorf("decode attachments: %w", err)
		}
	}
	return domain.ConsultationRequest{
		ID:            m.ID,
		ServiceType:   m.ServiceType,
		Name:          m.Name,
		Email:         m.Email,
		Phone:         m.Phone,
		PassportNo:    m.PassportNo,
		Content:       m.Content,
		Status:        m.Status,
		ProcessStatus: domain.ProcessStatus(m.ProcessStatus),
		Attachments:   attachments,
		AdminReply:    m.AdminReply,
		PaymentAmount: m.PaymentAmount,
		PaymentMethod: domain.PaymentMethod(m.PaymentMethod),
		IsPaid:        m.IsPaid,
		CreatedAt:     m.CreatedAt,
	}, nil
}

func serviceToModel(c domain.ServiceContent) (ServiceContentModel, error) {
	options, err := marshalJSON(c.DocumentOptions)
	if err != nil {
		return ServiceContentModel{}, err
	}
	subs, err := marshalJSON(c.SubMenus)
	if err != nil {
		return ServiceContentModel{}, err
	}
	return ServiceContentModel{
		ID:              c.ID,
		Target:          c.Target,
		Documents:       c.Documents,
		DocumentOptions: options,
		Reference:       c.Reference,
		ContentBody:     c.ContentBody,
		Procedure:       c.Procedure,
		SubMenus:        subs,
	}, nil
}

func serviceFromModel(m ServiceContentModel) (domain.ServiceContent, error) {
	var options []domain.DocumentOption
	if len(m.DocumentOptions) > 0 {
		if err := json.Unmarshal(m.DocumentOptions, &options); err != nil {
			return domain.ServiceContent{}, fmt.Errorf("decode document options: %w", err)
		}
	}
	subs, err := DecodeSubMenus(m.SubMenus)
	if err != nil {
		return domain.ServiceContent{}, err
	}
	return domain.ServiceContent{
		ID:              m.ID,
		Target:          m.Target,
		Documents:       m.Documents,
		DocumentOptions: options,
		Reference:       m.Reference,
		ContentBody:     m.ContentBody,
		Procedure:       m.Procedure,
		SubMenus:        subs,
	}, nil
}

func chatSessionToModel(s domain.ChatSession) (ChatSessionModel, error) {
	messages, err := marshalJSON(s.Messages)
	if err != nil {
		return ChatSessionModel{}, err
	}
	return ChatSessionModel{
		ID:          s.ID,
		StartTime:   s.StartTime,
		LastMessage: s.LastMessage,
		Messages:    messages,
	}, nil
}

func chatSessionFromModel(m ChatSessionModel) (domain.ChatSession, error) {
	messages := []domain.ChatMessage{}
	if len(m.Messages) > 0 {
		if err := json.Unmarshal(m.Messages, &messages); err != nil {
			return domain.ChatSession{}, fmt.Errorf("decode chat messages: %w", err)
		}
	}
	return domain.ChatSession{
		ID:          m.ID,
		StartTime:   m.StartTime,
		LastMessage: m.LastMessage,
		Messages:    messages,
	}, nil
}
