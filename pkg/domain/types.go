package domain

import "time"

type UploadedBy string

const (
	UploadedByUser  UploadedBy = "user"
	UploadedByAdmin UploadedBy = "admin"
)

type PaymentMethod string

const (
	PayBankTransfer   PaymentMethod = "BankTransfer"
	PayVirtualAccount PaymentMethod = "VirtualAccount"
	PayCreditCard     PaymentMethod = "CreditCard"
	PayPayPal         PaymentMethod = "PayPal"
)

// Attachment is a file attached to a consultation. Bytes live in the
// object store under StorageKey; the record itself carries metadata only.
type Attachment struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	Type       string     `json:"type"`
	StorageKey string     `json:"-"`
	UploadedBy UploadedBy `json:"uploadedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// ConsultationRequest is a consultation inquiry / service application.
type ConsultationRequest struct {
	ID            string        `json:"id"`
	ServiceType   string        `json:"serviceType,omitempty"`
	Name          string        `json:"name"`
	Email         string        `json:"email"`
	Phone         string        `json:"phone"`
	PassportNo    string        `json:"passportNo"`
	Content       string        `json:"content"`
	CreatedAt     time.Time     `json:"createdAt"`
	Status        string        `json:"status,omitempty"` // legacy pending/completed flag
	ProcessStatus ProcessStatus `json:"processStatus"`
	Attachments   []Attachment  `json:"attachments"`
	AdminReply    string        `json:"adminReply,omitempty"`
	PaymentAmount int64         `json:"paymentAmount,omitempty"`
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`
	IsPaid        bool          `json:"isPaid"`
}

// DocumentOption is a selectable variant of the required-documents text.
type DocumentOption struct {
	Label   string `json:"label"`
	Value   string `json:"value"`
	Content string `json:"content"`
}

// SubMenuContent is an independently scoped content block under a service.
// Fields are scope-local: a sub-menu never inherits from its parent service.
type SubMenuContent struct {
	ID              string           `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description,omitempty"`
	Target          string           `json:"target"`
	Documents       string           `json:"documents"`
	DocumentOptions []DocumentOption `json:"documentOptions,omitempty"`
	Reference       string           `json:"reference"`
	ContentBody     string           `json:"contentBody,omitempty"`
	Procedure       string           `json:"procedure"`
}

// ServiceContent is the CMS content for one service category.
type ServiceContent struct {
	ID              string           `json:"id"`
	Target          string           `json:"target"`
	Documents       string           `json:"documents"`
	DocumentOptions []DocumentOption `json:"documentOptions,omitempty"`
	Reference       string           `json:"reference"`
	ContentBody     string           `json:"contentBody,omitempty"`
	Procedure       string           `json:"procedure"`
	SubMenus        []SubMenuContent `json:"subMenus"`
}

// Clone returns a deep copy so callers can mutate the result without
// touching stored state.
func (c ServiceContent) Clone() ServiceContent {
	c.DocumentOptions = append([]DocumentOption(nil), c.DocumentOptions...)
	subMenus := make([]SubMenuContent, len(c.SubMenus))
	for i, sub := range c.SubMenus {
		sub.DocumentOptions = append([]DocumentOption(nil), sub.DocumentOptions...)
		subMenus[i] = sub
	}
	c.SubMenus = subMenus
	return c
}

// ServiceCategories is the fixed set of top-level service ids.
var ServiceCategories = []string{
	"visa", "stay", "immigration", "refugee", "nationality", "registration", "other",
}

// PageIDs is the fixed set of static page ids.
var PageIDs = []string{"terms", "privacy", "intro", "fees", "refund", "faq"}

// PageContent is a static page (terms, privacy, ...). Content is HTML.
type PageContent struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type FAQItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type NewsItem struct {
	ID      int64  `json:"id"`
	Date    string `json:"date"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      ChatRole  `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession is one widget conversation, upserted on every message.
type ChatSession struct {
	ID          string        `json:"id"`
	StartTime   time.Time     `json:"startTime"`
	LastMessage string        `json:"lastMessage"`
	Messages    []ChatMessage `json:"messages"`
}

// User is a site visitor provisioned from an external identity sign-in.
type User struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	PhotoURL    string    `json:"photoURL"`
	Provider    string    `json:"provider"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdminUser is a console operator. PasswordHash is a bcrypt hash.
type AdminUser struct {
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsApproved   bool      `json:"isApproved"`
	IsSuperAdmin bool      `json:"isSuperAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}
