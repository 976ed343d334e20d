package store

import (
	"database/sql"
	"time"
)

type User struct {
	ID           int64        `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	PasswordHash string       `json:"-"`
	Role         string       `json:"role"`
	IsActive     bool         `json:"is_active"`
	LastLoginAt  sql.NullTime `json:"last_login_at"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type Page struct {
	ID              int64         `json:"id"`
	Slug            string        `json:"slug"`
	Title           string        `json:"title"`
	Content         string        `json:"content"`
	MetaTitle       string        `json:"meta_title"`
	MetaDescription string        `json:"meta_description"`
	MetaKeywords    string        `json:"meta_keywords"`
	OgImage         string        `json:"og_image"`
	Status          string        `json:"status"`
	CreatedBy       sql.NullInt64 `json:"created_by"`
	UpdatedBy       sql.NullInt64 `json:"updated_by"`
	PublishedAt     sql.NullTime  `json:"published_at"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type Project struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	Slug           string          `json:"slug"`
	Summary        string          `json:"summary"`
	Description    string          `json:"description"`
	Status         string          `json:"status"`
	CapacityMw     sql.NullFloat64 `json:"capacity_mw"`
	Location       string          `json:"location"`
	Budget         sql.NullFloat64 `json:"budget"`
	Currency       string          `json:"currency"`
	FeaturedImage  string          `json:"featured_image"`
	IsFeatured     bool            `json:"is_featured"`
	StartDate      sql.NullString  `json:"start_date"`
	CompletionDate sql.NullString  `json:"completion_date"`
	SortOrder      int64           `json:"sort_order"`
	CreatedBy      sql.NullInt64   `json:"created_by"`
	UpdatedBy      sql.NullInt64   `json:"updated_by"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type ContentVersion struct {
	ID            int64         `json:"id"`
	ContentType   string        `json:"content_type"`
	ContentID     int64         `json:"content_id"`
	VersionNumber int64         `json:"version_number"`
	Data          string        `json:"data"`
	ChangeSummary string        `json:"change_summary"`
	CreatedBy     sql.NullInt64 `json:"created_by"`
	CreatedAt     time.Time     `json:"created_at"`
}

type Medium struct {
	ID            int64          `json:"id"`
	Filename      string         `json:"filename"`
	OriginalName  string         `json:"original_name"`
	StoragePath   string         `json:"storage_path"`
	MimeType      string         `json:"mime_type"`
	Size          int64          `json:"size"`
	Width         sql.NullInt64  `json:"width"`
	Height        sql.NullInt64  `json:"height"`
	AltText       string         `json:"alt_text"`
	Tags          string         `json:"tags"`
	ThumbnailPath sql.NullString `json:"thumbnail_path"`
	UploadedBy    sql.NullInt64  `json:"uploaded_by"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type Menu struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	Items     string    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Setting struct {
	Key         string        `json:"key"`
	Value       string        `json:"value"`
	Type        string        `json:"type"`
	GroupName   string        `json:"group_name"`
	Description string        `json:"description"`
	UpdatedBy   sql.NullInt64 `json:"updated_by"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

type AuditLog struct {
	ID           int64          `json:"id"`
	UserID       sql.NullInt64  `json:"user_id"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   sql.NullString `json:"resource_id"`
	Details      string         `json:"details"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	CreatedAt    time.Time      `json:"created_at"`
}

type Event struct {
	ID         int64         `json:"id"`
	Level      string        `json:"level"`
	Category   string        `json:"category"`
	Message    string        `json:"message"`
	UserID     sql.NullInt64 `json:"user_id"`
	IPAddress  string        `json:"ip_address"`
	RequestURL string        `json:"request_url"`
	Metadata   string        `json:"metadata"`
	CreatedAt  time.Time     `json:"created_at"`
}

type AnalyticsEvent struct {
	ID             int64     `json:"id"`
	EventType      string    `json:"event_type"`
	Path           string    `json:"path"`
	ReferrerDomain string    `json:"referrer_domain"`
	VisitorHash    string    `json:"visitor_hash"`
	SessionHash    string    `json:"session_hash"`
	DeviceType     string    `json:"device_type"`
	Browser        string    `json:"browser"`
	Os             string    `json:"os"`
	CountryCode    string    `json:"country_code"`
	Language       string    `json:"language"`
	Metadata       string    `json:"metadata"`
	CreatedAt      time.Time `json:"created_at"`
}

type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	IPAddress string    `json:"ip_address"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
