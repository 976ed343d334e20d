// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"encoding/json"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
	"github.com/olegiv/kpp-site/internal/util"
)

// UserResponse represents a user in API responses. The password hash never
// leaves the store.
type UserResponse struct {
	ID          int64      `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func userResponse(u store.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: util.TimePtr(u.LastLoginAt),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// PageResponse represents a page in API responses.
type PageResponse struct {
	ID              int64           `json:"id"`
	Slug            string          `json:"slug"`
	Title           string          `json:"title"`
	Content         json.RawMessage `json:"content"`
	MetaTitle       string          `json:"meta_title"`
	MetaDescription string          `json:"meta_description"`
	MetaKeywords    string          `json:"meta_keywords"`
	OgImage         string          `json:"og_image"`
	Status          string          `json:"status"`
	CreatedBy       *int64          `json:"created_by"`
	UpdatedBy       *int64          `json:"updated_by"`
	PublishedAt     *time.Time      `json:"published_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func pageResponse(p store.Page) PageResponse {
	return PageResponse{
		ID:              p.ID,
		Slug:            p.Slug,
		Title:           p.Title,
		Content:         rawJSON(p.Content, "{}"),
		MetaTitle:       p.MetaTitle,
		MetaDescription: p.MetaDescription,
		MetaKeywords:    p.MetaKeywords,
		OgImage:         p.OgImage,
		Status:          p.Status,
		CreatedBy:       util.Int64Ptr(p.CreatedBy),
		UpdatedBy:       util.Int64Ptr(p.UpdatedBy),
		PublishedAt:     util.TimePtr(p.PublishedAt),
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Slug           string    `json:"slug"`
	Summary        string    `json:"summary"`
	Description    string    `json:"description"`
	Status         string    `json:"status"`
	StatusLabel    string    `json:"status_label"`
	CapacityMw     *float64  `json:"capacity_mw"`
	Location       string    `json:"location"`
	Budget         *float64  `json:"budget"`
	Currency       string    `json:"currency"`
	FeaturedImage  string    `json:"featured_image"`
	IsFeatured     bool      `json:"is_featured"`
	StartDate      *string   `json:"start_date"`
	CompletionDate *string   `json:"completion_date"`
	SortOrder      int64     `json:"sort_order"`
	CreatedBy      *int64    `json:"created_by"`
	UpdatedBy      *int64    `json:"updated_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func projectResponse(p store.Project) ProjectResponse {
	return ProjectResponse{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		Summary:        p.Summary,
		Description:    p.Description,
		Status:         p.Status,
		StatusLabel:    model.ProjectStatusLabel(p.Status),
		CapacityMw:     util.Float64Ptr(p.CapacityMw),
		Location:       p.Location,
		Budget:         util.Float64Ptr(p.Budget),
		Currency:       p.Currency,
		FeaturedImage:  p.FeaturedImage,
		IsFeatured:     p.IsFeatured,
		StartDate:      util.StringPtr(p.StartDate),
		CompletionDate: util.StringPtr(p.CompletionDate),
		SortOrder:      p.SortOrder,
		CreatedBy:      util.Int64Ptr(p.CreatedBy),
		UpdatedBy:      util.Int64Ptr(p.UpdatedBy),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// VersionResponse represents one content snapshot. Data is the entity as it
// was before the change recorded by the snapshot.
type VersionResponse struct {
	ID            int64           `json:"id"`
	ContentType   string          `json:"content_type"`
	ContentID     int64           `json:"content_id"`
	VersionNumber int64           `json:"version_number"`
	Data          json.RawMessage `json:"data,omitempty"`
	ChangeSummary string          `json:"change_summary"`
	CreatedBy     *int64          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

func versionResponse(v store.ContentVersion, withData bool) VersionResponse {
	resp := VersionResponse{
		ID:            v.ID,
		ContentType:   v.ContentType,
		ContentID:     v.ContentID,
		VersionNumber: v.VersionNumber,
		ChangeSummary: v.ChangeSummary,
		CreatedBy:     util.Int64Ptr(v.CreatedBy),
		CreatedAt:     v.CreatedAt,
	}
	if withData {
		resp.Data = rawJSON(v.Data, "{}")
	}
	return resp
}

// MediaResponse represents an uploaded file.
type MediaResponse struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"original_name"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	MimeType     string    `json:"mime_type"`
	Size         int64     `json:"size"`
	Width        *int64    `json:"width"`
	Height       *int64    `json:"height"`
	AltText      string    `json:"alt_text"`
	Tags         []string  `json:"tags"`
	UploadedBy   *int64    `json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func mediaResponse(m store.Medium) MediaResponse {
	resp := MediaResponse{
		ID:           m.ID,
		Filename:     m.Filename,
		OriginalName: m.OriginalName,
		URL:          service.URL(m.StoragePath),
		MimeType:     m.MimeType,
		Size:         m.Size,
		Width:        util.Int64Ptr(m.Width),
		Height:       util.Int64Ptr(m.Height),
		AltText:      m.AltText,
		Tags:         model.ParseTags(m.Tags),
		UploadedBy:   util.Int64Ptr(m.UploadedBy),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.ThumbnailPath.Valid && m.ThumbnailPath.String != "" {
		u := service.URL(m.ThumbnailPath.String)
		resp.ThumbnailURL = &u
	}
	return resp
}

// MenuResponse represents a navigation menu with its decoded items.
type MenuResponse struct {
	ID        int64            `json:"id"`
	Name      string           `json:"name"`
	Location  string           `json:"location"`
	Items     []model.MenuItem `json:"items"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

func menuResponse(m store.Menu) MenuResponse {
	items, err := model.ParseMenuItems(m.Items)
	if err != nil || items == nil {
		items = []model.MenuItem{}
	}
	return MenuResponse{
		ID:        m.ID,
		Name:      m.Name,
		Location:  m.Location,
		Items:     items,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// SettingResponse represents one site setting.
type SettingResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        string    `json:"type"`
	Group       string    `json:"group"`
	Description string    `json:"description"`
	UpdatedBy   *int64    `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func settingResponse(s store.Setting) SettingResponse {
	return SettingResponse{
		Key:         s.Key,
		Value:       s.Value,
		Type:        s.Type,
		Group:       s.GroupName,
		Description: s.Description,
		UpdatedBy:   util.Int64Ptr(s.UpdatedBy),
		UpdatedAt:   s.UpdatedAt,
	}
}

// AuditLogResponse represents one audit row.
type AuditLogResponse struct {
	ID           int64           `json:"id"`
	UserID       *int64          `json:"user_id"`
	UserEmail    *string         `json:"user_email"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   *string         `json:"resource_id"`
	Details      json.RawMessage `json:"details"`
	IPAddress    string          `json:"ip_address"`
	UserAgent    string          `json:"user_agent"`
	CreatedAt    time.Time       `json:"created_at"`
}

func auditLogResponse(a store.AuditLogWithUser) AuditLogResponse {
	return AuditLogResponse{
		ID:           a.ID,
		UserID:       util.Int64Ptr(a.UserID),
		UserEmail:    util.StringPtr(a.UserEmail),
		Action:       a.Action,
		ResourceType: a.ResourceType,
		ResourceID:   util.StringPtr(a.ResourceID),
		Details:      rawJSON(a.Details, "{}"),
		IPAddress:    a.IPAddress,
		UserAgent:    a.UserAgent,
		CreatedAt:    a.CreatedAt,
	}
}

func auditLogResponses(rows []store.AuditLogWithUser) []AuditLogResponse {
	out := make([]AuditLogResponse, 0, len(rows))
	for _, a := range rows {
		out = append(out, auditLogResponse(a))
	}
	return out
}

// EventResponse represents one system log row.
type EventResponse struct {
	ID         int64           `json:"id"`
	Level      string          `json:"level"`
	Category   string          `json:"category"`
	Message    string          `json:"message"`
	UserID     *int64          `json:"user_id"`
	IPAddress  string          `json:"ip_address"`
	RequestURL string          `json:"request_url"`
	Metadata   json.RawMessage `json:"metadata"`
	CreatedAt  time.Time       `json:"created_at"`
}

func eventResponse(e store.Event) EventResponse {
	return EventResponse{
		ID:         e.ID,
		Level:      e.Level,
		Category:   e.Category,
		Message:    e.Message,
		UserID:     util.Int64Ptr(e.UserID),
		IPAddress:  e.IPAddress,
		RequestURL: e.RequestURL,
		Metadata:   rawJSON(e.Metadata, "{}"),
		CreatedAt:  e.CreatedAt,
	}
}

// AnalyticsEventResponse represents one anonymised analytics row.
type AnalyticsEventResponse struct {
	ID             int64           `json:"id"`
	EventType      string          `json:"event_type"`
	Path           string          `json:"path"`
	ReferrerDomain string          `json:"referrer_domain"`
	DeviceType     string          `json:"device_type"`
	Browser        string          `json:"browser"`
	OS             string          `json:"os"`
	CountryCode    string          `json:"country_code"`
	Language       string          `json:"language"`
	Metadata       json.RawMessage `json:"metadata"`
	CreatedAt      time.Time       `json:"created_at"`
}

func analyticsEventResponse(e store.AnalyticsEvent) AnalyticsEventResponse {
	return AnalyticsEventResponse{
		ID:             e.ID,
		EventType:      e.EventType,
		Path:           e.Path,
		ReferrerDomain: e.ReferrerDomain,
		DeviceType:     e.DeviceType,
		Browser:        e.Browser,
		OS:             e.Os,
		CountryCode:    e.CountryCode,
		Language:       e.Language,
		Metadata:       rawJSON(e.Metadata, "{}"),
		CreatedAt:      e.CreatedAt,
	}
}

// DashboardResponse is service.Dashboard with audit rows converted.
type DashboardResponse struct {
	service.Dashboard
	RecentActivity []AuditLogResponse `json:"recent_activity"`
}

// rawJSON passes stored JSON through unchanged, substituting def for empty
// or corrupt values so the response always encodes.
func rawJSON(s, def string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage(def)
	}
	return json.RawMessage(s)
}
