package model

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth      = "auth"
	EventCategoryPage      = "page"
	EventCategoryProject   = "project"
	EventCategoryUser      = "user"
	EventCategoryMedia     = "media"
	EventCategoryConfig    = "config"
	EventCategoryBackup    = "backup"
	EventCategorySystem    = "system"
	EventCategoryCache     = "cache"
	EventCategorySecurity  = "security"
	EventCategoryAnalytics = "analytics"
)

// Audit actions
const (
	AuditActionCreate  = "create"
	AuditActionUpdate  = "update"
	AuditActionDelete  = "delete"
	AuditActionPublish = "publish"
	AuditActionRestore = "restore"
	AuditActionLogin   = "login"
	AuditActionLogout  = "logout"
	AuditActionUpload  = "upload"
	AuditActionBackup  = "backup"
	AuditActionPrune   = "prune"
	AuditActionRun     = "run"
)

// Audit resource types
const (
	ResourcePage      = "page"
	ResourceProject   = "project"
	ResourceUser      = "user"
	ResourceMedia     = "media"
	ResourceMenu      = "menu"
	ResourceSetting   = "setting"
	ResourceBackup    = "backup"
	ResourceAuditLog  = "audit_log"
	ResourceAnalytics = "analytics"
	ResourceContact   = "contact_message"
	ResourceCache     = "cache"
	ResourceSession   = "session"
	ResourceJob       = "job"
)
