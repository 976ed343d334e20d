// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines domain constants and value types shared by the store,
// services and handlers: roles and permissions, content statuses, menu items,
// page content blocks and event categories.
package model

import "slices"

// User roles, lowest to highest.
const (
	RoleViewer     = "viewer"
	RoleUser       = "user"
	RoleEditor     = "editor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Roles lists every valid role in ascending rank order.
var Roles = []string{RoleViewer, RoleUser, RoleEditor, RoleAdmin, RoleSuperAdmin}

// RoleRank returns the position of a role in the hierarchy.
// Unknown roles rank 0 and therefore never satisfy a role requirement.
func RoleRank(role string) int {
	switch role {
	case RoleViewer:
		return 1
	case RoleUser:
		return 2
	case RoleEditor:
		return 3
	case RoleAdmin:
		return 4
	case RoleSuperAdmin:
		return 5
	default:
		return 0
	}
}

// IsValidRole reports whether role is one of the known roles.
func IsValidRole(role string) bool {
	return RoleRank(role) > 0
}

// HasRole reports whether role meets or exceeds minRole.
func HasRole(role, minRole string) bool {
	r := RoleRank(role)
	return r > 0 && r >= RoleRank(minRole)
}

// CanAssignRole reports whether an actor holding actorRole may create a user
// with, or move a user to, target. Super admins may assign any role; everyone
// else only roles strictly below their own.
func CanAssignRole(actorRole, target string) bool {
	if !IsValidRole(target) {
		return false
	}
	if actorRole == RoleSuperAdmin {
		return true
	}
	return RoleRank(target) < RoleRank(actorRole)
}

// Permission flags checked by the admin API.
const (
	PermPagesRead       = "pages:read"
	PermPagesWrite      = "pages:write"
	PermPagesDelete     = "pages:delete"
	PermProjectsRead    = "projects:read"
	PermProjectsWrite   = "projects:write"
	PermProjectsDelete  = "projects:delete"
	PermMediaRead       = "media:read"
	PermMediaWrite      = "media:write"
	PermMediaDelete     = "media:delete"
	PermMenusRead       = "menus:read"
	PermMenusWrite      = "menus:write"
	PermUsersRead       = "users:read"
	PermUsersWrite      = "users:write"
	PermSettingsRead    = "settings:read"
	PermSettingsWrite   = "settings:write"
	PermAnalyticsRead   = "analytics:read"
	PermAnalyticsManage = "analytics:manage"
	PermAuditRead       = "audit:read"
	PermAuditManage     = "audit:manage"
	PermLogsRead        = "logs:read"
	PermBackupsManage   = "backups:manage"
	PermContactRead     = "contact:read"
	PermContactManage   = "contact:manage"
)

// AllPermissions lists every permission flag.
var AllPermissions = []string{
	PermPagesRead, PermPagesWrite, PermPagesDelete,
	PermProjectsRead, PermProjectsWrite, PermProjectsDelete,
	PermMediaRead, PermMediaWrite, PermMediaDelete,
	PermMenusRead, PermMenusWrite,
	PermUsersRead, PermUsersWrite,
	PermSettingsRead, PermSettingsWrite,
	PermAnalyticsRead, PermAnalyticsManage,
	PermAuditRead, PermAuditManage,
	PermLogsRead,
	PermBackupsManage,
	PermContactRead, PermContactManage,
}

// IsValidPermission reports whether perm is a known permission flag.
func IsValidPermission(perm string) bool {
	return slices.Contains(AllPermissions, perm)
}
