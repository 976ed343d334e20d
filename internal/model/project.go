// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// Project statuses, in lifecycle order.
const (
	ProjectStatusPlanning       = "planning"
	ProjectStatusDevelopment    = "development"
	ProjectStatusConstruction   = "construction"
	ProjectStatusOperational    = "operational"
	ProjectStatusDecommissioned = "decommissioned"
)

// ProjectStatuses lists every valid project status.
var ProjectStatuses = []string{
	ProjectStatusPlanning,
	ProjectStatusDevelopment,
	ProjectStatusConstruction,
	ProjectStatusOperational,
	ProjectStatusDecommissioned,
}

// IsValidProjectStatus reports whether s is a known project status.
func IsValidProjectStatus(s string) bool {
	for _, st := range ProjectStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// ProjectStatusLabel returns a display label for a status.
func ProjectStatusLabel(s string) string {
	switch s {
	case ProjectStatusPlanning:
		return "Planning"
	case ProjectStatusDevelopment:
		return "In development"
	case ProjectStatusConstruction:
		return "Under construction"
	case ProjectStatusOperational:
		return "Operational"
	case ProjectStatusDecommissioned:
		return "Decommissioned"
	default:
		return s
	}
}

// Versioned content types stored in content_versions.content_type.
const (
	ContentTypePage    = "page"
	ContentTypeProject = "project"
)
