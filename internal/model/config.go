// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Setting value types
const (
	SettingTypeString = "string"
	SettingTypeBool   = "bool"
	SettingTypeInt    = "int"
	SettingTypeJSON   = "json"
)

// Well-known setting keys read by the public site.
const (
	SettingSiteName        = "site_name"
	SettingSiteTagline     = "site_tagline"
	SettingContactEmail    = "contact_email"
	SettingContactPhone    = "contact_phone"
	SettingContactAddress  = "contact_address"
	SettingAnalyticsOn     = "analytics_enabled"
	SettingMaintenanceMode = "maintenance_mode"
	SettingSocialLinks     = "social_links"
)

// ValidateSettingValue checks that value parses as the declared type.
func ValidateSettingValue(settingType, value string) error {
	switch settingType {
	case SettingTypeString, "":
		return nil
	case SettingTypeBool:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("value %q is not a boolean", value)
		}
	case SettingTypeInt:
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			return fmt.Errorf("value %q is not an integer", value)
		}
	case SettingTypeJSON:
		if !json.Valid([]byte(value)) {
			return fmt.Errorf("value is not valid JSON")
		}
	default:
		return fmt.Errorf("unknown setting type %q", settingType)
	}
	return nil
}
