package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Menu locations rendered by the public layout.
const (
	MenuLocationHeader = "header"
	MenuLocationFooter = "footer"
)

// Menu target values
const (
	TargetSelf  = "_self"
	TargetBlank = "_blank"
)

// ValidTargets contains all valid link target values.
var ValidTargets = []string{TargetSelf, TargetBlank}

// maxMenuDepth bounds nesting of menu items.
const maxMenuDepth = 3

// MenuItem is one entry in a menu's ordered item list.
type MenuItem struct {
	Label    string     `json:"label"`
	URL      string     `json:"url"`
	Target   string     `json:"target,omitempty"`
	Children []MenuItem `json:"children,omitempty"`
}

// IsValidTarget checks if a target value is valid.
func IsValidTarget(target string) bool {
	for _, t := range ValidTargets {
		if t == target {
			return true
		}
	}
	return false
}

// ValidateMenuItems checks labels, URLs, targets and nesting depth.
// Empty targets are normalised to _self in place.
func ValidateMenuItems(items []MenuItem) error {
	return validateMenuItems(items, 1, "items")
}

func validateMenuItems(items []MenuItem, depth int, path string) error {
	if depth > maxMenuDepth {
		return fmt.Errorf("%s: menus may be nested at most %d levels", path, maxMenuDepth)
	}
	for i := range items {
		item := &items[i]
		at := fmt.Sprintf("%s[%d]", path, i)
		item.Label = strings.TrimSpace(item.Label)
		item.URL = strings.TrimSpace(item.URL)
		if item.Label == "" {
			return fmt.Errorf("%s: label is required", at)
		}
		if item.URL == "" {
			return fmt.Errorf("%s: url is required", at)
		}
		if lower := strings.ToLower(item.URL); strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "data:") {
			return fmt.Errorf("%s: url scheme not allowed", at)
		}
		if item.Target == "" {
			item.Target = TargetSelf
		}
		if !IsValidTarget(item.Target) {
			return fmt.Errorf("%s: invalid target %q", at, item.Target)
		}
		if err := validateMenuItems(item.Children, depth+1, at+".children"); err != nil {
			return err
		}
	}
	return nil
}

// ParseMenuItems decodes a stored item list.
func ParseMenuItems(raw string) ([]MenuItem, error) {
	items := []MenuItem{}
	if raw == "" {
		return items, nil
	}
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("parsing menu items: %w", err)
	}
	return items, nil
}
