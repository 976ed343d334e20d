package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

// SiteService manages navigation menus and site settings.
type SiteService struct {
	db      *sql.DB
	queries *store.Queries
	cache   *cache.Manager
}

// NewSiteService creates a SiteService. cm may be nil.
func NewSiteService(db *sql.DB, cm *cache.Manager) *SiteService {
	return &SiteService{db: db, queries: store.New(db), cache: cm}
}

// MenuInput is the body of a menu create or update.
type MenuInput struct {
	Name     *string           `json:"name"`
	Location *string           `json:"location"`
	Items    *[]model.MenuItem `json:"items"`
}

// SettingUpdate is one entry of a settings update.
type SettingUpdate struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Type        string `json:"type"`
	Group       string `json:"group"`
	Description string `json:"description"`
}

var settingKeySeparators = strings.NewReplacer("_", "", ".", "")

// ---- menus ----

// ListMenus returns all menus ordered by location and name.
func (s *SiteService) ListMenus(ctx context.Context) ([]store.Menu, error) {
	return s.queries.ListMenus(ctx)
}

// GetMenu returns a menu by ID.
func (s *SiteService) GetMenu(ctx context.Context, id int64) (store.Menu, error) {
	m, err := s.queries.GetMenu(ctx, id)
	if err != nil {
		return store.Menu{}, storeErr(err, "menu")
	}
	return m, nil
}

// CreateMenu validates in and inserts a menu.
func (s *SiteService) CreateMenu(ctx context.Context, in MenuInput) (store.Menu, error) {
	name, location, items, err := applyMenuInput("", "", "[]", in)
	if err != nil {
		return store.Menu{}, err
	}
	m, err := s.queries.CreateMenu(ctx, store.CreateMenuParams{
		Name:      name,
		Location:  location,
		Items:     items,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.Menu{}, conflict("menu %q already exists at %q", name, location)
		}
		return store.Menu{}, fmt.Errorf("creating menu: %w", err)
	}
	s.invalidateMenus(ctx)
	return m, nil
}

// UpdateMenu applies in to a menu.
func (s *SiteService) UpdateMenu(ctx context.Context, id int64, in MenuInput) (store.Menu, error) {
	cur, err := s.queries.GetMenu(ctx, id)
	if err != nil {
		return store.Menu{}, storeErr(err, "menu")
	}
	name, location, items, err := applyMenuInput(cur.Name, cur.Location, cur.Items, in)
	if err != nil {
		return store.Menu{}, err
	}
	m, err := s.queries.UpdateMenu(ctx, store.UpdateMenuParams{
		Name:      name,
		Location:  location,
		Items:     items,
		UpdatedAt: time.Now().UTC(),
		ID:        id,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.Menu{}, conflict("menu %q already exists at %q", name, location)
		}
		return store.Menu{}, storeErr(err, "menu")
	}
	s.invalidateMenus(ctx)
	return m, nil
}

// DeleteMenu removes a menu.
func (s *SiteService) DeleteMenu(ctx context.Context, id int64) (store.Menu, error) {
	m, err := s.queries.GetMenu(ctx, id)
	if err != nil {
		return store.Menu{}, storeErr(err, "menu")
	}
	if err := s.queries.DeleteMenu(ctx, id); err != nil {
		return store.Menu{}, fmt.Errorf("deleting menu: %w", err)
	}
	s.invalidateMenus(ctx)
	return m, nil
}

// MenuItems returns the parsed items of the menu at location, from cache
// when possible. A missing menu yields no items.
func (s *SiteService) MenuItems(ctx context.Context, location string) []model.MenuItem {
	load := func() (*store.Menu, error) {
		m, err := s.queries.GetMenuByLocation(ctx, location)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}

	var (
		m   *store.Menu
		err error
	)
	if s.cache == nil {
		m, err = load()
	} else {
		m, err = s.cache.Menus.GetOrSet(ctx, location, load)
	}
	if err != nil {
		if !store.IsNotFound(err) {
			slog.Warn("failed to load menu", "location", location, "error", err)
		}
		return nil
	}

	items, err := model.ParseMenuItems(m.Items)
	if err != nil {
		slog.Warn("stored menu items are invalid", "menu_id", m.ID, "error", err)
		return nil
	}
	return items
}

func applyMenuInput(name, location, items string, in MenuInput) (string, string, string, error) {
	setString(&name, in.Name)
	setString(&location, in.Location)
	name = strings.TrimSpace(name)
	location = strings.TrimSpace(location)
	if name == "" {
		return "", "", "", invalid("name", "is required")
	}
	if location == "" {
		return "", "", "", invalid("location", "is required")
	}
	if in.Items != nil {
		list := *in.Items
		if list == nil {
			list = []model.MenuItem{}
		}
		if err := model.ValidateMenuItems(list); err != nil {
			return "", "", "", invalid("items", "%v", err)
		}
		b, err := json.Marshal(list)
		if err != nil {
			return "", "", "", fmt.Errorf("encoding menu items: %w", err)
		}
		items = string(b)
	}
	return name, location, items, nil
}

func (s *SiteService) invalidateMenus(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateMenus(ctx)
	}
}

// ---- settings ----

// ListSettings returns all settings, optionally limited to one group.
func (s *SiteService) ListSettings(ctx context.Context, group string) ([]store.Setting, error) {
	return s.queries.ListSettings(ctx, group)
}

// UpdateSettings validates and upserts every entry in one transaction. A new
// key without an explicit type is stored as a string; an existing key keeps
// its type unless one is given.
func (s *SiteService) UpdateSettings(ctx context.Context, updates []SettingUpdate, actorID int64) ([]store.Setting, error) {
	if len(updates) == 0 {
		return nil, invalid("settings", "at least one setting is required")
	}

	var saved []store.Setting
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		now := time.Now().UTC()
		for _, u := range updates {
			key := strings.TrimSpace(u.Key)
			if !validSettingKey(key) {
				return invalid("key", "invalid setting key %q", u.Key)
			}

			params := store.UpsertSettingParams{
				Key:         key,
				Value:       u.Value,
				Type:        u.Type,
				GroupName:   u.Group,
				Description: u.Description,
				UpdatedBy:   nullID(actorID),
				UpdatedAt:   now,
			}
			cur, err := q.GetSetting(ctx, key)
			switch {
			case err == nil:
				if params.Type == "" {
					params.Type = cur.Type
				}
				if params.GroupName == "" {
					params.GroupName = cur.GroupName
				}
				if params.Description == "" {
					params.Description = cur.Description
				}
			case store.IsNotFound(err):
				if params.Type == "" {
					params.Type = model.SettingTypeString
				}
				if params.GroupName == "" {
					params.GroupName = "general"
				}
			default:
				return fmt.Errorf("reading setting %s: %w", key, err)
			}

			if err := model.ValidateSettingValue(params.Type, params.Value); err != nil {
				return invalid(key, "%v", err)
			}
			st, err := q.UpsertSetting(ctx, params)
			if err != nil {
				return fmt.Errorf("saving setting %s: %w", key, err)
			}
			saved = append(saved, st)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.InvalidateSettings(ctx)
	}
	slog.Info("settings updated", "count", len(saved), "updated_by", actorID)
	return saved, nil
}

// DeleteSetting removes a setting so readers fall back to their default.
func (s *SiteService) DeleteSetting(ctx context.Context, key string) (store.Setting, error) {
	st, err := s.queries.GetSetting(ctx, key)
	if err != nil {
		return store.Setting{}, storeErr(err, "setting")
	}
	if err := s.queries.DeleteSetting(ctx, key); err != nil {
		return store.Setting{}, fmt.Errorf("deleting setting %s: %w", key, err)
	}
	if s.cache != nil {
		s.cache.InvalidateSettings(ctx)
	}
	return st, nil
}

// Settings returns every setting as a key/value map, from cache when possible.
func (s *SiteService) Settings(ctx context.Context) map[string]string {
	load := func() (*map[string]string, error) {
		list, err := s.queries.ListSettings(ctx, "")
		if err != nil {
			return nil, err
		}
		m := make(map[string]string, len(list))
		for _, st := range list {
			m[st.Key] = st.Value
		}
		return &m, nil
	}

	var (
		m   *map[string]string
		err error
	)
	if s.cache == nil {
		m, err = load()
	} else {
		m, err = s.cache.Settings.GetOrSet(ctx, "all", load)
	}
	if err != nil {
		slog.Warn("failed to load settings", "error", err)
		return map[string]string{}
	}
	return *m
}

// SettingBool reads a boolean setting, returning def when unset or invalid.
func (s *SiteService) SettingBool(ctx context.Context, key string, def bool) bool {
	v, ok := s.Settings(ctx)[key]
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func validSettingKey(key string) bool {
	if key == "" || len(key) > 100 {
		return false
	}
	for _, r := range settingKeySeparators.Replace(key) {
		if !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')) {
			return false
		}
	}
	return true
}
