package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/model"
)

// Default admin account
const (
	DefaultAdminEmail    = "admin@example.com"
	DefaultAdminPassword = "changeme"
	DefaultAdminName     = "Administrator"
)

//go:embed seeddata/content.yaml
var defaultContent []byte

// SeedContent is the YAML document describing default site content.
type SeedContent struct {
	Settings []SeedSetting `yaml:"settings"`
	Menus    []SeedMenu    `yaml:"menus"`
	Pages    []SeedPage    `yaml:"pages"`
	Projects []SeedProject `yaml:"projects"`
}

type SeedSetting struct {
	Key         string `yaml:"key"`
	Value       string `yaml:"value"`
	Type        string `yaml:"type"`
	Group       string `yaml:"group"`
	Description string `yaml:"description"`
}

type SeedMenu struct {
	Name     string           `yaml:"name"`
	Location string           `yaml:"location"`
	Items    []model.MenuItem `yaml:"items"`
}

type SeedPage struct {
	Slug            string `yaml:"slug"`
	Title           string `yaml:"title"`
	MetaDescription string `yaml:"meta_description"`
	Status          string `yaml:"status"`
	Content         string `yaml:"content"`
}

type SeedProject struct {
	Name           string  `yaml:"name"`
	Slug           string  `yaml:"slug"`
	Summary        string  `yaml:"summary"`
	Description    string  `yaml:"description"`
	Status         string  `yaml:"status"`
	CapacityMw     float64 `yaml:"capacity_mw"`
	Location       string  `yaml:"location"`
	Currency       string  `yaml:"currency"`
	IsFeatured     bool    `yaml:"is_featured"`
	StartDate      string  `yaml:"start_date"`
	CompletionDate string  `yaml:"completion_date"`
	SortOrder      int64   `yaml:"sort_order"`
}

// SeedOptions controls the initial administrator account.
type SeedOptions struct {
	AdminEmail    string
	AdminPassword string
}

// LoadSeedContent parses the embedded default content document.
func LoadSeedContent() (*SeedContent, error) {
	var c SeedContent
	if err := yaml.Unmarshal(defaultContent, &c); err != nil {
		return nil, fmt.Errorf("parsing seed content: %w", err)
	}
	return &c, nil
}

// Seed creates the initial super admin and default settings, and fills empty
// page, project and menu tables with the default site content. It is safe to
// run on every start.
func Seed(ctx context.Context, db *sql.DB, opts SeedOptions) error {
	queries := New(db)

	if err := seedAdmin(ctx, queries, opts); err != nil {
		return err
	}

	content, err := LoadSeedContent()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for _, s := range content.Settings {
		if err := queries.InsertSettingIfMissing(ctx, UpsertSettingParams{
			Key:         s.Key,
			Value:       s.Value,
			Type:        s.Type,
			GroupName:   s.Group,
			Description: s.Description,
			UpdatedAt:   now,
		}); err != nil {
			return fmt.Errorf("seeding setting %s: %w", s.Key, err)
		}
	}

	if n, err := queries.CountPages(ctx, CountPagesParams{}); err != nil {
		return fmt.Errorf("counting pages: %w", err)
	} else if n == 0 {
		for _, p := range content.Pages {
			if err := seedPage(ctx, queries, p, now); err != nil {
				return err
			}
		}
		slog.Info("seeded default pages", "count", len(content.Pages))
	}

	if n, err := queries.CountProjects(ctx, CountProjectsParams{}); err != nil {
		return fmt.Errorf("counting projects: %w", err)
	} else if n == 0 {
		for _, p := range content.Projects {
			if err := seedProject(ctx, queries, p, now); err != nil {
				return err
			}
		}
		slog.Info("seeded default projects", "count", len(content.Projects))
	}

	menus, err := queries.ListMenus(ctx)
	if err != nil {
		return fmt.Errorf("listing menus: %w", err)
	}
	if len(menus) == 0 {
		for _, m := range content.Menus {
			items, err := json.Marshal(m.Items)
			if err != nil {
				return fmt.Errorf("encoding menu %s: %w", m.Name, err)
			}
			if _, err := queries.CreateMenu(ctx, CreateMenuParams{
				Name:      m.Name,
				Location:  m.Location,
				Items:     string(items),
				CreatedAt: now,
			}); err != nil {
				return fmt.Errorf("seeding menu %s: %w", m.Name, err)
			}
		}
	}

	return nil
}

func seedAdmin(ctx context.Context, queries *Queries, opts SeedOptions) error {
	count, err := queries.CountUsers(ctx, CountUsersParams{})
	if err != nil {
		return fmt.Errorf("counting users: %w", err)
	}
	if count > 0 {
		slog.Info("users already exist, skipping admin seed")
		return nil
	}

	email := strings.ToLower(strings.TrimSpace(opts.AdminEmail))
	if email == "" {
		email = DefaultAdminEmail
	}
	password := opts.AdminPassword
	if password == "" {
		password = DefaultAdminPassword
	}

	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	user, err := queries.CreateUser(ctx, CreateUserParams{
		Email:        email,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	slog.Info("created default admin user", "id", user.ID, "email", user.Email)
	if password == DefaultAdminPassword {
		slog.Warn("default admin password in use, change it after first login", "email", user.Email)
	}
	return nil
}

func seedPage(ctx context.Context, queries *Queries, p SeedPage, now time.Time) error {
	content, err := model.NormalizeContentJSON(json.RawMessage(p.Content))
	if err != nil {
		return fmt.Errorf("seed page %s: %w", p.Slug, err)
	}
	var publishedAt sql.NullTime
	if p.Status == model.PageStatusPublished {
		publishedAt = sql.NullTime{Time: now, Valid: true}
	}
	if _, err := queries.CreatePage(ctx, CreatePageParams{
		Slug:            p.Slug,
		Title:           p.Title,
		Content:         content,
		MetaTitle:       p.Title,
		MetaDescription: p.MetaDescription,
		Status:          p.Status,
		PublishedAt:     publishedAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}); err != nil {
		return fmt.Errorf("seeding page %s: %w", p.Slug, err)
	}
	return nil
}

func seedProject(ctx context.Context, queries *Queries, p SeedProject, now time.Time) error {
	_, err := queries.CreateProject(ctx, CreateProjectParams{
		ProjectFields: ProjectFields{
			Name:           p.Name,
			Slug:           p.Slug,
			Summary:        p.Summary,
			Description:    p.Description,
			Status:         p.Status,
			CapacityMw:     sql.NullFloat64{Float64: p.CapacityMw, Valid: p.CapacityMw > 0},
			Location:       p.Location,
			Currency:       p.Currency,
			IsFeatured:     p.IsFeatured,
			StartDate:      sql.NullString{String: p.StartDate, Valid: p.StartDate != ""},
			CompletionDate: sql.NullString{String: p.CompletionDate, Valid: p.CompletionDate != ""},
			SortOrder:      p.SortOrder,
		},
		CreatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("seeding project %s: %w", p.Slug, err)
	}
	return nil
}
