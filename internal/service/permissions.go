package service

import (
	"context"
	"database/sql"
	"slices"

	"github.com/olegiv/kpp-site/internal/cache"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

// PermissionService resolves a role's permission flags from role_permissions,
// cached per role.
type PermissionService struct {
	queries *store.Queries
	cache   *cache.Manager
}

// NewPermissionService creates a PermissionService. cm may be nil.
func NewPermissionService(db *sql.DB, cm *cache.Manager) *PermissionService {
	return &PermissionService{queries: store.New(db), cache: cm}
}

// For returns the permission flags granted to role. super_admin holds every
// flag regardless of the table.
func (s *PermissionService) For(ctx context.Context, role string) ([]string, error) {
	if role == model.RoleSuperAdmin {
		return slices.Clone(model.AllPermissions), nil
	}
	if !model.IsValidRole(role) {
		return []string{}, nil
	}

	load := func() (*[]string, error) {
		perms, err := s.queries.ListRolePermissions(ctx, role)
		if err != nil {
			return nil, err
		}
		return &perms, nil
	}

	if s.cache == nil {
		perms, err := load()
		if err != nil {
			return nil, err
		}
		return *perms, nil
	}
	perms, err := s.cache.Permissions.GetOrSet(ctx, role, load)
	if err != nil {
		return nil, err
	}
	return *perms, nil
}

// Has reports whether role holds perm.
func (s *PermissionService) Has(ctx context.Context, role, perm string) (bool, error) {
	if role == model.RoleSuperAdmin {
		return true, nil
	}
	perms, err := s.For(ctx, role)
	if err != nil {
		return false, err
	}
	return slices.Contains(perms, perm), nil
}
