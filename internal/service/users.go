// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

const maxNameLength = 100

var (
	// ErrInvalidCredentials is returned for an unknown email or a wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountDisabled is returned when the account exists but is inactive.
	ErrAccountDisabled = errors.New("account is disabled")
)

// UserService manages admin accounts and enforces the role assignment rules.
type UserService struct {
	db      *sql.DB
	queries *store.Queries
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, queries: store.New(db)}
}

// UserInput is the body of a user create or update. Password is only read
// on create.
type UserInput struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password string  `json:"password"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

// Authenticate checks credentials and returns the active user. The last
// login time is stamped in the background.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (store.User, error) {
	email = normalizeEmail(email)
	user, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		if store.IsNotFound(err) {
			auth.BurnPasswordCheck(password)
			return store.User{}, ErrInvalidCredentials
		}
		return store.User{}, fmt.Errorf("loading user: %w", err)
	}

	ok, err := auth.CheckPassword(password, user.PasswordHash)
	if err != nil || !ok {
		return store.User{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return store.User{}, ErrAccountDisabled
	}

	go func(id int64, rehash bool) {
		bg, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.recordLogin(bg, id, password, rehash)
	}(user.ID, auth.NeedsRehash(user.PasswordHash))

	return user, nil
}

// recordLogin stamps the last login time and, when the stored hash uses
// outdated parameters, replaces it with a fresh one.
func (s *UserService) recordLogin(ctx context.Context, id int64, password string, rehash bool) {
	now := time.Now().UTC()
	if err := s.queries.UpdateUserLastLogin(ctx, id, now); err != nil {
		slog.Warn("failed to update last login", "user_id", id, "error", err)
	}
	if !rehash {
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		slog.Warn("failed to rehash password", "user_id", id, "error", err)
		return
	}
	if err := s.queries.UpdateUserPassword(ctx, id, hash, now); err != nil {
		slog.Warn("failed to store rehashed password", "user_id", id, "error", err)
	}
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (store.User, error) {
	u, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return store.User{}, storeErr(err, "user")
	}
	return u, nil
}

// List returns one page of users and the total matching count.
func (s *UserService) List(ctx context.Context, role, search string, limit, offset int64) ([]store.User, int64, error) {
	if role != "" && !model.IsValidRole(role) {
		return nil, 0, invalid("role", "unknown role %q", role)
	}
	users, err := s.queries.ListUsers(ctx, store.ListUsersParams{Role: role, Search: search, Limit: limit, Offset: offset})
	if err != nil {
		return nil, 0, fmt.Errorf("listing users: %w", err)
	}
	total, err := s.queries.CountUsers(ctx, store.CountUsersParams{Role: role, Search: search})
	if err != nil {
		return nil, 0, fmt.Errorf("counting users: %w", err)
	}
	return users, total, nil
}

// Create adds a user. The actor may only create roles strictly below their
// own unless they are a super admin.
func (s *UserService) Create(ctx context.Context, actor store.User, in UserInput) (store.User, error) {
	u := store.User{Role: model.RoleViewer, IsActive: true}
	if err := applyUserInput(&u, in); err != nil {
		return store.User{}, err
	}
	if !model.CanAssignRole(actor.Role, u.Role) {
		return store.User{}, fmt.Errorf("%w: cannot create a user with role %s", ErrForbidden, u.Role)
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return store.User{}, invalid("password", "%v", err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return store.User{}, fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	created, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: hash,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if store.IsUniqueViolation(err) {
			return store.User{}, conflict("email %s is already registered", u.Email)
		}
		return store.User{}, fmt.Errorf("creating user: %w", err)
	}

	slog.Info("user created", "user_id", created.ID, "role", created.Role, "created_by", actor.ID)
	return created, nil
}

// Update changes a user's profile, role or active flag.
func (s *UserService) Update(ctx context.Context, actor store.User, id int64, in UserInput) (store.User, error) {
	var updated store.User
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetUser(ctx, id)
		if err != nil {
			return storeErr(err, "user")
		}
		if err := canManage(actor, cur); err != nil {
			return err
		}

		next := cur
		if err := applyUserInput(&next, in); err != nil {
			return err
		}
		if next.Role != cur.Role && !model.CanAssignRole(actor.Role, next.Role) {
			return fmt.Errorf("%w: cannot assign role %s", ErrForbidden, next.Role)
		}
		if cur.ID == actor.ID && !next.IsActive {
			return fmt.Errorf("%w: you cannot deactivate your own account", ErrForbidden)
		}
		losesSuper := cur.Role == model.RoleSuperAdmin && cur.IsActive &&
			(next.Role != model.RoleSuperAdmin || !next.IsActive)
		if losesSuper {
			if err := ensureAnotherSuperAdmin(ctx, q); err != nil {
				return err
			}
		}

		updated, err = q.UpdateUser(ctx, store.UpdateUserParams{
			Email:     next.Email,
			Name:      next.Name,
			Role:      next.Role,
			IsActive:  next.IsActive,
			UpdatedAt: time.Now().UTC(),
			ID:        id,
		})
		if err != nil {
			if store.IsUniqueViolation(err) {
				return conflict("email %s is already registered", next.Email)
			}
			return fmt.Errorf("updating user: %w", err)
		}
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	slog.Info("user updated", "user_id", id, "role", updated.Role, "active", updated.IsActive, "updated_by", actor.ID)
	return updated, nil
}

// SetPassword replaces a user's password.
func (s *UserService) SetPassword(ctx context.Context, actor store.User, id int64, password string) error {
	cur, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return storeErr(err, "user")
	}
	if err := canManage(actor, cur); err != nil {
		return err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return invalid("password", "%v", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if err := s.queries.UpdateUserPassword(ctx, id, hash, time.Now().UTC()); err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	slog.Info("user password changed", "user_id", id, "changed_by", actor.ID)
	return nil
}

// Delete removes a user. Nobody may delete themselves and the last active
// super admin cannot be removed.
func (s *UserService) Delete(ctx context.Context, actor store.User, id int64) (store.User, error) {
	if id == actor.ID {
		return store.User{}, fmt.Errorf("%w: you cannot delete your own account", ErrForbidden)
	}
	var deleted store.User
	err := store.InTx(ctx, s.db, func(q *store.Queries) error {
		cur, err := q.GetUser(ctx, id)
		if err != nil {
			return storeErr(err, "user")
		}
		if err := canManage(actor, cur); err != nil {
			return err
		}
		if cur.Role == model.RoleSuperAdmin && cur.IsActive {
			if err := ensureAnotherSuperAdmin(ctx, q); err != nil {
				return err
			}
		}
		if err := q.DeleteUser(ctx, id); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		deleted = cur
		return nil
	})
	if err != nil {
		return store.User{}, err
	}
	slog.Info("user deleted", "user_id", id, "deleted_by", actor.ID)
	return deleted, nil
}

// canManage allows super admins everything, anyone their own account, and
// otherwise only users ranked strictly below the actor.
func canManage(actor, target store.User) error {
	if actor.Role == model.RoleSuperAdmin || actor.ID == target.ID {
		return nil
	}
	if model.RoleRank(target.Role) >= model.RoleRank(actor.Role) {
		return fmt.Errorf("%w: cannot manage a user with role %s", ErrForbidden, target.Role)
	}
	return nil
}

func ensureAnotherSuperAdmin(ctx context.Context, q *store.Queries) error {
	n, err := q.CountActiveUsersByRole(ctx, model.RoleSuperAdmin)
	if err != nil {
		return fmt.Errorf("counting super admins: %w", err)
	}
	if n <= 1 {
		return conflict("the last active super admin cannot be removed, demoted or deactivated")
	}
	return nil
}

func applyUserInput(u *store.User, in UserInput) error {
	if in.Email != nil {
		u.Email = normalizeEmail(*in.Email)
	}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
	}
	if in.Role != nil {
		u.Role = *in.Role
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}

	if _, err := mail.ParseAddress(u.Email); err != nil || !strings.Contains(u.Email, "@") {
		return invalid("email", "must be a valid email address")
	}
	if u.Name == "" {
		return invalid("name", "is required")
	}
	if len(u.Name) > maxNameLength {
		return invalid("name", "must be at most %d characters", maxNameLength)
	}
	if !model.IsValidRole(u.Role) {
		return invalid("role", "unknown role %q", u.Role)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
