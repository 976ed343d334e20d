// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/logging"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// Context keys set by this package.
const (
	ContextKeyUser   ContextKey = "user"
	ContextKeyClaims ContextKey = "claims"
)

// BearerAuth requires a valid admin token. The user is reloaded on every
// request so deactivation and role changes apply immediately.
func BearerAuth(tokens *auth.TokenManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := auth.ExtractBearer(r.Header.Get("Authorization"))
			if raw == "" {
				WriteAPIError(w, http.StatusUnauthorized, "Missing or malformed Authorization header")
				return
			}

			claims, err := tokens.Parse(raw)
			if err != nil {
				msg := "Invalid token"
				if errors.Is(err, auth.ErrTokenExpired) {
					msg = "Token expired"
				}
				WriteAPIError(w, http.StatusUnauthorized, msg)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				WriteAPIError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			user, err := queries.GetUser(r.Context(), userID)
			if err != nil {
				if store.IsNotFound(err) {
					WriteAPIError(w, http.StatusUnauthorized, "User no longer exists")
					return
				}
				slog.Error("failed to load token user", "user_id", userID, "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !user.IsActive {
				WriteAPIError(w, http.StatusUnauthorized, "Account is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, user)
			ctx = context.WithValue(ctx, ContextKeyClaims, claims)
			info, _ := logging.RequestInfoFrom(ctx)
			info.UserID = user.ID
			ctx = logging.WithRequestInfo(ctx, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUser returns the authenticated user, or nil.
func GetUser(r *http.Request) *store.User {
	user, ok := r.Context().Value(ContextKeyUser).(store.User)
	if !ok {
		return nil
	}
	return &user
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// GetClaims returns the parsed token claims, or nil.
func GetClaims(r *http.Request) *auth.Claims {
	c, _ := r.Context().Value(ContextKeyClaims).(*auth.Claims)
	return c
}

// RequestInfo attaches path and client IP to the context so WARN+ records
// mirrored into the events table carry them. BearerAuth adds the user ID.
func RequestInfo(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithRequestInfo(r.Context(), logging.RequestInfo{
			IPAddress: ClientIP(r),
			URL:       r.URL.Path,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Guard enforces roles and permission flags after BearerAuth. Denials are
// written to the security event log.
type Guard struct {
	perms  *service.PermissionService
	events *service.EventService
}

// NewGuard creates a Guard. events may be nil.
func NewGuard(perms *service.PermissionService, events *service.EventService) *Guard {
	return &Guard{perms: perms, events: events}
}

// RequireRole allows users whose role ranks at least minRole.
func (g *Guard) RequireRole(minRole string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			if !model.HasRole(user.Role, minRole) {
				g.deny(w, r, user, map[string]any{"required_role": minRole})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequirePermission allows users whose role grants perm.
func (g *Guard) RequirePermission(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				WriteAPIError(w, http.StatusUnauthorized, "Authentication required")
				return
			}
			ok, err := g.perms.Has(r.Context(), user.Role, perm)
			if err != nil {
				slog.Error("permission lookup failed", "role", user.Role, "permission", perm, "error", err)
				WriteAPIError(w, http.StatusInternalServerError, "Internal server error")
				return
			}
			if !ok {
				g.deny(w, r, user, map[string]any{"permission": perm})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (g *Guard) deny(w http.ResponseWriter, r *http.Request, user *store.User, meta map[string]any) {
	slog.Info("access denied",
		"method", r.Method,
		"path", r.URL.Path,
		"user_id", user.ID,
		"user_role", user.Role,
	)
	if g.events != nil {
		meta["method"] = r.Method
		meta["user_role"] = user.Role
		if err := g.events.LogAccessDenied(r.Context(), user.ID, ClientIP(r), r.URL.Path, meta); err != nil {
			slog.Error("failed to record access denial", "error", err)
		}
	}
	WriteAPIError(w, http.StatusForbidden, "Forbidden: insufficient permissions")
}
