// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/kpp-site/internal/middleware"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
	"github.com/olegiv/kpp-site/internal/store"
)

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	Token       string       `json:"token"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
}

// MeResponse describes the authenticated user.
type MeResponse struct {
	User        UserResponse `json:"user"`
	Permissions []string     `json:"permissions"`
}

// Login handles POST /api/admin/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteBadRequest(w, "Email and password are required")
		return
	}
	ip := middleware.ClientIP(r)

	if locked, remaining := h.login.IsAccountLocked(req.Email); locked {
		writeLocked(w, remaining)
		return
	}

	user, err := h.users.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			_ = h.events.LogAuth(r.Context(), model.EventLevelWarning, "Failed login attempt", 0, ip,
				map[string]any{"email": req.Email})
			if locked, d := h.login.RecordFailedAttempt(req.Email); locked {
				_ = h.events.LogSecurity(r.Context(), "Account locked after failed logins", 0, ip, r.URL.Path,
					map[string]any{"email": req.Email, "duration": d.String()})
				writeLocked(w, d)
				return
			}
			middleware.WriteAPIError(w, http.StatusUnauthorized, "Invalid email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			_ = h.events.LogAuth(r.Context(), model.EventLevelWarning, "Login to disabled account", 0, ip,
				map[string]any{"email": req.Email})
			middleware.WriteAPIError(w, http.StatusForbidden, "Account is disabled")
		default:
			writeServiceError(w, r, err, "log in")
		}
		return
	}

	h.login.RecordSuccessfulLogin(req.Email)
	resp, err := h.issueToken(r, user)
	if err != nil {
		writeServiceError(w, r, err, "issue token")
		return
	}
	slog.Info("user logged in", "user_id", user.ID, "email", user.Email, "ip", ip)
	_ = h.events.LogAuth(r.Context(), model.EventLevelInfo, "User logged in", user.ID, ip, nil)
	_ = h.audit.Record(r.Context(), service.AuditEntry{
		UserID:       user.ID,
		Action:       model.AuditActionLogin,
		ResourceType: model.ResourceSession,
		ResourceID:   strconv.FormatInt(user.ID, 10),
		IPAddress:    ip,
		UserAgent:    r.UserAgent(),
	})
	WriteSuccess(w, resp, nil)
}

func writeLocked(w http.ResponseWriter, remaining time.Duration) {
	minutes := int(math.Ceil(remaining.Minutes()))
	w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(remaining.Seconds()))))
	middleware.WriteAPIError(w, http.StatusTooManyRequests,
		fmt.Sprintf("Account temporarily locked. Try again in %d minute(s).", max(minutes, 1)))
}

func (h *Handler) issueToken(r *http.Request, user store.User) (TokenResponse, error) {
	token, exp, err := h.tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return TokenResponse{}, err
	}
	perms, err := h.perms.For(r.Context(), user.Role)
	if err != nil {
		return TokenResponse{}, err
	}
	return TokenResponse{Token: token, ExpiresAt: exp, User: userResponse(user), Permissions: perms}, nil
}

// Me handles GET /api/admin/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	perms, err := h.perms.For(r.Context(), user.Role)
	if err != nil {
		writeServiceError(w, r, err, "load permissions")
		return
	}
	WriteSuccess(w, MeResponse{User: userResponse(*user), Permissions: perms}, nil)
}

// Refresh handles POST /api/admin/auth/refresh. The new token carries the
// user's current role.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	resp, err := h.issueToken(r, *middleware.GetUser(r))
	if err != nil {
		writeServiceError(w, r, err, "issue token")
		return
	}
	WriteSuccess(w, resp, nil)
}

// Logout handles POST /api/admin/auth/logout. Tokens are stateless, so this
// only records the event; the client discards the token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r)
	h.recordAudit(r, model.AuditActionLogout, model.ResourceSession, user.ID, nil)
	WriteSuccess(w, map[string]string{"message": "Logged out"}, nil)
}
