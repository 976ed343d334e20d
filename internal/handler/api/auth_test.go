// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"slices"
	"testing"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/testutil"
)

func TestLogin(t *testing.T) {
	a := newTestAPI(t)
	editor, _ := a.userToken(t, "editor@example.com", model.RoleEditor)

	rec := a.do(t, http.MethodPost, "/api/admin/auth/login", "", LoginRequest{
		Email: "Editor@Example.com", Password: testutil.TestPassword,
	})
	var resp TokenResponse
	decode(t, rec, http.StatusOK, &resp)
	if resp.Token == "" || resp.User.ID != editor.ID {
		t.Fatalf("login response = %+v", resp)
	}
	if !slices.Contains(resp.Permissions, model.PermPagesWrite) {
		t.Errorf("editor permissions = %v", resp.Permissions)
	}

	// The issued token works against an authenticated route.
	var me MeResponse
	decode(t, a.do(t, http.MethodGet, "/api/admin/auth/me", resp.Token, nil), http.StatusOK, &me)
	if me.User.Email != "editor@example.com" {
		t.Errorf("me = %+v", me.User)
	}

	if n := countRows(t, a.db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'login' AND user_id = ?`, editor.ID); n != 1 {
		t.Errorf("login audit rows = %d", n)
	}
}

func TestLoginFailures(t *testing.T) {
	a := newTestAPI(t)
	a.userToken(t, "admin@example.com", model.RoleAdmin)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing fields", LoginRequest{Email: "admin@example.com"}, http.StatusBadRequest},
		{"unknown email", LoginRequest{Email: "nobody@example.com", Password: "whatever-password"}, http.StatusUnauthorized},
		{"wrong password", LoginRequest{Email: "admin@example.com", Password: "wrong-password"}, http.StatusUnauthorized},
		{"malformed body", "not an object", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", tt.body), tt.want, nil)
		})
	}
}

func TestLoginLockout(t *testing.T) {
	a := newTestAPI(t)
	a.userToken(t, "target@example.com", model.RoleEditor)
	bad := LoginRequest{Email: "target@example.com", Password: "wrong-password"}

	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", bad), http.StatusUnauthorized, nil)
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", bad), http.StatusUnauthorized, nil)
	rec := a.do(t, http.MethodPost, "/api/admin/auth/login", "", bad)
	decode(t, rec, http.StatusTooManyRequests, nil)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("lockout response without Retry-After")
	}

	// Even the right password is refused while locked.
	good := LoginRequest{Email: "target@example.com", Password: testutil.TestPassword}
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", good), http.StatusTooManyRequests, nil)
}

func TestLoginDisabledAccount(t *testing.T) {
	a := newTestAPI(t)
	u, _ := a.userToken(t, "off@example.com", model.RoleEditor)
	if _, err := a.db.Exec(`UPDATE users SET is_active = 0 WHERE id = ?`, u.ID); err != nil {
		t.Fatal(err)
	}
	body := LoginRequest{Email: "off@example.com", Password: testutil.TestPassword}
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/login", "", body), http.StatusForbidden, nil)
}

func TestRefreshUsesCurrentRole(t *testing.T) {
	a := newTestAPI(t)
	u, token := a.userToken(t, "promoted@example.com", model.RoleEditor)
	if _, err := a.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, model.RoleAdmin, u.ID); err != nil {
		t.Fatal(err)
	}

	var resp TokenResponse
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/refresh", token, nil), http.StatusOK, &resp)
	claims, err := a.tokens.Parse(resp.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("refreshed role = %q", claims.Role)
	}
}

func TestLogout(t *testing.T) {
	a := newTestAPI(t)
	u, token := a.userToken(t, "bye@example.com", model.RoleViewer)
	decode(t, a.do(t, http.MethodPost, "/api/admin/auth/logout", token, nil), http.StatusOK, nil)
	if n := countRows(t, a.db, `SELECT COUNT(*) FROM audit_logs WHERE action = 'logout' AND user_id = ?`, u.ID); n != 1 {
		t.Errorf("logout audit rows = %d", n)
	}
}

func TestUnauthenticatedAndUnknownRoutes(t *testing.T) {
	a := newTestAPI(t)
	decode(t, a.do(t, http.MethodGet, "/api/admin/pages", "", nil), http.StatusUnauthorized, nil)
	decode(t, a.do(t, http.MethodGet, "/api/admin/auth/me", "Bearer junk", nil), http.StatusUnauthorized, nil)
	decode(t, a.do(t, http.MethodGet, "/api/admin/nope", "", nil), http.StatusNotFound, nil)
}
