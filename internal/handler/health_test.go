// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/kpp-site/internal/auth"
	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/testutil"
)

func newHealthHandler(t *testing.T) (*HealthHandler, *auth.TokenManager) {
	t.Helper()
	db := testutil.TestDB(t)
	tokens := auth.NewTokenManager("0123456789abcdef0123456789abcdef-health", time.Hour)
	// A missing uploads dir reports healthy regardless of free disk space.
	return NewHealthHandler(db, tokens, filepath.Join(t.TempDir(), "uploads")), tokens
}

func healthRequest(t *testing.T, h http.HandlerFunc, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHealthPublic(t *testing.T) {
	h, _ := newHealthHandler(t)

	rec := healthRequest(t, h.Health, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]any{"status": StatusHealthy}, body)
}

func TestHealthDetailsForAdmins(t *testing.T) {
	h, tokens := newHealthHandler(t)

	tests := []struct {
		name     string
		role     string
		detailed bool
	}{
		{"editor", model.RoleEditor, false},
		{"admin", model.RoleAdmin, true},
		{"super admin", model.RoleSuperAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := tokens.Issue(1, "x@example.com", tt.role)
			require.NoError(t, err)

			rec := healthRequest(t, h.Health, "/health?verbose=true", token)
			require.Equal(t, http.StatusOK, rec.Code)

			var status HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
			assert.Equal(t, StatusHealthy, status.Status)
			if !tt.detailed {
				assert.Empty(t, status.Checks)
				return
			}
			assert.Equal(t, StatusHealthy, status.Checks["database"].Status)
			assert.Contains(t, status.Checks, "disk")
			require.NotNil(t, status.System)
			assert.Positive(t, status.System.NumCPU)
			assert.NotEmpty(t, status.Version.Version)
		})
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	db := testutil.TestDB(t)
	h := NewHealthHandler(db, nil, filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, db.Close())

	rec := healthRequest(t, h.Health, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), StatusDegraded)

	rec = healthRequest(t, h.Readiness, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "message")
}

func TestLivenessAndReadiness(t *testing.T) {
	h, _ := newHealthHandler(t)

	rec := healthRequest(t, h.Liveness, "/health/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alive")

	rec = healthRequest(t, h.Readiness, "/health/ready", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{512, "512 B"},
		{2048, "2.00 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}
