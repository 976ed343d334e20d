// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/olegiv/kpp-site/internal/store"
)

// Key prefixes of the site caches.
const (
	prefixPage       = "page:"
	prefixMenu       = "menu:"
	prefixSettings   = "settings:"
	prefixPermission = "perm:"
	prefixProjects   = "projects:"
	prefixSitemap    = "sitemap:"
)

// Manager groups the typed caches used by the public site and the permission
// middleware over one shared backend.
type Manager struct {
	backend Cacher
	kind    string

	Pages       *TypedCache[store.Page]
	Menus       *TypedCache[store.Menu]
	Settings    *TypedCache[map[string]string]
	Permissions *TypedCache[[]string]
	Projects    *TypedCache[[]store.Project]
	Sitemap     *TypedCache[string]
}

// NewManager creates a manager over backend. kind names the backend for the
// stats endpoint.
func NewManager(backend Cacher, kind string, ttl time.Duration) *Manager {
	return &Manager{
		backend:     backend,
		kind:        kind,
		Pages:       NewTypedCache[store.Page](backend, prefixPage, ttl),
		Menus:       NewTypedCache[store.Menu](backend, prefixMenu, ttl),
		Settings:    NewTypedCache[map[string]string](backend, prefixSettings, ttl),
		Permissions: NewTypedCache[[]string](backend, prefixPermission, ttl),
		Projects:    NewTypedCache[[]store.Project](backend, prefixProjects, ttl),
		Sitemap:     NewTypedCache[string](backend, prefixSitemap, ttl),
	}
}

// Backend returns "memory" or "redis".
func (m *Manager) Backend() string {
	return m.kind
}

// InvalidatePage drops a cached page and everything derived from the page list.
func (m *Manager) InvalidatePage(ctx context.Context, slugs ...string) {
	for _, slug := range slugs {
		m.logErr(m.Pages.Delete(ctx, slug))
	}
	m.logErr(m.Sitemap.Invalidate(ctx))
}

// InvalidateProjects drops cached project lists and the sitemap.
func (m *Manager) InvalidateProjects(ctx context.Context) {
	m.logErr(m.Projects.Invalidate(ctx))
	m.logErr(m.Sitemap.Invalidate(ctx))
}

// InvalidateMenus drops all cached menus.
func (m *Manager) InvalidateMenus(ctx context.Context) {
	m.logErr(m.Menus.Invalidate(ctx))
}

// InvalidateSettings drops the cached settings map.
func (m *Manager) InvalidateSettings(ctx context.Context) {
	m.logErr(m.Settings.Invalidate(ctx))
}

// InvalidatePermissions drops cached role permission sets.
func (m *Manager) InvalidatePermissions(ctx context.Context) {
	m.logErr(m.Permissions.Invalidate(ctx))
}

// ClearAll clears the backend and resets statistics.
func (m *Manager) ClearAll(ctx context.Context) error {
	if err := m.backend.Clear(ctx); err != nil {
		return err
	}
	if sp, ok := m.backend.(StatsProvider); ok {
		sp.ResetStats()
	}
	return nil
}

// Stats returns backend statistics, or zero stats when the backend does not
// track them.
func (m *Manager) Stats() Stats {
	if sp, ok := m.backend.(StatsProvider); ok {
		return sp.Stats()
	}
	return Stats{}
}

// Close releases the backend.
func (m *Manager) Close() error {
	return m.backend.Close()
}

func (m *Manager) logErr(err error) {
	if err != nil && !errors.Is(err, ErrCacheClosed) {
		slog.Warn("cache invalidation failed", "error", err)
	}
}
