// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session configures the cookie sessions that carry flash messages
// for the public site.
package session

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
)

// CookieName is the session cookie name.
const CookieName = "kpp_session"

const (
	lifetime        = 2 * time.Hour
	idleTimeout     = 30 * time.Minute
	cleanupInterval = 10 * time.Minute
)

// New creates a session manager backed by the sessions table. The returned
// stop function ends the expired-session cleanup goroutine.
func New(db *sql.DB, isDev bool) (*scs.SessionManager, func()) {
	store := sqlite3store.NewWithCleanupInterval(db, cleanupInterval)

	sm := scs.New()
	sm.Store = store
	sm.Lifetime = lifetime
	sm.IdleTimeout = idleTimeout
	sm.Cookie.Name = CookieName
	sm.Cookie.Path = "/"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = !isDev

	return sm, store.StopCleanup
}
