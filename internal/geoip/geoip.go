// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package geoip maps visitor IPs to ISO country codes using an optional
// MaxMind GeoLite2-Country database. Without a database every public IP
// resolves to "" and analytics simply leaves the country blank.
package geoip

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/oschwald/maxminddb-golang"

	"github.com/olegiv/kpp-site/internal/util"
)

// Local is returned for loopback and private-range addresses.
const Local = "LOCAL"

type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// Lookup resolves countries. The zero value is usable and has no database.
type Lookup struct {
	mu      sync.RWMutex
	reader  *maxminddb.Reader
	path    string
	modTime time.Time
}

// Open returns a Lookup backed by the database at path. An empty path yields
// a Lookup that only recognises local addresses.
func Open(path string) (*Lookup, error) {
	l := &Lookup{path: path}
	if path == "" {
		return l, nil
	}
	if err := l.load(); err != nil {
		return l, err
	}
	return l, nil
}

// load (re)opens the database when its modification time changed.
// Caller holds mu or has exclusive access.
func (l *Lookup) load() error {
	info, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("geoip database %s: %w", l.path, err)
	}
	if l.reader != nil && info.ModTime().Equal(l.modTime) {
		return nil
	}
	r, err := maxminddb.Open(l.path)
	if err != nil {
		return fmt.Errorf("opening geoip database: %w", err)
	}
	if l.reader != nil {
		_ = l.reader.Close()
	}
	l.reader = r
	l.modTime = info.ModTime()
	return nil
}

// Reload picks up a replaced database file. It is a no-op when no path is
// configured or the file is unchanged.
func (l *Lookup) Reload() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.path == "" {
		return nil
	}
	return l.load()
}

// Enabled reports whether a database is loaded.
func (l *Lookup) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.reader != nil
}

// LookupCountry returns the two-letter code for ip, Local for private
// addresses and "" when unknown.
func (l *Lookup) LookupCountry(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if util.IsLocalIP(parsed) {
		return Local
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.reader == nil {
		return ""
	}
	var rec countryRecord
	if err := l.reader.Lookup(parsed, &rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}

// Close releases the database.
func (l *Lookup) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reader == nil {
		return nil
	}
	err := l.reader.Close()
	l.reader = nil
	return err
}
