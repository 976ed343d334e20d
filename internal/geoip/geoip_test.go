// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package geoip

import (
	"path/filepath"
	"testing"
)

func TestLookupCountryWithoutDatabase(t *testing.T) {
	l, err := Open("")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if l.Enabled() {
		t.Error("Enabled() = true without a database")
	}

	tests := []struct {
		ip   string
		want string
	}{
		{"127.0.0.1", Local},
		{"::1", Local},
		{"10.1.2.3", Local},
		{"172.20.0.1", Local},
		{"192.168.1.100", Local},
		{"100.64.3.4", Local},
		{"fd00::1", Local},
		{"8.8.8.8", ""},
		{"2001:4860:4860::8888", ""},
		{"not-an-ip", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := l.LookupCountry(tt.ip); got != tt.want {
			t.Errorf("LookupCountry(%q) = %q, want %q", tt.ip, got, tt.want)
		}
	}
	if err := l.Reload(); err != nil {
		t.Errorf("Reload without path: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestOpenMissingDatabase(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if l == nil || l.Enabled() {
		t.Fatal("lookup should still be usable and disabled")
	}
	if got := l.LookupCountry("192.168.0.1"); got != Local {
		t.Errorf("private lookup = %q", got)
	}
}

func TestZeroValueLookup(t *testing.T) {
	var l Lookup
	if got := l.LookupCountry("1.1.1.1"); got != "" {
		t.Errorf("LookupCountry = %q", got)
	}
}
