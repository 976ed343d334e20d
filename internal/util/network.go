// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "net"

// localIPBlocks are ranges that never leave the local network.
var localIPBlocks = mustParseCIDRs(
	"10.0.0.0/8",     // RFC 1918
	"172.16.0.0/12",  // RFC 1918
	"192.168.0.0/16", // RFC 1918
	"127.0.0.0/8",    // loopback
	"169.254.0.0/16", // link-local
	"0.0.0.0/8",
	"100.64.0.0/10", // carrier-grade NAT
	"::1/128",
	"fe80::/10",
	"fc00::/7", // unique local
	"::/128",
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, b := range blocks {
		_, n, err := net.ParseCIDR(b)
		if err != nil {
			panic(err)
		}
		nets = append(nets, n)
	}
	return nets
}

// IsLocalIP reports whether ip is a loopback, link-local or private-range
// address. Such visitors cannot be placed on a map. A nil IP counts as local.
func IsLocalIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	for _, block := range localIPBlocks {
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
