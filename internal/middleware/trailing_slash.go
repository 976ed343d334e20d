// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// StripTrailingSlash redirects /about/ to /about with 301 so every page has a
// single canonical URL. The root and the file-server prefixes are left
// alone, since http.FileServer adds slashes to directory paths itself.
func StripTrailingSlash(skip ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := r.URL.Path
			if p == "/" || !strings.HasSuffix(p, "/") || hasAnyPrefix(p, skip) {
				next.ServeHTTP(w, r)
				return
			}

			// "//host/" must not turn into a protocol-relative redirect.
			target := "/" + strings.Trim(p, "/")
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusMovedPermanently)
		})
	}
}
