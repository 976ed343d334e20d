// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/service"
)

const trackTimeout = 5 * time.Second

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.wroteHeader {
		sr.status = code
		sr.wroteHeader = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.wroteHeader {
		sr.status = http.StatusOK
		sr.wroteHeader = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// Tracking records successful GET page views on public routes in the
// background. enabled is consulted per request so the setting can be
// toggled at runtime.
func Tracking(analytics *service.AnalyticsService, enabled func(context.Context) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || !service.ShouldTrackPath(r.URL.Path) ||
				(enabled != nil && !enabled(r.Context())) {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			if rec.status != http.StatusOK {
				return
			}

			in := service.TrackInput{
				EventType:      model.AnalyticsPageView,
				Path:           r.URL.Path,
				Referrer:       r.Referer(),
				IP:             ClientIP(r),
				UserAgent:      r.UserAgent(),
				AcceptLanguage: r.Header.Get("Accept-Language"),
			}
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
				defer cancel()
				if _, err := analytics.Track(ctx, in); err != nil {
					slog.Error("failed to record page view", "path", in.Path, "error", err)
				}
			}()
		})
	}
}
