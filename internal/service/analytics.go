// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/mileusna/useragent"

	"github.com/olegiv/kpp-site/internal/model"
	"github.com/olegiv/kpp-site/internal/store"
)

const (
	maxSummaryDays   = 365
	maxPathLength    = 500
	maxMetadataBytes = 2048
	sessionBucket    = 30 * time.Minute
	topN             = 10
)

// CountryLookup resolves an IP to an ISO country code.
type CountryLookup interface {
	LookupCountry(ip string) string
}

// AnalyticsService records privacy-preserving visitor events and builds the
// dashboard summaries. Raw IPs never reach the database.
type AnalyticsService struct {
	queries *store.Queries
	geo     CountryLookup
	salt    string
	now     func() time.Time
}

// NewAnalyticsService creates an AnalyticsService. geo may be nil.
func NewAnalyticsService(db *sql.DB, geo CountryLookup, salt string) *AnalyticsService {
	return &AnalyticsService{
		queries: store.New(db),
		geo:     geo,
		salt:    salt,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// TrackInput is one observed event before anonymisation.
type TrackInput struct {
	EventType      string
	Path           string
	Referrer       string
	IP             string
	UserAgent      string
	AcceptLanguage string
	Metadata       map[string]any
}

// Track anonymises and stores an event. Bots are dropped and reported with
// false.
func (s *AnalyticsService) Track(ctx context.Context, in TrackInput) (bool, error) {
	if !model.IsValidAnalyticsEvent(in.EventType) {
		return false, invalid("event_type", "unknown event type %q", in.EventType)
	}
	path, err := cleanTrackedPath(in.Path)
	if err != nil {
		return false, err
	}
	meta := marshalMetadata(in.Metadata)
	if len(meta) > maxMetadataBytes {
		return false, invalid("metadata", "must be at most %d bytes", maxMetadataBytes)
	}

	ua := parseUserAgent(in.UserAgent)
	if ua.DeviceType == model.DeviceBot {
		return false, nil
	}

	now := s.now()
	country := ""
	if s.geo != nil {
		country = s.geo.LookupCountry(in.IP)
	}
	err = s.queries.CreateAnalyticsEvent(ctx, store.CreateAnalyticsEventParams{
		EventType:      in.EventType,
		Path:           path,
		ReferrerDomain: referrerDomain(in.Referrer),
		VisitorHash:    s.VisitorHash(in.IP, in.UserAgent, now),
		SessionHash:    s.SessionHash(in.IP, in.UserAgent, now),
		DeviceType:     ua.DeviceType,
		Browser:        ua.Browser,
		Os:             ua.OS,
		CountryCode:    country,
		Language:       primaryLanguage(in.AcceptLanguage),
		Metadata:       meta,
		CreatedAt:      now,
	})
	if err != nil {
		return false, fmt.Errorf("recording analytics event: %w", err)
	}
	return true, nil
}

// VisitorHash identifies a visitor within one UTC day only.
func (s *AnalyticsService) VisitorHash(ip, userAgent string, at time.Time) string {
	return s.hash(anonymizeIP(ip), userAgent, at.UTC().Format(time.DateOnly))
}

// SessionHash additionally buckets the day into 30 minute windows.
func (s *AnalyticsService) SessionHash(ip, userAgent string, at time.Time) string {
	at = at.UTC()
	bucket := at.Truncate(sessionBucket).Format("15:04")
	return s.hash(anonymizeIP(ip), userAgent, at.Format(time.DateOnly), bucket)
}

func (s *AnalyticsService) hash(parts ...string) string {
	h := sha256.New()
	h.Write([]byte(s.salt))
	for _, p := range parts {
		h.Write([]byte{'|'})
		h.Write([]byte(p))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyticsSummary is the dashboard view of the last Days days.
type AnalyticsSummary struct {
	Days      int                    `json:"days"`
	Since     time.Time              `json:"since"`
	Totals    store.AnalyticsTotals  `json:"totals"`
	TopPages  []store.AnalyticsCount `json:"top_pages"`
	Referrers []store.AnalyticsCount `json:"top_referrers"`
	Devices   []store.AnalyticsCount `json:"devices"`
	Browsers  []store.AnalyticsCount `json:"browsers"`
	Countries []store.AnalyticsCount `json:"countries"`
	Events    []store.AnalyticsCount `json:"event_types"`
	Daily     []store.AnalyticsDay   `json:"daily"`
}

// Summary aggregates events for the last days days (1..365).
func (s *AnalyticsService) Summary(ctx context.Context, days int) (AnalyticsSummary, error) {
	if days < 1 || days > maxSummaryDays {
		return AnalyticsSummary{}, invalid("days", "must be between 1 and %d", maxSummaryDays)
	}
	since := s.now().AddDate(0, 0, -days)
	sum := AnalyticsSummary{Days: days, Since: since}

	var err error
	if sum.Totals, err = s.queries.GetAnalyticsTotals(ctx, since); err != nil {
		return AnalyticsSummary{}, fmt.Errorf("analytics totals: %w", err)
	}
	breakdowns := []struct {
		dim string
		dst *[]store.AnalyticsCount
	}{
		{"path", &sum.TopPages},
		{"referrer", &sum.Referrers},
		{"device", &sum.Devices},
		{"browser", &sum.Browsers},
		{"country", &sum.Countries},
		{"event", &sum.Events},
	}
	for _, b := range breakdowns {
		rows, err := s.queries.GetAnalyticsBreakdown(ctx, b.dim, since, topN)
		if err != nil {
			return AnalyticsSummary{}, fmt.Errorf("analytics %s breakdown: %w", b.dim, err)
		}
		*b.dst = rows
	}
	if sum.Daily, err = s.queries.GetAnalyticsDaily(ctx, since); err != nil {
		return AnalyticsSummary{}, fmt.Errorf("analytics daily series: %w", err)
	}
	return sum, nil
}

// AnalyticsFilter narrows ListEvents. Days of zero means all time.
type AnalyticsFilter struct {
	EventType string
	Path      string
	Days      int
}

// ListEvents returns one page of raw events, newest first.
func (s *AnalyticsService) ListEvents(ctx context.Context, f AnalyticsFilter, limit, offset int64) ([]store.AnalyticsEvent, int64, error) {
	if f.EventType != "" && !model.IsValidAnalyticsEvent(f.EventType) {
		return nil, 0, invalid("event_type", "unknown event type %q", f.EventType)
	}
	var since time.Time
	if f.Days > 0 {
		since = s.now().AddDate(0, 0, -f.Days)
	}
	events, err := s.queries.ListAnalyticsEvents(ctx, store.ListAnalyticsEventsParams{
		EventType: f.EventType, Path: f.Path, Since: since, Limit: limit, Offset: offset,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("listing analytics events: %w", err)
	}
	total, err := s.queries.CountAnalyticsEvents(ctx, f.EventType, f.Path, since)
	if err != nil {
		return nil, 0, fmt.Errorf("counting analytics events: %w", err)
	}
	return events, total, nil
}

// ActiveVisitors counts distinct visitors over the last window.
func (s *AnalyticsService) ActiveVisitors(ctx context.Context, window time.Duration) (int64, error) {
	return s.queries.CountActiveVisitors(ctx, s.now().Add(-window))
}

// DeleteOlderThan prunes events older than days.
func (s *AnalyticsService) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	if days < 1 {
		return 0, invalid("older_than_days", "must be at least 1")
	}
	return s.queries.DeleteAnalyticsEventsBefore(ctx, s.now().AddDate(0, 0, -days))
}

// ShouldTrackPath reports whether a GET of path counts as a page view.
// Static assets, uploads, the API and health checks are excluded.
func ShouldTrackPath(path string) bool {
	for _, prefix := range untrackedPrefixes {
		if strings.HasPrefix(path, prefix) {
			return false
		}
	}
	lower := strings.ToLower(path)
	if i := strings.LastIndexByte(lower, '.'); i > strings.LastIndexByte(lower, '/') {
		return false
	}
	return true
}

var untrackedPrefixes = []string{
	"/static/", "/uploads/", "/api/", "/health", "/favicon", "/robots.txt",
	"/sitemap", "/.well-known/",
}

func cleanTrackedPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", invalid("path", "is required")
	}
	// Beacons may send a full URL; only the path is kept.
	if u, err := url.Parse(p); err == nil && u.Path != "" {
		p = u.Path
	}
	if !strings.HasPrefix(p, "/") {
		return "", invalid("path", "must start with /")
	}
	if len(p) > maxPathLength {
		return "", invalid("path", "must be at most %d characters", maxPathLength)
	}
	return p, nil
}

// anonymizeIP zeroes the last octet of IPv4 and the last 80 bits of IPv6.
func anonymizeIP(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	if v4 := parsed.To4(); v4 != nil {
		v4[3] = 0
		return v4.String()
	}
	v6 := parsed.To16()
	for i := 6; i < net.IPv6len; i++ {
		v6[i] = 0
	}
	return v6.String()
}

func referrerDomain(ref string) string {
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
}

// primaryLanguage returns "en" for "en-US,en;q=0.9".
func primaryLanguage(header string) string {
	first, _, _ := strings.Cut(header, ",")
	first, _, _ = strings.Cut(first, ";")
	first, _, _ = strings.Cut(strings.TrimSpace(first), "-")
	if first == "*" {
		return ""
	}
	return strings.ToLower(first)
}

type parsedUA struct {
	Browser    string
	OS         string
	DeviceType string
}

func parseUserAgent(raw string) parsedUA {
	if strings.TrimSpace(raw) == "" {
		return parsedUA{Browser: "Unknown", OS: "Unknown", DeviceType: model.DeviceUnknown}
	}
	ua := useragent.Parse(raw)
	out := parsedUA{Browser: ua.Name, OS: ua.OS}
	if out.Browser == "" {
		out.Browser = "Unknown"
	}
	if out.OS == "" {
		out.OS = "Unknown"
	}
	switch {
	case ua.Bot:
		out.DeviceType = model.DeviceBot
	case ua.Tablet:
		out.DeviceType = model.DeviceTablet
	case ua.Mobile:
		out.DeviceType = model.DeviceMobile
	case ua.Desktop:
		out.DeviceType = model.DeviceDesktop
	default:
		out.DeviceType = model.DeviceUnknown
	}
	return out
}
