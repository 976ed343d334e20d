package store

import (
	"context"
	"time"
)

const createAnalyticsEvent = `INSERT INTO analytics_events (
    event_type, path, referrer_domain, visitor_hash, session_hash, device_type,
    browser, os, country_code, language, metadata, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateAnalyticsEventParams struct {
	EventType      string
	Path           string
	ReferrerDomain string
	VisitorHash    string
	SessionHash    string
	DeviceType     string
	Browser        string
	Os             string
	CountryCode    string
	Language       string
	Metadata       string
	CreatedAt      time.Time
}

func (q *Queries) CreateAnalyticsEvent(ctx context.Context, arg CreateAnalyticsEventParams) error {
	_, err := q.db.ExecContext(ctx, createAnalyticsEvent,
		arg.EventType,
		arg.Path,
		arg.ReferrerDomain,
		arg.VisitorHash,
		arg.SessionHash,
		arg.DeviceType,
		arg.Browser,
		arg.Os,
		arg.CountryCode,
		arg.Language,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const analyticsFilter = `WHERE (?1 = '' OR event_type = ?1) AND (?2 = '' OR path = ?2) AND created_at >= ?3`

const listAnalyticsEvents = `SELECT id, event_type, path, referrer_domain, visitor_hash, session_hash, device_type,
    browser, os, country_code, language, metadata, created_at
FROM analytics_events ` + analyticsFilter + `
ORDER BY created_at DESC, id DESC
LIMIT ?4 OFFSET ?5`

type ListAnalyticsEventsParams struct {
	EventType string
	Path      string
	Since     time.Time
	Limit     int64
	Offset    int64
}

func (q *Queries) ListAnalyticsEvents(ctx context.Context, arg ListAnalyticsEventsParams) ([]AnalyticsEvent, error) {
	rows, err := q.db.QueryContext(ctx, listAnalyticsEvents, arg.EventType, arg.Path, arg.Since, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []AnalyticsEvent{}
	for rows.Next() {
		var i AnalyticsEvent
		if err := rows.Scan(
			&i.ID,
			&i.EventType,
			&i.Path,
			&i.ReferrerDomain,
			&i.VisitorHash,
			&i.SessionHash,
			&i.DeviceType,
			&i.Browser,
			&i.Os,
			&i.CountryCode,
			&i.Language,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countAnalyticsEvents = `SELECT COUNT(*) FROM analytics_events ` + analyticsFilter

func (q *Queries) CountAnalyticsEvents(ctx context.Context, eventType, path string, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAnalyticsEvents, eventType, path, since).Scan(&count)
	return count, err
}

const deleteAnalyticsEventsBefore = `DELETE FROM analytics_events WHERE created_at < ?`

func (q *Queries) DeleteAnalyticsEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteAnalyticsEventsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// AnalyticsTotals are headline counts over a time window.
type AnalyticsTotals struct {
	Events         int64 `json:"events"`
	PageViews      int64 `json:"page_views"`
	UniqueVisitors int64 `json:"unique_visitors"`
	Sessions       int64 `json:"sessions"`
}

const analyticsTotals = `SELECT COUNT(*),
    COALESCE(SUM(CASE WHEN event_type = 'page_view' THEN 1 ELSE 0 END), 0),
    COUNT(DISTINCT visitor_hash),
    COUNT(DISTINCT session_hash)
FROM analytics_events WHERE created_at >= ?`

func (q *Queries) GetAnalyticsTotals(ctx context.Context, since time.Time) (AnalyticsTotals, error) {
	var t AnalyticsTotals
	err := q.db.QueryRowContext(ctx, analyticsTotals, since).Scan(&t.Events, &t.PageViews, &t.UniqueVisitors, &t.Sessions)
	return t, err
}

// AnalyticsCount is a labelled count used for top-N breakdowns.
type AnalyticsCount struct {
	Key      string `json:"key"`
	Count    int64  `json:"count"`
	Visitors int64  `json:"visitors"`
}

// breakdownColumns whitelists the columns GetAnalyticsBreakdown may group by.
var breakdownColumns = map[string]string{
	"path":     "path",
	"referrer": "referrer_domain",
	"device":   "device_type",
	"browser":  "browser",
	"os":       "os",
	"country":  "country_code",
	"event":    "event_type",
}

// GetAnalyticsBreakdown groups page views (or all events when dimension is
// "event") by a whitelisted dimension, most frequent first.
func (q *Queries) GetAnalyticsBreakdown(ctx context.Context, dimension string, since time.Time, limit int64) ([]AnalyticsCount, error) {
	col, ok := breakdownColumns[dimension]
	if !ok {
		col = "path"
	}
	typeFilter := "AND event_type = 'page_view'"
	if dimension == "event" {
		typeFilter = ""
	}
	query := `SELECT ` + col + `, COUNT(*), COUNT(DISTINCT visitor_hash)
FROM analytics_events
WHERE created_at >= ? AND ` + col + ` != '' ` + typeFilter + `
GROUP BY ` + col + `
ORDER BY 2 DESC, 1
LIMIT ?`
	rows, err := q.db.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []AnalyticsCount{}
	for rows.Next() {
		var i AnalyticsCount
		if err := rows.Scan(&i.Key, &i.Count, &i.Visitors); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

// AnalyticsDay is one point of the daily page view series.
type AnalyticsDay struct {
	Date      string `json:"date"`
	PageViews int64  `json:"page_views"`
	Visitors  int64  `json:"visitors"`
}

// Timestamps are stored in UTC, so the first ten characters are the calendar day.
const analyticsDaily = `SELECT substr(created_at, 1, 10) AS day, COUNT(*), COUNT(DISTINCT visitor_hash)
FROM analytics_events
WHERE created_at >= ? AND event_type = 'page_view'
GROUP BY day
ORDER BY day`

func (q *Queries) GetAnalyticsDaily(ctx context.Context, since time.Time) ([]AnalyticsDay, error) {
	rows, err := q.db.QueryContext(ctx, analyticsDaily, since)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []AnalyticsDay{}
	for rows.Next() {
		var i AnalyticsDay
		if err := rows.Scan(&i.Date, &i.PageViews, &i.Visitors); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countActiveVisitors = `SELECT COUNT(DISTINCT visitor_hash) FROM analytics_events WHERE created_at >= ?`

// CountActiveVisitors returns distinct visitors seen since the given time.
func (q *Queries) CountActiveVisitors(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveVisitors, since).Scan(&count)
	return count, err
}
