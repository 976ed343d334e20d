package store

import (
	"context"
	"database/sql"
	"time"
)

const createEvent = `INSERT INTO events (level, category, message, user_id, ip_address, request_url, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type CreateEventParams struct {
	Level      string
	Category   string
	Message    string
	UserID     sql.NullInt64
	IPAddress  string
	RequestURL string
	Metadata   string
	CreatedAt  time.Time
}

func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.UserID,
		arg.IPAddress,
		arg.RequestURL,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const eventFilter = `WHERE (?1 = '' OR level = ?1) AND (?2 = '' OR category = ?2)`

const listEvents = `SELECT id, level, category, message, user_id, ip_address, request_url, metadata, created_at
FROM events ` + eventFilter + `
ORDER BY created_at DESC, id DESC
LIMIT ?3 OFFSET ?4`

type ListEventsParams struct {
	Level    string
	Category string
	Limit    int64
	Offset   int64
}

func (q *Queries) ListEvents(ctx context.Context, arg ListEventsParams) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, arg.Level, arg.Category, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Event{}
	for rows.Next() {
		var i Event
		if err := rows.Scan(
			&i.ID,
			&i.Level,
			&i.Category,
			&i.Message,
			&i.UserID,
			&i.IPAddress,
			&i.RequestURL,
			&i.Metadata,
			&i.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countEvents = `SELECT COUNT(*) FROM events ` + eventFilter

func (q *Queries) CountEvents(ctx context.Context, level, category string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countEvents, level, category).Scan(&count)
	return count, err
}

const deleteEventsBefore = `DELETE FROM events WHERE created_at < ?`

func (q *Queries) DeleteEventsBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEventsBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
