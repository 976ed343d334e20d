package store

import (
	"context"
	"time"
)

const contactMessageColumns = `id, name, email, company, subject, message, ip_address, is_read, created_at`

func scanContactMessage(row rowScanner) (ContactMessage, error) {
	var i ContactMessage
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Email,
		&i.Company,
		&i.Subject,
		&i.Message,
		&i.IPAddress,
		&i.IsRead,
		&i.CreatedAt,
	)
	return i, err
}

const createContactMessage = `INSERT INTO contact_messages (name, email, company, subject, message, ip_address, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + contactMessageColumns

type CreateContactMessageParams struct {
	Name      string
	Email     string
	Company   string
	Subject   string
	Message   string
	IPAddress string
	CreatedAt time.Time
}

func (q *Queries) CreateContactMessage(ctx context.Context, arg CreateContactMessageParams) (ContactMessage, error) {
	row := q.db.QueryRowContext(ctx, createContactMessage,
		arg.Name,
		arg.Email,
		arg.Company,
		arg.Subject,
		arg.Message,
		arg.IPAddress,
		arg.CreatedAt,
	)
	return scanContactMessage(row)
}

const getContactMessage = `SELECT ` + contactMessageColumns + ` FROM contact_messages WHERE id = ?`

func (q *Queries) GetContactMessage(ctx context.Context, id int64) (ContactMessage, error) {
	return scanContactMessage(q.db.QueryRowContext(ctx, getContactMessage, id))
}

const listContactMessages = `SELECT ` + contactMessageColumns + ` FROM contact_messages
WHERE (?1 = 0 OR is_read = 0)
ORDER BY created_at DESC, id DESC
LIMIT ?2 OFFSET ?3`

func (q *Queries) ListContactMessages(ctx context.Context, unreadOnly bool, limit, offset int64) ([]ContactMessage, error) {
	rows, err := q.db.QueryContext(ctx, listContactMessages, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []ContactMessage{}
	for rows.Next() {
		i, err := scanContactMessage(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countContactMessages = `SELECT COUNT(*) FROM contact_messages WHERE (?1 = 0 OR is_read = 0)`

func (q *Queries) CountContactMessages(ctx context.Context, unreadOnly bool) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countContactMessages, unreadOnly).Scan(&count)
	return count, err
}

const markContactMessageRead = `UPDATE contact_messages SET is_read = ? WHERE id = ?`

func (q *Queries) MarkContactMessageRead(ctx context.Context, id int64, read bool) (int64, error) {
	res, err := q.db.ExecContext(ctx, markContactMessageRead, read, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const deleteContactMessage = `DELETE FROM contact_messages WHERE id = ?`

func (q *Queries) DeleteContactMessage(ctx context.Context, id int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteContactMessage, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
