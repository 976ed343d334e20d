package store

import (
	"context"
	"database/sql"
	"time"
)

const settingColumns = `key, value, type, group_name, description, updated_by, updated_at`

func scanSetting(row rowScanner) (Setting, error) {
	var i Setting
	err := row.Scan(&i.Key, &i.Value, &i.Type, &i.GroupName, &i.Description, &i.UpdatedBy, &i.UpdatedAt)
	return i, err
}

const getSetting = `SELECT ` + settingColumns + ` FROM settings WHERE key = ?`

func (q *Queries) GetSetting(ctx context.Context, key string) (Setting, error) {
	return scanSetting(q.db.QueryRowContext(ctx, getSetting, key))
}

const listSettings = `SELECT ` + settingColumns + ` FROM settings
WHERE (?1 = '' OR group_name = ?1)
ORDER BY group_name, key`

func (q *Queries) ListSettings(ctx context.Context, group string) ([]Setting, error) {
	rows, err := q.db.QueryContext(ctx, listSettings, group)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Setting{}
	for rows.Next() {
		i, err := scanSetting(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const upsertSetting = `INSERT INTO settings (key, value, type, group_name, description, updated_by, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
    value = excluded.value,
    type = excluded.type,
    group_name = excluded.group_name,
    description = CASE WHEN excluded.description = '' THEN settings.description ELSE excluded.description END,
    updated_by = excluded.updated_by,
    updated_at = excluded.updated_at
RETURNING ` + settingColumns

type UpsertSettingParams struct {
	Key         string
	Value       string
	Type        string
	GroupName   string
	Description string
	UpdatedBy   sql.NullInt64
	UpdatedAt   time.Time
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) (Setting, error) {
	row := q.db.QueryRowContext(ctx, upsertSetting,
		arg.Key,
		arg.Value,
		arg.Type,
		arg.GroupName,
		arg.Description,
		arg.UpdatedBy,
		arg.UpdatedAt,
	)
	return scanSetting(row)
}

const insertSettingIfMissing = `INSERT INTO settings (key, value, type, group_name, description, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(key) DO NOTHING`

// InsertSettingIfMissing adds a default setting without touching an existing value.
func (q *Queries) InsertSettingIfMissing(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.ExecContext(ctx, insertSettingIfMissing,
		arg.Key, arg.Value, arg.Type, arg.GroupName, arg.Description, arg.UpdatedAt)
	return err
}

const deleteSetting = `DELETE FROM settings WHERE key = ?`

func (q *Queries) DeleteSetting(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deleteSetting, key)
	return err
}
