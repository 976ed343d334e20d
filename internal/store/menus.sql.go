package store

import (
	"context"
	"time"
)

const menuColumns = `id, name, location, items, created_at, updated_at`

func scanMenu(row rowScanner) (Menu, error) {
	var i Menu
	err := row.Scan(&i.ID, &i.Name, &i.Location, &i.Items, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const createMenu = `INSERT INTO menus (name, location, items, created_at, updated_at)
VALUES (?, ?, ?, ?, ?)
RETURNING ` + menuColumns

type CreateMenuParams struct {
	Name      string
	Location  string
	Items     string
	CreatedAt time.Time
}

func (q *Queries) CreateMenu(ctx context.Context, arg CreateMenuParams) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, createMenu, arg.Name, arg.Location, arg.Items, arg.CreatedAt, arg.CreatedAt))
}

const getMenu = `SELECT ` + menuColumns + ` FROM menus WHERE id = ?`

func (q *Queries) GetMenu(ctx context.Context, id int64) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getMenu, id))
}

// getMenuByLocation picks the oldest menu at a location when several share it.
const getMenuByLocation = `SELECT ` + menuColumns + ` FROM menus WHERE location = ? ORDER BY id LIMIT 1`

func (q *Queries) GetMenuByLocation(ctx context.Context, location string) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, getMenuByLocation, location))
}

const listMenus = `SELECT ` + menuColumns + ` FROM menus ORDER BY location, name`

func (q *Queries) ListMenus(ctx context.Context) ([]Menu, error) {
	rows, err := q.db.QueryContext(ctx, listMenus)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []Menu{}
	for rows.Next() {
		i, err := scanMenu(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const updateMenu = `UPDATE menus SET name = ?, location = ?, items = ?, updated_at = ? WHERE id = ?
RETURNING ` + menuColumns

type UpdateMenuParams struct {
	Name      string
	Location  string
	Items     string
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateMenu(ctx context.Context, arg UpdateMenuParams) (Menu, error) {
	return scanMenu(q.db.QueryRowContext(ctx, updateMenu, arg.Name, arg.Location, arg.Items, arg.UpdatedAt, arg.ID))
}

const deleteMenu = `DELETE FROM menus WHERE id = ?`

func (q *Queries) DeleteMenu(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteMenu, id)
	return err
}
