package store

import (
	"context"
	"database/sql"
	"time"
)

type rowScanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, email, name, password_hash, role, is_active, last_login_at, created_at, updated_at`

func scanUser(row rowScanner) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.PasswordHash,
		&i.Role,
		&i.IsActive,
		&i.LastLoginAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const createUser = `INSERT INTO users (email, name, password_hash, role, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	Name         string
	PasswordHash string
	Role         string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.Email,
		arg.Name,
		arg.PasswordHash,
		arg.Role,
		arg.IsActive,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return scanUser(row)
}

const getUser = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUser(ctx context.Context, id int64) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUser, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ? COLLATE NOCASE`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const listUsers = `SELECT ` + userColumns + ` FROM users
WHERE (?1 = '' OR role = ?1)
  AND (?2 = '' OR email LIKE ?2 ESCAPE '\' OR name LIKE ?2 ESCAPE '\')
ORDER BY created_at DESC, id DESC
LIMIT ?3 OFFSET ?4`

type ListUsersParams struct {
	Role   string
	Search string
	Limit  int64
	Offset int64
}

func (q *Queries) ListUsers(ctx context.Context, arg ListUsersParams) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers, arg.Role, likePattern(arg.Search), arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	items := []User{}
	for rows.Next() {
		i, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

const countUsers = `SELECT COUNT(*) FROM users
WHERE (?1 = '' OR role = ?1)
  AND (?2 = '' OR email LIKE ?2 ESCAPE '\' OR name LIKE ?2 ESCAPE '\')`

type CountUsersParams struct {
	Role   string
	Search string
}

func (q *Queries) CountUsers(ctx context.Context, arg CountUsersParams) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countUsers, arg.Role, likePattern(arg.Search)).Scan(&count)
	return count, err
}

const countActiveUsersByRole = `SELECT COUNT(*) FROM users WHERE role = ? AND is_active = 1`

func (q *Queries) CountActiveUsersByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActiveUsersByRole, role).Scan(&count)
	return count, err
}

const updateUser = `UPDATE users
SET email = ?, name = ?, role = ?, is_active = ?, updated_at = ?
WHERE id = ?
RETURNING ` + userColumns

type UpdateUserParams struct {
	Email     string
	Name      string
	Role      string
	IsActive  bool
	UpdatedAt time.Time
	ID        int64
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, updateUser,
		arg.Email,
		arg.Name,
		arg.Role,
		arg.IsActive,
		arg.UpdatedAt,
		arg.ID,
	)
	return scanUser(row)
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id int64, hash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, hash, updatedAt, id)
	return err
}

const updateUserLastLogin = `UPDATE users SET last_login_at = ? WHERE id = ?`

func (q *Queries) UpdateUserLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserLastLogin, sql.NullTime{Time: at, Valid: true}, id)
	return err
}

const deleteUser = `DELETE FROM users WHERE id = ?`

func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, deleteUser, id)
	return err
}

const roleHasPermission = `SELECT EXISTS (SELECT 1 FROM role_permissions WHERE role = ? AND permission = ?)`

func (q *Queries) RoleHasPermission(ctx context.Context, role, permission string) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, roleHasPermission, role, permission).Scan(&ok)
	return ok, err
}

const listRolePermissions = `SELECT permission FROM role_permissions WHERE role = ? ORDER BY permission`

func (q *Queries) ListRolePermissions(ctx context.Context, role string) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listRolePermissions, role)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	perms := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}
