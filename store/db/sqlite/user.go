package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/studysense/studysense/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `
		INSERT INTO user (
			id, email, name, picture, role, department,
			password_salt, password_hash, created_at, last_login_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.ExecContext(ctx, stmt,
		create.ID, create.Email, create.Name, create.Picture, create.Role, create.Department,
		create.PasswordSalt, create.PasswordHash, create.CreatedAt, create.LastLoginAt, create.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, store.ErrEmailExists
		}
		return nil, errors.Wrap(err, "failed to create user")
	}
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.ID != "" {
		where = append(where, "id = ?")
		args = append(args, find.ID)
	}
	if find.Email != "" {
		where = append(where, "email = ?")
		args = append(args, find.Email)
	}

	stmt := `
		SELECT id, email, name, picture, role, department,
			password_salt, password_hash, created_at, last_login_at, updated_at
		FROM user
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1`

	user := &store.User{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&user.ID, &user.Email, &user.Name, &user.Picture, &user.Role, &user.Department,
		&user.PasswordSalt, &user.PasswordHash, &user.CreatedAt, &user.LastLoginAt, &user.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return user, nil
}

func (d *DB) UpdateUserLogin(ctx context.Context, update *store.UpdateUserLogin) error {
	stmt := `UPDATE user SET last_login_at = ?, updated_at = ? WHERE id = ?`
	if _, err := d.db.ExecContext(ctx, stmt, update.LastLoginAt, update.UpdatedAt, update.ID); err != nil {
		return errors.Wrap(err, "failed to update user login")
	}
	return nil
}
