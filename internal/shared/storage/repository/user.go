package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"auth-server/internal/shared/model"
	"auth-server/internal/shared/storage"
)

const userColumns = `id, name, email, hashed_password, salt, role, reset_password_link, created_at, updated_at`

// CreateUser 创建用户
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	user.Email = model.NormalizeEmail(user.Email)

	_, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		user.ID, user.Name, user.Email, user.HashedPassword, user.Salt,
		string(user.Role), user.ResetPasswordLink, user.CreatedAt, user.UpdatedAt,
	)
	return s.wrapError(err)
}

// GetUserByID 通过 ID 查找用户
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByEmail 通过邮箱查找用户
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, model.NormalizeEmail(email))
}

// GetUserByResetLink 通过重置链接查找用户
func (s *Store) GetUserByResetLink(ctx context.Context, link string) (*model.User, error) {
	if link == "" {
		return nil, nil
	}
	return s.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE reset_password_link = $1`, link)
}

// SetResetPasswordLink 写入重置链接
func (s *Store) SetResetPasswordLink(ctx context.Context, id, link string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET reset_password_link = $1, updated_at = $2 WHERE id = $3`),
		link, time.Now().UTC(), id,
	)
	return affectedOne(res, err)
}

// SaveUser 保存用户可变字段
func (s *Store) SaveUser(ctx context.Context, user *model.User) error {
	if err := user.HashPendingPassword(); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, s.rebind(
		`UPDATE users SET name = $1, role = $2, hashed_password = $3, salt = $4,
		 reset_password_link = $5, updated_at = $6 WHERE id = $7`),
		user.Name, string(user.Role), user.HashedPassword, user.Salt,
		user.ResetPasswordLink, user.UpdatedAt, user.ID,
	)
	return affectedOne(res, s.wrapError(err))
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*model.User, error) {
	u := &model.User{}
	var role string
	err := s.db.QueryRowContext(ctx, s.rebind(query), arg).Scan(
		&u.ID, &u.Name, &u.Email, &u.HashedPassword, &u.Salt,
		&role, &u.ResetPasswordLink, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.Role = model.UserRole(role)
	return u, nil
}

func affectedOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
