// Package storage 定义持久化存储层抽象接口
//
// 调用方只依赖接口，具体实现在子包中：
//   - mongostore/：MongoDB（默认）
//   - repository/：database/sql 实现（SQLite、PostgreSQL）
package storage

import (
	"context"

	"auth-server/internal/shared/model"
)

// UserStore 用户存储接口
//
// 查询类方法在记录不存在时返回 (nil, nil)。
// CreateUser 与 SaveUser 在写入前调用 model.User.HashPendingPassword。
type UserStore interface {
	// CreateUser 创建用户；邮箱重复时返回 ErrDuplicate
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByResetLink 按已存储的 resetPasswordLink 精确匹配
	GetUserByResetLink(ctx context.Context, link string) (*model.User, error)
	// SetResetPasswordLink 写入重置令牌；用户不存在时返回 ErrNotFound
	SetResetPasswordLink(ctx context.Context, id, link string) error
	// SaveUser 保存 name/role/password/resetPasswordLink；用户不存在时返回 ErrNotFound
	SaveUser(ctx context.Context, user *model.User) error
	Close() error
}
