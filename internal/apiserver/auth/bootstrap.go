package auth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"auth-server/internal/shared/model"
	"auth-server/internal/shared/storage"
)

// EnsureAdminUser 确保管理员用户存在（启动时调用）
//
// 未配置邮箱或密码时跳过；同邮箱用户已存在时提升为 admin，密码保持不变。
func EnsureAdminUser(ctx context.Context, store storage.UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}
	email := model.NormalizeEmail(adminEmail)

	existing, err := store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		if existing.IsAdmin() {
			log.Printf("[auth] Admin user already exists: %s (%s)", email, existing.ID)
			return nil
		}
		existing.Role = model.UserRoleAdmin
		if err := store.SaveUser(ctx, existing); err != nil {
			return fmt.Errorf("promote admin user: %w", err)
		}
		log.Printf("[auth] Upgraded user %s to admin role", email)
		return nil
	}

	user := model.NewUser("Admin", email, adminPassword)
	user.Role = model.UserRoleAdmin
	if err := store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", email, user.ID)
	return nil
}
