package redis

import (
	"context"
	"fmt"

	"auth-server/internal/shared/cache"
)

var _ cache.EmailThrottle = (*Store)(nil)

// Allow 使用 SET NX EX 实现冷却期内单次放行
func (s *Store) Allow(ctx context.Context, purpose cache.EmailPurpose, email string) (bool, error) {
	if s.cooldown <= 0 {
		return true, nil
	}
	key := throttleKey(purpose, email)
	ok, err := s.client.SetNX(ctx, key, 1, s.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set email throttle: %w", err)
	}
	return ok, nil
}

// Release 删除节流键，冷却期立即结束
func (s *Store) Release(ctx context.Context, purpose cache.EmailPurpose, email string) error {
	if s.cooldown <= 0 {
		return nil
	}
	if err := s.client.Del(ctx, throttleKey(purpose, email)).Err(); err != nil {
		return fmt.Errorf("failed to release email throttle: %w", err)
	}
	return nil
}

func throttleKey(purpose cache.EmailPurpose, email string) string {
	return cache.KeyEmailThrottle + string(purpose) + ":" + email
}
