// Package cache 缓存层 mock 实现
package cache

import (
	"context"
)

// NoOpThrottle 始终放行的 EmailThrottle（未配置 Redis 或测试时使用）
type NoOpThrottle struct{}

// NewNoOpThrottle 创建 NoOpThrottle 实例
func NewNoOpThrottle() *NoOpThrottle {
	return &NoOpThrottle{}
}

func (t *NoOpThrottle) Allow(ctx context.Context, purpose EmailPurpose, email string) (bool, error) {
	return true, nil
}

func (t *NoOpThrottle) Release(ctx context.Context, purpose EmailPurpose, email string) error {
	return nil
}

func (t *NoOpThrottle) Close() error {
	return nil
}

// 确保 NoOpThrottle 实现了 EmailThrottle 接口
var _ EmailThrottle = (*NoOpThrottle)(nil)
