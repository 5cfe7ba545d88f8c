// Package cache 缓存层抽象接口
//
// 提供临时状态的存取能力，当前由 Redis 实现。
package cache

import (
	"context"
)

// EmailThrottle 邮件发送节流接口
//
// Allow 在冷却期内对同一 (purpose, email) 只放行一次；
// Release 归还已占用的冷却期，用于邮件未能发出的情况。
type EmailThrottle interface {
	Allow(ctx context.Context, purpose EmailPurpose, email string) (bool, error)
	Release(ctx context.Context, purpose EmailPurpose, email string) error
	Close() error
}
