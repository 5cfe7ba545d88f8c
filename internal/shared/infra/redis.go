// Package infra Redis 基础设施初始化
package infra

import (
	"time"

	"auth-server/internal/shared/cache"
	cacheredis "auth-server/internal/shared/cache/redis"
)

// OpenThrottle 创建邮件节流器
//
// redisURL 为空时返回 NoOp 实现，不做任何限制。
// cooldown <= 0 表示关闭节流，默认值由配置层（mail.cooldown）提供。
func OpenThrottle(redisURL string, cooldown time.Duration) (cache.EmailThrottle, error) {
	if redisURL == "" {
		return cache.NewNoOpThrottle(), nil
	}
	s, err := cacheredis.NewStoreFromURL(redisURL, cooldown)
	if err != nil {
		return nil, err
	}
	return s, nil
}
