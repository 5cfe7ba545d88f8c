// Package infra 基础设施聚合层
//
// 提供统一的基础设施初始化和依赖注入，包括：
//   - Users：用户持久化存储（MongoDB / SQLite / PostgreSQL）
//   - Throttle：邮件发送节流（Redis，可选）
package infra

import (
	"fmt"
	"log"

	"auth-server/internal/config"
	"auth-server/internal/shared/cache"
	"auth-server/internal/shared/storage"
	"auth-server/internal/shared/storage/dbutil"
	"auth-server/internal/shared/storage/mongostore"
	"auth-server/internal/shared/storage/repository"
)

// Infrastructure 基础设施聚合结构
type Infrastructure struct {
	// Users 用户存储
	Users storage.UserStore

	// Throttle 邮件节流，未配置 Redis 时为 NoOp
	Throttle cache.EmailThrottle
}

// New 按配置打开所有基础设施
func New(cfg *config.Config) (*Infrastructure, error) {
	users, err := OpenUserStore(cfg.DatabaseDriver, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		return nil, err
	}

	throttle, err := OpenThrottle(cfg.RedisURL, cfg.Mail.Cooldown)
	if err != nil {
		users.Close()
		return nil, err
	}

	return &Infrastructure{Users: users, Throttle: throttle}, nil
}

// OpenUserStore 根据驱动类型创建用户存储
func OpenUserStore(driver, dsn, dbName string) (storage.UserStore, error) {
	switch dbutil.DriverType(driver) {
	case dbutil.DriverMongoDB, "":
		s, err := mongostore.NewStore(dsn, dbName)
		if err != nil {
			return nil, err
		}
		log.Printf("[infra] Using MongoDB database %s", dbName)
		return s, nil
	case dbutil.DriverSQLite, dbutil.DriverPostgres:
		s, err := repository.Open(dbutil.DriverType(driver), dsn)
		if err != nil {
			return nil, err
		}
		log.Printf("[infra] Using %s database", driver)
		return s, nil
	default:
		return nil, fmt.Errorf("infra: unsupported database driver %q", driver)
	}
}

// Close 关闭所有基础设施连接
func (i *Infrastructure) Close() error {
	var lastErr error

	if i.Users != nil {
		if err := i.Users.Close(); err != nil {
			lastErr = err
		}
	}

	if i.Throttle != nil {
		if err := i.Throttle.Close(); err != nil {
			lastErr = err
		}
	}

	return lastErr
}
