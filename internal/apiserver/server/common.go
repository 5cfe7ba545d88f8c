// Package server HTTP 服务入口
//
// 文件组织：
//   - common.go: Handler 定义与通用工具函数
//   - handler.go: 路由与中间件组装
//   - metrics.go: Prometheus 指标
package server

import (
	"encoding/json"
	"net/http"

	"auth-server/internal/apiserver/auth"
	"auth-server/internal/mailer"
	"auth-server/internal/shared/cache"
	"auth-server/internal/shared/storage"
	"auth-server/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
)

// Handler API 处理器
//
// 持有存储、邮件与节流等依赖，负责组装认证路由与基础中间件。
type Handler struct {
	store    storage.UserStore
	mail     mailer.Mailer
	throttle cache.EmailThrottle
	authCfg  auth.Config

	metrics *Metrics
	logger  *logging.Logger
}

// NewHandler 创建 Handler 实例
//
// reg 为 nil 时使用 prometheus.DefaultRegisterer。
func NewHandler(store storage.UserStore, mail mailer.Mailer, throttle cache.EmailThrottle, authCfg auth.Config, reg *prometheus.Registry) *Handler {
	if throttle == nil {
		throttle = cache.NewNoOpThrottle()
	}
	return &Handler{
		store:    store,
		mail:     mail,
		throttle: throttle,
		authCfg:  authCfg,
		metrics:  NewMetrics("auth_server", reg),
		logger:   logging.Default("api"),
	}
}

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics {
	return h.metrics
}

// SetLogger 替换日志器
func (h *Handler) SetLogger(l *logging.Logger) {
	if l != nil {
		h.logger = l
	}
}

// writeJSON 将数据以 JSON 格式写入 HTTP 响应
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Health 健康检查接口
//
// 路由: GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
