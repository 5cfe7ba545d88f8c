package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"auth-server/internal/apiserver/auth"
	"auth-server/pkg/logging"
)

// Router 返回配置好的 HTTP 路由
//
// 健康检查与指标:
//   - GET /health
//   - GET /metrics
//
// 认证:
//   - POST     /api/signup
//   - POST     /api/account-activation
//   - POST     /api/signin
//   - POST|PUT /api/forgot-password
//   - POST|PUT /api/reset-password
//
// 用户（需要会话令牌）:
//   - GET /api/user/{id}
//   - PUT /api/user/update
//   - PUT /api/admin/update（仅管理员）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.Health)
	mux.Handle("GET /metrics", h.metrics.Handler())

	authHandler := auth.NewHandler(h.store, h.mail, h.authCfg).
		WithThrottle(h.throttle).
		WithRecorder(h.metrics).
		WithLogger(logging.Default("auth"))
	authHandler.RegisterRoutes(mux)

	handler := h.metrics.MetricsMiddleware(mux)
	handler = h.requestLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(h.authCfg.ClientURL)(handler)
	return handler
}

// requestIDMiddleware 为每个请求分配 X-Request-ID
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := logging.WithRequestIDContext(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogMiddleware 记录访问日志
func (h *Handler) requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		if r.URL.Path == "/metrics" || r.URL.Path == "/health" {
			return
		}
		h.logger.WithContext(r.Context()).HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), clientIP(r))
	})
}

// corsMiddleware 添加 CORS 头支持前端跨域请求
// origin 为空时允许任意来源
func corsMiddleware(origin string) func(http.Handler) http.Handler {
	if origin == "" {
		origin = "*"
	}
	origin = strings.TrimRight(origin, "/")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
