package auth

import (
	"log"
	"net/http"
	"strings"

	"auth-server/internal/shared/storage"
	"auth-server/pkg/logging"
)

// SessionGate 校验 Authorization: Bearer 会话令牌
// 通过后将声明注入 context，失败返回 401
func SessionGate(cfg Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			claims, err := VerifySession(cfg, strings.TrimSpace(parts[1]))
			if err != nil {
				log.Printf("[auth] session token rejected: %v", err)
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			ctx := WithSession(r.Context(), claims)
			ctx = logging.WithUserIDContext(ctx, claims.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminGate 管理员专属路由中间件，必须位于 SessionGate 之后
func AdminGate(store storage.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if session == nil {
				writeError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			user, err := store.GetUserByID(r.Context(), session.ID)
			if err != nil || user == nil {
				writeError(w, http.StatusBadRequest, "User not found")
				return
			}
			if !user.IsAdmin() {
				writeError(w, http.StatusBadRequest, "Admin resource. Access denied.")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithProfile(r.Context(), user)))
		})
	}
}
