// Package auth 用户认证：注册激活、登录、找回/重置密码、JWT 令牌与 HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"auth-server/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const (
	ctxKeySession contextKey = "auth_session"
	ctxKeyProfile contextKey = "auth_profile"
)

// ErrInvalidToken 令牌签名错误、过期或格式不合法
var ErrInvalidToken = errors.New("invalid token")

// Config 认证配置
//
// 三类令牌使用各自独立的签名密钥。
type Config struct {
	SessionSecret    string
	ActivationSecret string
	ResetSecret      string

	SessionTTL    time.Duration
	ActivationTTL time.Duration
	ResetTTL      time.Duration

	ClientURL string // 邮件链接前缀
	EmailFrom string
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		SessionTTL:    7 * 24 * time.Hour,
		ActivationTTL: 10 * time.Minute,
		ResetTTL:      10 * time.Minute,
		ClientURL:     "http://localhost:3000",
	}
}

// ============================================================================
// JWT Token
// ============================================================================

// SessionClaims 登录会话令牌
type SessionClaims struct {
	ID string `json:"_id"`
	jwt.RegisteredClaims
}

// ActivationClaims 待激活注册信息，记录在激活前不落库
type ActivationClaims struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	jwt.RegisteredClaims
}

// ResetClaims 密码重置令牌，同时写入用户的 resetPasswordLink
type ResetClaims struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// SignSession 签发会话令牌
func SignSession(cfg Config, userID string) (string, error) {
	return sign(cfg.SessionSecret, cfg.SessionTTL, &SessionClaims{ID: userID})
}

// VerifySession 校验会话令牌
func VerifySession(cfg Config, token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := verify(cfg.SessionSecret, token, claims); err != nil {
		return nil, err
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing _id", ErrInvalidToken)
	}
	return claims, nil
}

// SignActivation 签发激活令牌
func SignActivation(cfg Config, name, email, password string) (string, error) {
	return sign(cfg.ActivationSecret, cfg.ActivationTTL, &ActivationClaims{Name: name, Email: email, Password: password})
}

// VerifyActivation 校验激活令牌
func VerifyActivation(cfg Config, token string) (*ActivationClaims, error) {
	claims := &ActivationClaims{}
	if err := verify(cfg.ActivationSecret, token, claims); err != nil {
		return nil, err
	}
	if claims.Email == "" || claims.Password == "" {
		return nil, fmt.Errorf("%w: incomplete signup claims", ErrInvalidToken)
	}
	return claims, nil
}

// SignReset 签发重置令牌
func SignReset(cfg Config, userID, name string) (string, error) {
	return sign(cfg.ResetSecret, cfg.ResetTTL, &ResetClaims{ID: userID, Name: name})
}

// VerifyReset 校验重置令牌
func VerifyReset(cfg Config, token string) (*ResetClaims, error) {
	claims := &ResetClaims{}
	if err := verify(cfg.ResetSecret, token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// registeredClaims 允许 sign 统一设置 iat/exp
type registeredClaims interface {
	jwt.Claims
	registered() *jwt.RegisteredClaims
}

func (c *SessionClaims) registered() *jwt.RegisteredClaims    { return &c.RegisteredClaims }
func (c *ActivationClaims) registered() *jwt.RegisteredClaims { return &c.RegisteredClaims }
func (c *ResetClaims) registered() *jwt.RegisteredClaims      { return &c.RegisteredClaims }

func sign(secret string, ttl time.Duration, claims registeredClaims) (string, error) {
	if secret == "" {
		return "", errors.New("auth: signing secret is empty")
	}
	now := time.Now()
	rc := claims.registered()
	rc.ID = uuid.NewString() // 同一秒内签发的令牌也互不相同
	rc.IssuedAt = jwt.NewNumericDate(now)
	rc.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verify 解析并校验签名与过期时间，失败时 claims 不可使用
func verify(secret, tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return ErrInvalidToken
	}
	return nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithSession 将会话声明注入 context
func WithSession(ctx context.Context, claims *SessionClaims) context.Context {
	return context.WithValue(ctx, ctxKeySession, claims)
}

// SessionFromContext 从 context 获取会话声明
func SessionFromContext(ctx context.Context) *SessionClaims {
	claims, _ := ctx.Value(ctxKeySession).(*SessionClaims)
	return claims
}

// WithProfile 将已加载的用户记录注入 context（AdminGate 使用）
func WithProfile(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyProfile, user)
}

// ProfileFromContext 从 context 获取用户记录
func ProfileFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyProfile).(*model.User)
	return user
}
