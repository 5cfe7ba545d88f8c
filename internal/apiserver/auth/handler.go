package auth

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"auth-server/internal/mailer"
	"auth-server/internal/shared/cache"
	"auth-server/internal/shared/model"
	"auth-server/internal/shared/storage"
	"auth-server/pkg/logging"
)

// 请求体上限
const maxBodyBytes = 1 << 20

// 邮件发送失败时返回给客户端的固定消息，服务商错误只记录日志
const (
	msgActivationEmailFailed = "Failed to send the activation email. Please try again later"
	msgResetEmailFailed      = "Failed to send the password reset email. Please try again later"
)

// Handler 认证 HTTP 处理器
type Handler struct {
	store    storage.UserStore
	mail     mailer.Mailer
	throttle cache.EmailThrottle
	events   EventRecorder
	cfg      Config
	logger   *logging.Logger
}

// NewHandler 创建认证处理器
//
// 默认不做邮件节流、不记录指标，可通过 WithThrottle / WithRecorder 替换。
func NewHandler(store storage.UserStore, mail mailer.Mailer, cfg Config) *Handler {
	return &Handler{
		store:    store,
		mail:     mail,
		throttle: cache.NewNoOpThrottle(),
		events:   NoOpRecorder{},
		cfg:      cfg,
		logger:   logging.Default("auth"),
	}
}

// WithThrottle 设置邮件节流器
func (h *Handler) WithThrottle(t cache.EmailThrottle) *Handler {
	if t != nil {
		h.throttle = t
	}
	return h
}

// WithRecorder 设置事件记录器
func (h *Handler) WithRecorder(r EventRecorder) *Handler {
	if r != nil {
		h.events = r
	}
	return h
}

// WithLogger 设置日志器
func (h *Handler) WithLogger(l *logging.Logger) *Handler {
	if l != nil {
		h.logger = l
	}
	return h
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/signup", h.Signup)
	mux.HandleFunc("POST /api/account-activation", h.AccountActivation)
	mux.HandleFunc("POST /api/signin", h.Signin)
	mux.HandleFunc("POST /api/forgot-password", h.ForgotPassword)
	mux.HandleFunc("PUT /api/forgot-password", h.ForgotPassword)
	mux.HandleFunc("POST /api/reset-password", h.ResetPassword)
	mux.HandleFunc("PUT /api/reset-password", h.ResetPassword)

	session := SessionGate(h.cfg)
	mux.Handle("GET /api/user/{id}", session(http.HandlerFunc(h.ReadProfile)))
	mux.Handle("PUT /api/user/update", session(http.HandlerFunc(h.UpdateProfile)))
	mux.Handle("PUT /api/admin/update", session(AdminGate(h.store)(http.HandlerFunc(h.AdminUpdate))))
}

// ============================================================================
// 响应类型
// ============================================================================

type messageResponse struct {
	Message string `json:"message"`
}

type signinResponse struct {
	Token string           `json:"token"`
	User  model.PublicUser `json:"user"`
}

// ============================================================================
// Handlers
// ============================================================================

// Signup 注册：校验后签发激活令牌并发送激活邮件，不落库
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	email := model.NormalizeEmail(req.Email)

	existing, err := h.store.GetUserByEmail(ctx, email)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("signup: lookup user failed")
		h.events.RecordAuthEvent(EventSignup, OutcomeFailure)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if existing != nil {
		h.events.RecordAuthEvent(EventSignup, OutcomeRejected)
		writeError(w, http.StatusBadRequest, "Email is taken")
		return
	}

	if !h.allowEmail(w, r, cache.PurposeActivation, email) {
		h.events.RecordAuthEvent(EventSignup, OutcomeRejected)
		return
	}

	token, err := SignActivation(h.cfg, strings.TrimSpace(req.Name), email, req.Password)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("signup: sign activation token failed")
		h.events.RecordAuthEvent(EventSignup, OutcomeFailure)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	msg, err := mailer.ActivationEmail(h.cfg.EmailFrom, email, h.cfg.ClientURL, token)
	if err == nil {
		err = h.mail.Send(ctx, msg)
	}
	h.events.RecordEmailSent(string(cache.PurposeActivation), err)
	if err != nil {
		h.logger.AuthEventLog(EventSignup, OutcomeFailure, email, err)
		h.events.RecordAuthEvent(EventSignup, OutcomeFailure)
		h.releaseEmail(r, cache.PurposeActivation, email)
		writeError(w, http.StatusBadRequest, msgActivationEmailFailed)
		return
	}

	h.logger.AuthEventLog(EventSignup, OutcomeSuccess, email, nil)
	h.events.RecordAuthEvent(EventSignup, OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("An email has been sent to %s. Follow the instruction to activate your account", email),
	})
}

// AccountActivation 激活：校验激活令牌后创建用户
func (h *Handler) AccountActivation(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Token == "" {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Token is not found"})
		return
	}

	ctx := r.Context()
	claims, err := VerifyActivation(h.cfg, req.Token)
	if err != nil {
		h.logger.AuthEventLog(EventActivation, OutcomeRejected, "", err)
		h.events.RecordAuthEvent(EventActivation, OutcomeRejected)
		writeError(w, http.StatusUnauthorized, "Expired link. Please sign up again")
		return
	}

	user := model.NewUser(claims.Name, claims.Email, claims.Password)
	if err := h.store.CreateUser(ctx, user); err != nil {
		h.logger.AuthEventLog(EventActivation, OutcomeFailure, claims.Email, err)
		h.events.RecordAuthEvent(EventActivation, OutcomeFailure)
		writeError(w, http.StatusUnauthorized, "Error saving user into the database. Please sign up again")
		return
	}

	h.logger.AuthEventLog(EventActivation, OutcomeSuccess, user.Email, nil)
	h.events.RecordAuthEvent(EventActivation, OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Sign up success!"})
}

// Signin 登录：校验密码后签发会话令牌
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	var req signinRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	email := model.NormalizeEmail(req.Email)

	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		h.logger.AuthEventLog(EventSignin, OutcomeRejected, email, err)
		h.events.RecordAuthEvent(EventSignin, OutcomeRejected)
		writeError(w, http.StatusBadRequest, "Email does not exist")
		return
	}
	if !user.Authenticate(req.Password) {
		h.events.RecordAuthEvent(EventSignin, OutcomeRejected)
		writeError(w, http.StatusBadRequest, "Email/Password do not match")
		return
	}

	token, err := SignSession(h.cfg, user.ID)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("signin: sign session token failed")
		h.events.RecordAuthEvent(EventSignin, OutcomeFailure)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.logger.AuthEventLog(EventSignin, OutcomeSuccess, email, nil)
	h.events.RecordAuthEvent(EventSignin, OutcomeSuccess)
	writeJSON(w, http.StatusOK, signinResponse{Token: token, User: user.Public()})
}

// ForgotPassword 找回密码：签发重置令牌、写入 resetPasswordLink 并发送邮件
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req forgotPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	email := model.NormalizeEmail(req.Email)

	user, err := h.store.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		h.logger.AuthEventLog(EventForgot, OutcomeRejected, email, err)
		h.events.RecordAuthEvent(EventForgot, OutcomeRejected)
		writeError(w, http.StatusBadRequest, "User with that email does not exist")
		return
	}

	if !h.allowEmail(w, r, cache.PurposePasswordReset, email) {
		h.events.RecordAuthEvent(EventForgot, OutcomeRejected)
		return
	}

	token, err := SignReset(h.cfg, user.ID, user.Name)
	if err != nil {
		h.logger.WithContext(ctx).WithError(err).Error("forgot-password: sign reset token failed")
		h.events.RecordAuthEvent(EventForgot, OutcomeFailure)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := h.store.SetResetPasswordLink(ctx, user.ID, token); err != nil {
		h.logger.AuthEventLog(EventForgot, OutcomeFailure, email, err)
		h.events.RecordAuthEvent(EventForgot, OutcomeFailure)
		writeError(w, http.StatusBadRequest, "Database connection error on user password forgot request")
		return
	}

	msg, err := mailer.PasswordResetEmail(h.cfg.EmailFrom, email, h.cfg.ClientURL, token)
	if err == nil {
		err = h.mail.Send(ctx, msg)
	}
	h.events.RecordEmailSent(string(cache.PurposePasswordReset), err)
	if err != nil {
		h.logger.AuthEventLog(EventForgot, OutcomeFailure, email, err)
		h.events.RecordAuthEvent(EventForgot, OutcomeFailure)
		h.releaseEmail(r, cache.PurposePasswordReset, email)
		writeError(w, http.StatusBadRequest, msgResetEmailFailed)
		return
	}

	h.logger.AuthEventLog(EventForgot, OutcomeSuccess, email, nil)
	h.events.RecordAuthEvent(EventForgot, OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Email has been sent to %s. Follow the instruction to reset your password.", email),
	})
}

// ResetPassword 重置密码：令牌须通过校验且与当前存储的 resetPasswordLink 一致
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ResetPasswordLink == "" {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Reset token is not found"})
		return
	}

	ctx := r.Context()
	claims, err := VerifyReset(h.cfg, req.ResetPasswordLink)
	if err != nil {
		h.logger.AuthEventLog(EventReset, OutcomeRejected, "", err)
		h.events.RecordAuthEvent(EventReset, OutcomeRejected)
		writeError(w, http.StatusUnauthorized, "Expired link. Please reset password again")
		return
	}

	user, err := h.store.GetUserByResetLink(ctx, req.ResetPasswordLink)
	if err != nil || user == nil || user.ID != claims.ID {
		h.logger.AuthEventLog(EventReset, OutcomeRejected, "", err)
		h.events.RecordAuthEvent(EventReset, OutcomeRejected)
		writeError(w, http.StatusUnauthorized, "Could not find the token in the database")
		return
	}

	user.Password = req.NewPassword
	user.ResetPasswordLink = ""
	if err := h.store.SaveUser(ctx, user); err != nil {
		h.logger.AuthEventLog(EventReset, OutcomeFailure, user.Email, err)
		h.events.RecordAuthEvent(EventReset, OutcomeFailure)
		writeError(w, http.StatusUnauthorized, "Fail to updated the user password")
		return
	}

	h.logger.AuthEventLog(EventReset, OutcomeSuccess, user.Email, nil)
	h.events.RecordAuthEvent(EventReset, OutcomeSuccess)
	writeJSON(w, http.StatusOK, messageResponse{Message: "Your password has been updated!"})
}

// allowEmail 邮件节流检查；节流器故障时放行
func (h *Handler) allowEmail(w http.ResponseWriter, r *http.Request, purpose cache.EmailPurpose, email string) bool {
	ok, err := h.throttle.Allow(r.Context(), purpose, email)
	if err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("email throttle unavailable, allowing")
		return true
	}
	if !ok {
		writeError(w, http.StatusBadRequest, "Please wait before requesting another email")
		return false
	}
	return true
}

// releaseEmail 发送失败时归还冷却占用，使用户可立即重试
func (h *Handler) releaseEmail(r *http.Request, purpose cache.EmailPurpose, email string) {
	if err := h.throttle.Release(r.Context(), purpose, email); err != nil {
		h.logger.WithContext(r.Context()).WithError(err).Warn("email throttle release failed")
	}
}

// ============================================================================
// 工具函数
// ============================================================================

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
