package auth

// 认证事件名称
const (
	EventSignup     = "signup"
	EventActivation = "activation"
	EventSignin     = "signin"
	EventForgot     = "forgot_password"
	EventReset      = "reset_password"
	EventProfile    = "profile_update"
)

// 事件结果
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeRejected = "rejected"
)

// EventRecorder 认证事件计数（由 server 包以 Prometheus 实现）
type EventRecorder interface {
	RecordAuthEvent(event, outcome string)
	RecordEmailSent(purpose string, err error)
}

// NoOpRecorder 不记录任何事件
type NoOpRecorder struct{}

func (NoOpRecorder) RecordAuthEvent(event, outcome string)     {}
func (NoOpRecorder) RecordEmailSent(purpose string, err error) {}
