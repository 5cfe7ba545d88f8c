package cache

// EmailPurpose 邮件用途
type EmailPurpose string

const (
	PurposeActivation    EmailPurpose = "activation"
	PurposePasswordReset EmailPurpose = "password_reset"
)

// KeyEmailThrottle 节流键前缀，完整键为 {prefix}{purpose}:{email}
const KeyEmailThrottle = "auth:email_throttle:"
