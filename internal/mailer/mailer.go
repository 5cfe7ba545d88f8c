// Package mailer 事务性邮件发送
//
// Mailer 由调用方注入，不存在进程级全局配置。
// 具体实现：SendGrid（HTTP API）、SMTP、Log（开发环境仅打印）。
package mailer

import (
	"context"
	"fmt"
	"strings"
)

// Message 待发送邮件
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Mailer 邮件发送接口
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// Driver 邮件驱动类型
type Driver string

const (
	DriverSendGrid Driver = "sendgrid"
	DriverSMTP     Driver = "smtp"
	DriverLog      Driver = "log"
)

// Config 邮件配置
type Config struct {
	Driver         Driver
	SendGridAPIKey string
	SMTP           SMTPConfig
}

// New 根据配置创建 Mailer
func New(cfg Config) (Mailer, error) {
	switch Driver(strings.ToLower(string(cfg.Driver))) {
	case DriverSendGrid:
		if cfg.SendGridAPIKey == "" {
			return nil, fmt.Errorf("mailer: sendgrid driver requires an API key")
		}
		return NewSendGrid(cfg.SendGridAPIKey), nil
	case DriverSMTP:
		if cfg.SMTP.Host == "" {
			return nil, fmt.Errorf("mailer: smtp driver requires a host")
		}
		return NewSMTP(cfg.SMTP), nil
	case DriverLog, "":
		return NewLog(nil), nil
	default:
		return nil, fmt.Errorf("mailer: unsupported driver %q", cfg.Driver)
	}
}
