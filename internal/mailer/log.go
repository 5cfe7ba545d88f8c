package mailer

import (
	"context"

	"auth-server/pkg/logging"
)

// Log 仅打印邮件内容，不实际发送（开发环境）
type Log struct {
	logger *logging.Logger
}

// NewLog 创建 Log Mailer；logger 为 nil 时使用默认日志器
func NewLog(logger *logging.Logger) *Log {
	if logger == nil {
		logger = logging.Default("mailer")
	}
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, msg Message) error {
	l.logger.WithContext(ctx).Info("Email not sent (log driver)",
		"from", msg.From,
		"to", msg.To,
		"subject", msg.Subject,
		"html", msg.HTML,
	)
	return nil
}
