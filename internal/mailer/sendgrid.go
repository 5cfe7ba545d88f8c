package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGrid 通过 SendGrid v3 API 发送邮件
type SendGrid struct {
	client *sendgrid.Client
}

// NewSendGrid 创建 SendGrid Mailer
func NewSendGrid(apiKey string) *SendGrid {
	return &SendGrid{client: sendgrid.NewSendClient(apiKey)}
}

// newSendGridWithURL 指定完整的发送端点（测试用）
func newSendGridWithURL(apiKey, url string) *SendGrid {
	c := sendgrid.NewSendClient(apiKey)
	c.BaseURL = url
	return &SendGrid{client: c}
}

func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(mail.NewEmail("", msg.From), msg.Subject, mail.NewEmail("", msg.To), "", msg.HTML)

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid: send failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid: unexpected status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
