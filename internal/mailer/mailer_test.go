package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/smtp"
	"testing"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
		want    any
	}{
		{"default log", Config{}, false, &Log{}},
		{"log", Config{Driver: "LOG"}, false, &Log{}},
		{"sendgrid", Config{Driver: DriverSendGrid, SendGridAPIKey: "SG.key"}, false, &SendGrid{}},
		{"sendgrid missing key", Config{Driver: DriverSendGrid}, true, nil},
		{"smtp", Config{Driver: DriverSMTP, SMTP: SMTPConfig{Host: "mail.local"}}, false, &SMTP{}},
		{"smtp missing host", Config{Driver: DriverSMTP}, true, nil},
		{"unknown", Config{Driver: "pigeon"}, true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := New(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, m)
		})
	}
}

func TestActivationEmail(t *testing.T) {
	msg, err := ActivationEmail("noreply@app.com", "a@x.com", "http://localhost:3000/", "tok.en")
	require.NoError(t, err)

	assert.Equal(t, "noreply@app.com", msg.From)
	assert.Equal(t, "a@x.com", msg.To)
	assert.Equal(t, "Account activation link", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/auth/activate/tok.en")
}

func TestPasswordResetEmail(t *testing.T) {
	msg, err := PasswordResetEmail("noreply@app.com", "a@x.com", "http://localhost:3000", "tok")
	require.NoError(t, err)

	assert.Equal(t, "Password Reset link", msg.Subject)
	assert.Contains(t, msg.HTML, "http://localhost:3000/auth/password/reset/tok")
}

func TestSendGrid_Send(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &gotBody)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sg := newSendGridWithURL("SG.test", srv.URL+"/v3/mail/send")
	err := sg.Send(context.Background(), Message{From: "f@x.com", To: "t@x.com", Subject: "hi", HTML: "<p>x</p>"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer SG.test", gotAuth)
	assert.Equal(t, "hi", gotBody["subject"])
}

func TestSendGrid_SendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	sg := newSendGridWithURL("SG.bad", srv.URL+"/v3/mail/send")
	err := sg.Send(context.Background(), Message{From: "f@x.com", To: "t@x.com", Subject: "hi", HTML: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestSMTP_Send(t *testing.T) {
	var gotAddr string
	var gotEmail *email.Email
	s := NewSMTP(SMTPConfig{Host: "mail.local", Username: "u", Password: "p"})
	s.send = func(e *email.Email, addr string, a smtp.Auth) error {
		gotAddr, gotEmail = addr, e
		assert.NotNil(t, a)
		return nil
	}

	err := s.Send(context.Background(), Message{From: "f@x.com", To: "t@x.com", Subject: "hi", HTML: "<b>x</b>"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Equal(t, []string{"t@x.com"}, gotEmail.To)
	assert.Equal(t, "<b>x</b>", string(gotEmail.HTML))
}

func TestSMTP_SendError(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "mail.local", Port: 25})
	s.send = func(e *email.Email, addr string, a smtp.Auth) error {
		assert.Nil(t, a)
		return errors.New("connection refused")
	}

	err := s.Send(context.Background(), Message{To: "t@x.com"})
	assert.ErrorContains(t, err, "connection refused")
}

func TestSMTP_CancelledContext(t *testing.T) {
	s := NewSMTP(SMTPConfig{Host: "mail.local"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Send(ctx, Message{}), context.Canceled)
}

func TestLog_Send(t *testing.T) {
	assert.NoError(t, NewLog(nil).Send(context.Background(), Message{To: "t@x.com"}))
}
