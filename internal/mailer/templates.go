package mailer

import (
	"bytes"
	"html/template"
	"strings"
)

var activationTmpl = template.Must(template.New("activation").Parse(`
<h4>Please use the following link to activate your account:</h4>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<hr />
<p>This email may contain sensitive information</p>
`))

var resetTmpl = template.Must(template.New("reset").Parse(`
<h1>Please use the following link to reset your password</h1>
<p><a href="{{.Link}}">{{.Link}}</a></p>
<hr />
<p>This email may contain sensitive information</p>
`))

type linkData struct {
	Link string
}

// ActivationLink 客户端账号激活链接
func ActivationLink(clientURL, token string) string {
	return strings.TrimRight(clientURL, "/") + "/auth/activate/" + token
}

// ResetLink 客户端密码重置链接
func ResetLink(clientURL, token string) string {
	return strings.TrimRight(clientURL, "/") + "/auth/password/reset/" + token
}

// ActivationEmail 构造账号激活邮件
func ActivationEmail(from, to, clientURL, token string) (Message, error) {
	html, err := render(activationTmpl, ActivationLink(clientURL, token))
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: to, Subject: "Account activation link", HTML: html}, nil
}

// PasswordResetEmail 构造密码重置邮件
func PasswordResetEmail(from, to, clientURL, token string) (Message, error) {
	html, err := render(resetTmpl, ResetLink(clientURL, token))
	if err != nil {
		return Message{}, err
	}
	return Message{From: from, To: to, Subject: "Password Reset link", HTML: html}, nil
}

func render(t *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, linkData{Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
