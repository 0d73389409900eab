package smtp

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"
	"time"
)

// Mailer delivers one-time codes by email.
type Mailer interface {
	SendLoginCode(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendPasswordResetCode(ctx context.Context, to, name, code string, ttl time.Duration) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type mailer struct {
	host     string
	port     string
	from     string
	username string
	password string
	send     sendFunc
}

func NewMailer(host, port, from, username, password string) Mailer {
	return &mailer{
		host:     host,
		port:     port,
		from:     from,
		username: username,
		password: password,
		send:     smtp.SendMail,
	}
}

var codeTmpl = template.Must(template.New("code").Parse(`<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif">
<p>Hello{{if .Name}} {{.Name}}{{end}},</p>
<p>{{.Intro}}</p>
<p style="font-size:32px;font-weight:bold;letter-spacing:6px;font-family:monospace">{{.Code}}</p>
<p>This code expires in {{.Minutes}} minutes. If you did not request it, ignore this email.</p>
</body></html>`))

type codeData struct {
	Name    string
	Intro   string
	Code    string
	Minutes int
}

func (m *mailer) SendLoginCode(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.sendCode(ctx, to, "Your verification code", codeData{
		Name: name, Intro: "Use this code to finish signing in:", Code: code, Minutes: int(ttl.Minutes()),
	})
}

func (m *mailer) SendPasswordResetCode(ctx context.Context, to, name, code string, ttl time.Duration) error {
	return m.sendCode(ctx, to, "Reset your password", codeData{
		Name: name, Intro: "Use this code to reset your password:", Code: code, Minutes: int(ttl.Minutes()),
	})
}

func (m *mailer) sendCode(ctx context.Context, to, subject string, data codeData) error {
	var body bytes.Buffer
	if err := codeTmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.sendEmail(to, subject, body.String())
}

func (m *mailer) sendEmail(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s",
		m.from, to, subject, body)
	addr := fmt.Sprintf("%s:%s", m.host, m.port)

	var auth smtp.Auth
	if m.username != "" {
		auth = smtp.PlainAuth("", m.username, m.password, m.host)
	}

	if err := m.send(addr, auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
