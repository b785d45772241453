// Package mailer renders templated notification emails and delivers them
// over SMTP. Delivery is best-effort from the caller's perspective; the
// mail queue in internal/services owns retries.
package mailer

import (
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// Template keys understood by the mailer.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password_reset"
	TemplateOTP           = "otp"
	TemplateContact       = "contact"
)

// Mailer sends a rendered template to a single recipient.
type Mailer interface {
	Send(to, templateKey string, params map[string]string) error
}

// Config holds SMTP connection settings.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	Timeout  time.Duration
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// SMTPMailer delivers mail over SMTP with STARTTLS.
type SMTPMailer struct {
	cfg       Config
	templates *template.Template
}

// New parses the embedded templates and returns a ready mailer.
func New(cfg Config) (*SMTPMailer, error) {
	tmpl, err := template.New("emails").Parse(emailTemplates)
	if err != nil {
		return nil, fmt.Errorf("parse email templates: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPMailer{cfg: cfg, templates: tmpl}, nil
}

// Send renders the named template with params and delivers it.
func (m *SMTPMailer) Send(to, templateKey string, params map[string]string) error {
	subject, ok := subjects[templateKey]
	if !ok {
		return fmt.Errorf("unknown email template %q", templateKey)
	}

	var body strings.Builder
	if err := m.templates.ExecuteTemplate(&body, templateKey, params); err != nil {
		return fmt.Errorf("render template %q: %w", templateKey, err)
	}

	return m.deliver(to, subject, body.String())
}

func (m *SMTPMailer) deliver(to, subject, body string) error {
	from := m.cfg.From
	if m.cfg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", m.cfg.FromName, m.cfg.From)
	}

	var msg strings.Builder
	msg.WriteString("From: " + from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	dialer := &net.Dialer{Timeout: m.cfg.Timeout}
	netConn, err := dialer.Dial("tcp", m.cfg.addr())
	if err != nil {
		return fmt.Errorf("dial smtp server %s: %w", m.cfg.addr(), err)
	}
	netConn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	client, err := smtp.NewClient(netConn, m.cfg.Host)
	if err != nil {
		netConn.Close()
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" && m.cfg.Password != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", err)
	}
	if _, err := w.Write([]byte(msg.String())); err != nil {
		w.Close()
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish message: %w", err)
	}
	return client.Quit()
}
