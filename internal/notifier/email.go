package notifier

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// EmailConfig holds SMTP configuration. Messages go to the project's
// designer.
type EmailConfig struct {
	Host     string
	Port     int // 465 for implicit TLS, 587 or 25 for STARTTLS
	Username string
	Password string
	From     string
}

// Validate validates the email configuration.
func (c *EmailConfig) Validate() error {
	if c.Host == "" {
		return errors.New("SMTP host is required")
	}
	if c.Port == 0 {
		return errors.New("SMTP port is required")
	}
	if c.From == "" {
		return errors.New("from address is required")
	}
	return nil
}

// EmailNotifier mails events to the designer.
type EmailNotifier struct {
	config    EmailConfig
	templates *Templates
}

// NewEmailNotifier creates a new email notifier.
func NewEmailNotifier(config EmailConfig) (*EmailNotifier, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid email config: %w", err)
	}
	templates, err := LoadTemplates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}
	return &EmailNotifier{config: config, templates: templates}, nil
}

// Name returns "email".
func (e *EmailNotifier) Name() string {
	return "email"
}

// Send mails ev to ev.DesignerEmail.
func (e *EmailNotifier) Send(ctx context.Context, ev *Event) error {
	if ev.DesignerEmail == "" {
		return errors.New("event has no recipient")
	}

	data := EventToTemplateData(ev)
	htmlPart, err := e.templates.RenderHTML(data)
	if err != nil {
		return fmt.Errorf("render HTML template: %w", err)
	}
	plainPart, err := e.templates.RenderPlain(data)
	if err != nil {
		return fmt.Errorf("render plain template: %w", err)
	}

	msg := e.buildMIMEMessage(ev.DesignerEmail, ev.Title(), plainPart, htmlPart)
	return e.sendMail(ctx, ev.DesignerEmail, msg)
}

// Close is a no-op.
func (e *EmailNotifier) Close() error {
	return nil
}

// buildMIMEMessage builds a multipart/alternative message.
func (e *EmailNotifier) buildMIMEMessage(to, subject, plainPart, htmlPart string) []byte {
	boundary := fmt.Sprintf("----=_Part_%d", time.Now().UnixNano())

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", e.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&msg, "Content-Type: multipart/alternative; boundary=\"%s\"\r\n\r\n", boundary)

	for _, part := range []struct{ ctype, body string }{
		{"text/plain", plainPart},
		{"text/html", htmlPart},
	} {
		fmt.Fprintf(&msg, "--%s\r\n", boundary)
		fmt.Fprintf(&msg, "Content-Type: %s; charset=UTF-8\r\n\r\n", part.ctype)
		msg.WriteString(part.body)
		msg.WriteString("\r\n")
	}
	fmt.Fprintf(&msg, "--%s--\r\n", boundary)

	return []byte(msg.String())
}

func (e *EmailNotifier) sendMail(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(e.config.Host, fmt.Sprint(e.config.Port))
	tlsConfig := &tls.Config{ServerName: e.config.Host}

	var (
		client *smtp.Client
		err    error
	)
	if e.config.Port == 465 {
		client, err = e.connectImplicitTLS(ctx, addr, tlsConfig)
	} else {
		client, err = e.connectSTARTTLS(ctx, addr, tlsConfig)
	}
	if err != nil {
		return fmt.Errorf("connect to SMTP server: %w", err)
	}
	defer client.Close()

	if e.config.Username != "" && e.config.Password != "" {
		auth := smtp.PlainAuth("", e.config.Username, e.config.Password, e.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(extractEmail(e.config.From)); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("add recipient %s: %w", to, err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}

func (e *EmailNotifier) connectImplicitTLS(ctx context.Context, addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
	dialer := &tls.Dialer{NetDialer: &net.Dialer{Timeout: 30 * time.Second}, Config: tlsConfig}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(conn, e.config.Host)
}

func (e *EmailNotifier) connectSTARTTLS(ctx context.Context, addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: 30 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, e.config.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	}
	return client, nil
}

// extractEmail returns the address part of "Name <email>".
func extractEmail(addr string) string {
	if start := strings.Index(addr, "<"); start != -1 {
		if end := strings.Index(addr, ">"); end > start {
			return addr[start+1 : end]
		}
	}
	return addr
}
