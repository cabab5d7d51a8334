package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"
)

// SMTPConfig holds SMTP server configuration.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // sender address
	FromName string // sender display name

	UseTLS      bool // STARTTLS when offered
	SkipVerify  bool // skip certificate verification (testing only)
	UseImplicit bool // implicit TLS (port 465)

	Timeout time.Duration
}

// SMTPSender implements Sender over SMTP.
type SMTPSender struct {
	config SMTPConfig
	now    func() time.Time
}

// NewSMTPSender creates an SMTP sender. Zero Port and Timeout default to
// 587 and 30s.
func NewSMTPSender(config SMTPConfig) *SMTPSender {
	if config.Port == 0 {
		config.Port = 587
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	return &SMTPSender{config: config, now: time.Now}
}

// Send delivers msg via SMTP.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(s.config.Host, fmt.Sprint(s.config.Port))
	body := buildMessage(s.config.FromName, s.config.From, msg, s.now())

	var (
		conn net.Conn
		err  error
	)
	if s.config.UseImplicit {
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: s.config.Timeout},
			Config:    s.tlsConfig(),
		}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dial tls: %w", err)
		}
	} else {
		dialer := &net.Dialer{Timeout: s.config.Timeout}
		conn, err = dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dial: %w", err)
		}
	}
	defer conn.Close()

	// Bound the whole conversation by ctx or the configured timeout.
	deadline := time.Now().Add(s.config.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	return s.deliver(conn, msg.To, body)
}

func (s *SMTPSender) deliver(conn net.Conn, to string, message []byte) error {
	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	defer client.Close()

	if s.config.UseTLS && !s.config.UseImplicit {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(s.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := client.Mail(s.config.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(message); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}
	return client.Quit()
}

func (s *SMTPSender) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         s.config.Host,
		InsecureSkipVerify: s.config.SkipVerify,
	}
}

// buildMessage renders a plain-text RFC 5322 message.
func buildMessage(fromName, from string, msg Message, now time.Time) []byte {
	var buf bytes.Buffer
	if fromName != "" {
		fmt.Fprintf(&buf, "From: %s <%s>\r\n", mime.QEncoding.Encode("utf-8", headerSafe(fromName)), headerSafe(from))
	} else {
		fmt.Fprintf(&buf, "From: %s\r\n", headerSafe(from))
	}
	fmt.Fprintf(&buf, "To: %s\r\n", headerSafe(msg.To))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&buf, "Reply-To: %s\r\n", headerSafe(msg.ReplyTo))
	}
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerSafe(msg.Subject)))
	fmt.Fprintf(&buf, "Date: %s\r\n", now.Format(time.RFC1123Z))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	buf.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	buf.WriteString("\r\n")

	body := strings.ReplaceAll(msg.Body, "\r\n", "\n")
	buf.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return buf.Bytes()
}

// headerSafe drops CR and LF so values cannot inject headers.
func headerSafe(s string) string {
	return strings.NewReplacer("\r", "", "\n", "").Replace(s)
}
