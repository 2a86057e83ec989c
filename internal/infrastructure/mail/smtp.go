// Package mail delivers rendered messages over SMTP. The core hands over
// only recipient, kind and OTP code; subject and body templates live here,
// outside the credential logic.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"github.com/authentiscan/identity-service/internal/core/ports"
	"github.com/authentiscan/identity-service/internal/pkg/config"
)

// SMTPNotifier sends mail through a plain SMTP relay.
type SMTPNotifier struct {
	addr   string
	auth   smtp.Auth
	sender string
}

func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPNotifier{
		addr:   net.JoinHostPort(cfg.Host, cfg.Port),
		auth:   auth,
		sender: cfg.Sender,
	}
}

// Send renders the message for its kind and submits it to the relay.
func (n *SMTPNotifier) Send(_ context.Context, m ports.OutboundMail) error {
	subject, body, err := render(m)
	if err != nil {
		return err
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", n.sender)
	fmt.Fprintf(&msg, "To: %s\r\n", m.To)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(n.addr, n.auth, n.sender, []string{m.To}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
