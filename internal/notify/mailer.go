package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// Mailer relays a single email. Implementations must be safe for concurrent
// use.
type Mailer interface {
	Mail(to, from, subject, body string) error
}

// SMTPMailer sends mail through a plain SMTP endpoint (Mailpit or a real
// relay). No authentication: the relay is expected to sit on the private
// network.
type SMTPMailer struct {
	addr string
}

// NewSMTPMailer constructs a mailer for host:port.
func NewSMTPMailer(host string, port int) *SMTPMailer {
	return &SMTPMailer{addr: fmt.Sprintf("%s:%d", host, port)}
}

// Mail sends one message.
func (m *SMTPMailer) Mail(to, from, subject, body string) error {
	msg := buildMessage(to, from, subject, body)
	if err := smtp.SendMail(m.addr, nil, from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(to, from, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
