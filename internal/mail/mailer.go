// Package mail delivers invoice emails over SMTP and classifies transport
// failures well enough for operator-facing diagnostics and retry tooling.
package mail

import (
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/textproto"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/aikyn/invoice-engine/internal/config"
)

// FailureReason tags why a send failed.
type FailureReason string

const (
	ReasonAuth    FailureReason = "authentication"
	ReasonConnect FailureReason = "connect"
	ReasonTimeout FailureReason = "timeout"
	ReasonOther   FailureReason = "other"
)

// SendError wraps a transport failure with its classified reason.
type SendError struct {
	Reason FailureReason
	Err    error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("email send failed (%s): %v", e.Reason, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Message is one outgoing email. Attachment is optional.
type Message struct {
	To             string
	Subject        string
	Body           string
	AttachmentPath string
}

type Mailer struct {
	cfg config.SMTPConfig
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one message, blocking until the SMTP conversation finishes.
func (m *Mailer) Send(msg Message) error {
	if m.cfg.Host == "" {
		return &SendError{Reason: ReasonConnect, Err: errors.New("smtp host is not configured")}
	}
	if m.cfg.Username != "" && m.cfg.Password == "" {
		return &SendError{Reason: ReasonAuth, Err: errors.New("smtp password is empty, configure credentials")}
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}

	email := gomail.NewMessage()
	email.SetHeader("From", from)
	email.SetHeader("To", msg.To)
	email.SetHeader("Subject", msg.Subject)
	email.SetBody("text/plain", msg.Body)
	if msg.AttachmentPath != "" {
		email.Attach(msg.AttachmentPath)
	}

	dialer := newDialer(m.cfg)
	if err := dialer.DialAndSend(email); err != nil {
		return &SendError{Reason: Classify(err), Err: err}
	}
	return nil
}

// newDialer maps the TLS setting onto gomail: implicit TLS on 465 when
// enabled, STARTTLS negotiation otherwise. Disabling TLS permits plaintext
// servers such as a local relay.
func newDialer(cfg config.SMTPConfig) *gomail.Dialer {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.SSL = cfg.UseTLS && cfg.Port == 465
	if !cfg.UseTLS {
		dialer.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return dialer
}

// Classify maps a raw SMTP/network error to a failure reason.
func Classify(err error) FailureReason {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ReasonTimeout
	}

	var protoErr *textproto.Error
	if errors.As(err, &protoErr) {
		switch protoErr.Code {
		case 530, 534, 535:
			return ReasonAuth
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ReasonConnect
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return ReasonConnect
	}

	text := strings.ToLower(err.Error())
	switch {
	case strings.Contains(text, "535") || strings.Contains(text, "auth"):
		return ReasonAuth
	case strings.Contains(text, "timeout") || strings.Contains(text, "timed out"):
		return ReasonTimeout
	case strings.Contains(text, "connection refused") || strings.Contains(text, "no such host"):
		return ReasonConnect
	}
	return ReasonOther
}

// BuildInvoiceEmail renders the standard invoice subject and body. Period
// dates arrive preformatted for display.
func BuildInvoiceEmail(clientName, contractorName, vendorName, vendorEmail, periodStart, periodEnd, invoiceNumber string) (subject, body string) {
	subject = fmt.Sprintf("Invoice %s | %s | %s - %s", invoiceNumber, contractorName, periodStart, periodEnd)
	body = fmt.Sprintf(
		"Hi %s,\n\n"+
			"Please find attached the invoice for %s for the period %s - %s.\n\n"+
			"Kindly confirm receipt and let me know if anything further is required.\n\n"+
			"Thank you,\n\n%s\n%s",
		clientName, contractorName, periodStart, periodEnd, vendorName, vendorEmail,
	)
	return subject, body
}
