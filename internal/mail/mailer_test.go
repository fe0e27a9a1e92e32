package mail

import (
	"errors"
	"net"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikyn/invoice-engine/internal/config"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureReason
	}{
		{"network timeout", timeoutError{}, ReasonTimeout},
		{"smtp 535", &textproto.Error{Code: 535, Msg: "5.7.8 authentication credentials invalid"}, ReasonAuth},
		{"smtp 530", &textproto.Error{Code: 530, Msg: "5.7.0 authentication required"}, ReasonAuth},
		{"op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, ReasonConnect},
		{"dns error", &net.DNSError{Err: "no such host", Name: "smtp.invalid"}, ReasonConnect},
		{"auth text fallback", errors.New("gomail: could not authenticate"), ReasonAuth},
		{"timeout text fallback", errors.New("handshake timed out"), ReasonTimeout},
		{"refused text fallback", errors.New("connect: connection refused"), ReasonConnect},
		{"anything else", errors.New("short write"), ReasonOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestSendWithoutHostFailsFast(t *testing.T) {
	m := NewMailer(config.SMTPConfig{})

	err := m.Send(Message{To: "acme@client.test", Subject: "Invoice"})
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, ReasonConnect, sendErr.Reason)
}

func TestSendWithoutPasswordFailsFast(t *testing.T) {
	m := NewMailer(config.SMTPConfig{Host: "smtp.test", Port: 587, Username: "billing@northline.test"})

	err := m.Send(Message{To: "acme@client.test", Subject: "Invoice"})
	require.Error(t, err)

	var sendErr *SendError
	require.ErrorAs(t, err, &sendErr)
	assert.Equal(t, ReasonAuth, sendErr.Reason)
}

func TestNewDialerTLSModes(t *testing.T) {
	t.Run("implicit TLS on 465", func(t *testing.T) {
		d := newDialer(config.SMTPConfig{Host: "smtp.test", Port: 465, UseTLS: true})
		assert.True(t, d.SSL)
	})

	t.Run("STARTTLS on submission port", func(t *testing.T) {
		d := newDialer(config.SMTPConfig{Host: "smtp.test", Port: 587, UseTLS: true})
		assert.False(t, d.SSL)
		assert.Nil(t, d.TLSConfig)
	})

	t.Run("TLS disabled tolerates plaintext relays", func(t *testing.T) {
		d := newDialer(config.SMTPConfig{Host: "localhost", Port: 1025, UseTLS: false})
		assert.False(t, d.SSL)
		require.NotNil(t, d.TLSConfig)
		assert.True(t, d.TLSConfig.InsecureSkipVerify)
	})
}

func TestBuildInvoiceEmail(t *testing.T) {
	subject, body := BuildInvoiceEmail(
		"Acme Property Group",
		"J. Moreau",
		"Northline Services Inc.",
		"billing@northline.test",
		"Jan 09, 2026",
		"Jan 15, 2026",
		"ACME-20260116-001",
	)

	assert.Equal(t, "Invoice ACME-20260116-001 | J. Moreau | Jan 09, 2026 - Jan 15, 2026", subject)
	assert.Contains(t, body, "Hi Acme Property Group,")
	assert.Contains(t, body, "J. Moreau")
	assert.Contains(t, body, "Jan 09, 2026 - Jan 15, 2026")
	assert.Contains(t, body, "Northline Services Inc.\nbilling@northline.test")
}
