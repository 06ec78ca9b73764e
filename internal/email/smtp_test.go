package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaryapi/internal/config"
)

func TestSMTPSender_Send(t *testing.T) {
	sender, err := NewSMTP(config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     "587",
		Username: "mailer",
		Password: "secret",
		From:     "no-reply@example.com",
	})
	require.NoError(t, err)

	var gotTo []string
	var gotMsg []byte
	s := sender.(*smtpSender)
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "smtp.example.com:587", addr)
		assert.Equal(t, "no-reply@example.com", from)
		gotTo = to
		gotMsg = msg
		return nil
	}

	err = s.Send(context.Background(), "jane@example.com", TemplateCheckoutLink, map[string]string{
		"filename":     "deed.pdf",
		"checkout_url": "https://gw/checkout/42",
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"jane@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Payment requested")
	assert.Contains(t, string(gotMsg), "https://gw/checkout/42")
}

func TestSMTPSender_UnknownTemplate(t *testing.T) {
	sender, err := NewSMTP(config.SMTPConfig{Host: "smtp.example.com", Port: "587"})
	require.NoError(t, err)

	err = sender.Send(context.Background(), "jane@example.com", "no_such_template", nil)

	assert.Error(t, err)
}

func TestNewSMTP_RequiresHost(t *testing.T) {
	_, err := NewSMTP(config.SMTPConfig{})
	assert.Error(t, err)
}
