package email

import (
	"context"
	"net/smtp"
	"testing"

	"github.com/dentalclinic/payouts/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendTemplateRendersAndSends(t *testing.T) {
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	p := NewSMTP(Config{Host: "smtp.local", Port: 2525, From: "payouts@clinic.local"})
	p.send = func(addr string, _ smtp.Auth, _ string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := p.SendTemplate(context.Background(), []string{"dr@clinic.local"}, "Settlement approved", "settlement_ready", map[string]any{
		"ProfessionalName": "Dr. Ruiz",
		"PeriodStart":      "2024-01-01",
		"PeriodEnd":        "2024-01-31",
		"NetAmount":        "430.00",
	})
	require.NoError(t, err)
	assert.Equal(t, "smtp.local:2525", gotAddr)
	assert.Equal(t, []string{"dr@clinic.local"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Settlement approved")
	assert.Contains(t, gotMsg, "Dr. Ruiz")
	assert.Contains(t, gotMsg, "430.00")
}

func TestSendRequiresRecipient(t *testing.T) {
	p := NewSMTP(Config{Host: "smtp.local", Port: 25})
	assert.Error(t, p.Send(context.Background(), nil, "s", "b"))
}

func TestUnknownTemplateFails(t *testing.T) {
	p := NewSMTP(Config{Host: "smtp.local", Port: 25})
	err := p.SendTemplate(context.Background(), []string{"a@b.c"}, "s", "missing", nil)
	assert.Error(t, err)
}

func TestNewFromConfigWithoutHostIsNoop(t *testing.T) {
	_, ok := NewFromConfig(config.Config{}).(NoOpProvider)
	assert.True(t, ok)
}
