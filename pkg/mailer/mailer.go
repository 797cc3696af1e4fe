package mailer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/diagnosis/mentor-bookings/pkg/logger"
	"github.com/google/uuid"
	"github.com/mailersend/mailersend-go"
)

var ErrDisabled = errors.New("mailer disabled (missing MAILERSEND_API_KEY or MAILER_FROM)")

type Service interface {
	Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error)
}

type MailerSend struct {
	client  *mailersend.Mailersend
	from    mailersend.From
	Enabled bool
}

func NewMailerSend(apiKey, fromName, fromEmail string) *MailerSend {
	m := &MailerSend{
		Enabled: apiKey != "" && fromEmail != "",
		from: mailersend.From{
			Name:  fromName,
			Email: fromEmail,
		},
	}
	if m.Enabled {
		m.client = mailersend.NewMailersend(apiKey)
	}
	return m
}

func (m *MailerSend) Send(ctx context.Context, toEmail, toName, subject, text, html string) (string, error) {
	if !m.Enabled {
		return "", ErrDisabled
	}
	toEmail = strings.TrimSpace(toEmail)
	if toEmail == "" {
		return "", errors.New("empty recipient email")
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	msg := m.client.Email.NewMessage()
	msg.SetFrom(m.from)
	msg.SetRecipients([]mailersend.Recipient{{Name: toName, Email: toEmail}})
	msg.SetSubject(subject)
	if strings.TrimSpace(text) != "" {
		msg.SetText(text)
	}
	if strings.TrimSpace(html) != "" {
		msg.SetHTML(html)
	}

	res, err := m.client.Email.Send(ctx, msg)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(res.Body)
		return "", fmt.Errorf("mailersend error: status=%d body=%s", res.StatusCode, strings.TrimSpace(string(body)))
	}
	// MailerSend uses X-Message-Id
	return res.Header.Get("X-Message-Id"), nil
}

// DevMailer writes messages to the log instead of delivering them.
type DevMailer struct{}

func (DevMailer) Send(ctx context.Context, toEmail, toName, subject, text, _ string) (string, error) {
	id := "dev-" + uuid.NewString()
	logger.InfoContext(ctx, "[DEV MAIL] Email",
		"message_id", id,
		"to", toEmail,
		"to_name", toName,
		"subject", subject,
		"text", text,
	)
	return id, nil
}

// New picks the dev mailer when devMode is set or MailerSend is not configured.
func New(apiKey, fromName, fromEmail string, devMode bool) Service {
	if devMode {
		return DevMailer{}
	}
	m := NewMailerSend(apiKey, fromName, fromEmail)
	if !m.Enabled {
		logger.Warn("MailerSend not configured, falling back to dev mailer")
		return DevMailer{}
	}
	return m
}
