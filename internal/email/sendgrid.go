package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender delivers complaints through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromName  string
	fromEmail string
}

func NewSendGridSender(apiKey, fromEmail, fromName string) *SendGridSender {
	return &SendGridSender{
		client:    sendgrid.NewSendClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

// build is separate from Send so the payload can be inspected without a network call.
func (s *SendGridSender) build(m Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(s.fromName, s.fromEmail))
	message.Subject = m.Subject

	p := mail.NewPersonalization()
	p.AddTos(mail.NewEmail("", m.To))
	if m.CC != "" && m.CC != m.To {
		p.AddCCs(mail.NewEmail("", m.CC))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", m.Body))

	for _, att := range m.Attachments {
		a := mail.NewAttachment()
		a.SetContent(base64.StdEncoding.EncodeToString(att.Content))
		a.SetType(att.ContentType)
		a.SetFilename(att.FileName)
		a.SetDisposition("attachment")
		message.AddAttachment(a)
	}
	return message
}

func (s *SendGridSender) Send(ctx context.Context, m Message) error {
	resp, err := s.client.SendWithContext(ctx, s.build(m))
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
