package emails

import (
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"
)

// Sender delivers transactional emails
type Sender interface {
	SendConnectionAccepted(ctx context.Context, to, senderName, recipientName, profileURL string) error
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

func (s *SMTPSender) SendConnectionAccepted(ctx context.Context, to, senderName, recipientName, profileURL string) error {
	subject, body, err := RenderConnectionAccepted(senderName, recipientName, profileURL)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send connection accepted email: %w", err)
	}
	return nil
}

// LogSender only logs what would have been sent. Used when no SMTP host is configured.
type LogSender struct{}

func (LogSender) SendConnectionAccepted(_ context.Context, to, senderName, recipientName, profileURL string) error {
	subject, _, err := RenderConnectionAccepted(senderName, recipientName, profileURL)
	if err != nil {
		return err
	}
	log.Printf("[Email] to=%s subject=%q profile=%s", to, subject, profileURL)
	return nil
}
