package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go-ecom-api/pkg/config"

	"github.com/cenkalti/backoff/v4"
	"github.com/wneessen/go-mail"
)

const smtpTimeout = 15 * time.Second

type deliverFunc func(ctx context.Context, msg *mail.Msg) error

// SMTPSender delivers notifications as plain-text mail.
type SMTPSender struct {
	cfg     config.SMTPConfig
	deliver deliverFunc
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	s := &SMTPSender{cfg: cfg}
	s.deliver = s.dialAndSend
	return s
}

// Send returns a permanent error for messages no retry can fix. A cancelled
// context is returned as is so the worker can requeue.
func (s *SMTPSender) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(n.To) == "" {
		return backoff.Permanent(fmt.Errorf("notification %s has no recipient", n.ID))
	}
	msg, err := s.message(n)
	if err != nil {
		return backoff.Permanent(err)
	}
	return s.deliver(ctx, msg)
}

func (s *SMTPSender) message(n Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", n.To, err)
	}
	msg.Subject(n.Subject)
	if n.CreatedAt.IsZero() {
		msg.SetDate()
	} else {
		msg.SetDateWithValue(n.CreatedAt)
	}
	msg.SetMessageIDWithValue(fmt.Sprintf("%s@%s", n.ID, s.cfg.Host))
	msg.SetBodyString(mail.TypeTextPlain, n.Body)
	return msg, nil
}

func (s *SMTPSender) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(smtpTimeout),
	)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("smtp client: %w", err))
	}
	return client.DialAndSendWithContext(ctx, msg)
}
