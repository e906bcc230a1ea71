// Package smtp implements the notifier port over SMTP.
package smtp

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/asalhani/clinicapp/core"
)

var ErrFromRequired = errors.New("sender address is required")

type Config struct {
	Host     string
	Port     int
	Username string
	Password string

	// From is the sender address on every message.
	From string
}

type Notifier struct {
	client *mail.Client
	from   string
}

var _ core.Notifier = (*Notifier)(nil)

func New(config Config) (*Notifier, error) {
	if config.From == "" {
		return nil, ErrFromRequired
	}

	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if config.Port != 0 {
		opts = append(opts, mail.WithPort(config.Port))
	}
	if config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
		)
	}

	client, err := mail.NewClient(config.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &Notifier{client: client, from: config.From}, nil
}

func (n *Notifier) Send(ctx context.Context, msg core.Message) error {
	m, err := n.build(msg)
	if err != nil {
		return err
	}

	if err := n.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

func (n *Notifier) build(msg core.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(n.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	return m, nil
}
