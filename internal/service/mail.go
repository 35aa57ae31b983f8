package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Notifier delivers a plain text message to a single address
type Notifier interface {
	Notify(ctx context.Context, to, subject, body string) error
}

type Mailer struct {
	from   string
	dialer *gomail.Dialer
}

func NewMailer(host string, port int, from, password string) *Mailer {
	return &Mailer{
		from:   from,
		dialer: gomail.NewDialer(host, port, from, password),
	}
}

func (m *Mailer) Notify(_ context.Context, to, subject, body string) error {
	if to == "" || to == m.from {
		return errors.New("invalid email address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	return m.dialer.DialAndSend(msg)
}

// LogNotifier only logs messages. Used when mail delivery is disabled.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, to, subject, _ string) error {
	zap.L().Info("Mail delivery disabled, dropping notification", zap.String("to", to), zap.String("subject", subject))
	return nil
}

// notify never fails the caller. A lost email must not undo the transition
// it announces.
func notify(ctx context.Context, n Notifier, to, subject, body string) {
	if n == nil {
		return
	}

	if err := n.Notify(ctx, to, subject, body); err != nil {
		zap.L().Error("Failed to send notification", zap.String("to", to), zap.String("subject", subject), zap.Error(err))
	}
}
