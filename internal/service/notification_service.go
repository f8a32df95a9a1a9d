package service

import (
	"context"
	"errors"

	"account-transfer-service/internal/core/domain"
	"account-transfer-service/internal/core/ports"

	"github.com/rs/zerolog"
)

// LogNotifier writes notifications to the log. It stands in for an email
// gateway.
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

// Notify logs the message for the account. It never fails.
func (n *LogNotifier) Notify(_ context.Context, account *domain.Account, message string) error {
	n.log.Info().
		Str("account_id", account.ID()).
		Str("notification", message).
		Msg("sending notification")
	return nil
}

// MultiNotifier fans a notification out to several notifiers.
type MultiNotifier struct {
	notifiers []ports.Notifier
}

// NewMultiNotifier creates a MultiNotifier. Nil entries are skipped.
func NewMultiNotifier(notifiers ...ports.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, n := range notifiers {
		if n != nil {
			m.notifiers = append(m.notifiers, n)
		}
	}
	return m
}

// Len reports how many notifiers are attached.
func (m *MultiNotifier) Len() int {
	return len(m.notifiers)
}

// Notify calls every notifier, even after one fails, and joins the errors.
func (m *MultiNotifier) Notify(ctx context.Context, account *domain.Account, message string) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, account, message); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every child notifier that holds background work, such as a
// WebhookNotifier, and joins the errors.
func (m *MultiNotifier) Close(ctx context.Context) error {
	var errs []error
	for _, n := range m.notifiers {
		if c, ok := n.(interface{ Close(context.Context) error }); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
