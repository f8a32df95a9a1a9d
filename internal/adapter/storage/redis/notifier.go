package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"account-transfer-service/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// Notifier implements ports.Notifier by publishing JSON notifications to a
// Redis pub/sub channel.
type Notifier struct {
	client  *goredis.Client
	channel string
}

// NewNotifier creates a notifier publishing to channel.
func NewNotifier(client *goredis.Client, channel string) *Notifier {
	return &Notifier{client: client, channel: channel}
}

// Notify publishes the message. Having no subscribers is not an error.
func (n *Notifier) Notify(ctx context.Context, account *domain.Account, message string) error {
	payload, err := json.Marshal(domain.Notification{
		AccountID: account.ID(),
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", n.channel, err)
	}
	return nil
}
