package domain

import "time"

// Notification is the message published to external notifiers after a
// committed transfer.
type Notification struct {
	AccountID string    `json:"account_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}
