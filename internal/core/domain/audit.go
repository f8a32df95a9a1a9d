package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionCreateAccount AuditAction = "CREATE_ACCOUNT"
	AuditActionTransfer      AuditAction = "TRANSFER"
)

// AuditLog records a single audited write request.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Subject      *string     `json:"subject,omitempty"` // JWT subject when auth is enabled
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}
