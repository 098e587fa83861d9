// Package events carries domain events out of the process.
package events

import (
	"context"
	"time"
)

// Type names a domain event. It doubles as the subject suffix when
// publishing to NATS.
type Type string

const (
	TypeClaimRegistered  Type = "claim.registered"
	TypeClaimWithdrawn   Type = "claim.withdrawn"
	TypeConflictDetected Type = "conflict.detected"
	TypeConflictResolved Type = "conflict.resolved"
	TypeMessageSent      Type = "message.sent"
	TypeQuotaExceeded    Type = "quota.exceeded"
	TypeQuotaUpdated     Type = "quota.updated"
	TypeReconciled       Type = "conflicts.reconciled"
)

// Event is the envelope published for every domain event.
type Event struct {
	ID         string         `json:"id"`
	Type       Type           `json:"type"`
	AssetID    string         `json:"asset_id,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	UserIDs    []string       `json:"user_ids,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Publisher delivers events to subscribers outside the process.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }
