package activity

import (
	"encoding/json"
	"time"
)

// ActivityType names a logged domain event.
type ActivityType string

const (
	TypeClaimRegistered  ActivityType = "claim_registered"
	TypeClaimWithdrawn   ActivityType = "claim_withdrawn"
	TypeConflictDetected ActivityType = "conflict_detected"
	TypeConflictResolved ActivityType = "conflict_resolved"
	TypeMessageSent      ActivityType = "message_sent"
	TypeQuotaExceeded    ActivityType = "quota_exceeded"
	TypeQuotaUpdated     ActivityType = "quota_updated"
	TypeReconciliation   ActivityType = "reconciliation"
)

// Valid reports whether t is one of the known activity types.
func (t ActivityType) Valid() bool {
	switch t {
	case TypeClaimRegistered, TypeClaimWithdrawn,
		TypeConflictDetected, TypeConflictResolved,
		TypeMessageSent, TypeQuotaExceeded, TypeQuotaUpdated,
		TypeReconciliation:
		return true
	}
	return false
}

// ActivityEntry is one row of the append-only activity log. UserID and
// AssetID are nil for events without a user or asset.
type ActivityEntry struct {
	ID           int64        `json:"id"`
	UserID       *string      `json:"user_id,omitempty"`
	AssetID      *string      `json:"asset_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON object
	CreatedAt    time.Time    `json:"created_at"`
}

// NewEntry builds an entry. Empty ids are left unset and attrs, when
// present, are stored as a JSON object in Details.
func NewEntry(t ActivityType, userID, assetID, summary string, attrs map[string]any, at time.Time) *ActivityEntry {
	entry := &ActivityEntry{
		ActivityType: t,
		Summary:      summary,
		CreatedAt:    at,
	}
	if userID != "" {
		entry.UserID = &userID
	}
	if assetID != "" {
		entry.AssetID = &assetID
	}
	if len(attrs) > 0 {
		if data, err := json.Marshal(attrs); err == nil {
			entry.Details = string(data)
		}
	}
	return entry
}
