package user

import (
	"strings"
	"time"
)

// SystemActor is the operator identity used by the CLI and scheduled jobs.
// It is always treated as an administrator and never stored.
const SystemActor = "system"

// NormalizeID trims raw and rejects blank ids and the reserved SystemActor.
func NormalizeID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" || id == SystemActor {
		return "", ErrInvalidInput
	}
	return id, nil
}

// Account represents a user that claims assets and sends messages
type Account struct {
	ID           string    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	IsAdmin      bool      `json:"is_admin"`
	MessagesSent int64     `json:"messages_sent"`
	Assets       []string  `json:"assets"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasAsset reports whether the account lists assetID.
func (a *Account) HasAsset(assetID string) bool {
	for _, id := range a.Assets {
		if id == assetID {
			return true
		}
	}
	return false
}
