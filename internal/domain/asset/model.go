package asset

import "time"

// Asset is a shared resource that users claim. UserIDs keeps claimants in
// arrival order and never holds duplicates.
type Asset struct {
	ID         string    `json:"asset_id"`
	UserIDs    []string  `json:"user_ids"`
	Conflict   bool      `json:"conflict"`
	Version    int64     `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

// HasClaimant reports whether userID has claimed the asset.
func (a *Asset) HasClaimant(userID string) bool {
	for _, id := range a.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsConflicted reports whether more than one user claims the asset. It is
// derived from UserIDs and ignores the stored flag.
func (a *Asset) IsConflicted() bool {
	return len(a.UserIDs) > 1
}

// Conflict mirrors an asset claimed by more than one user.
type Conflict struct {
	AssetID    string    `json:"asset_id"`
	UserIDs    []string  `json:"user_ids"`
	DetectedAt time.Time `json:"detected_at"`
}

// Outcome describes what a claim operation did.
type Outcome string

const (
	OutcomeRegistered             Outcome = "registered"
	OutcomeRegisteredWithConflict Outcome = "registered_with_conflict"
	OutcomeAlreadyRegistered      Outcome = "already_registered_by_caller"
	OutcomeWithdrawn              Outcome = "withdrawn"
	OutcomeNotClaimed             Outcome = "not_claimed"
)

// RegistrationResult is returned by RegisterClaim.
type RegistrationResult struct {
	Outcome  Outcome   `json:"outcome"`
	Asset    Asset     `json:"asset"`
	Conflict *Conflict `json:"conflict,omitempty"`
}

// WithdrawalResult is returned by UnregisterClaim.
type WithdrawalResult struct {
	Outcome          Outcome `json:"outcome"`
	Asset            Asset   `json:"asset"`
	ConflictResolved bool    `json:"conflict_resolved"`
}

func cloneIDs(ids []string) []string {
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
