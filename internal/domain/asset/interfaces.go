package asset

import (
	"context"

	"github.com/rpggio/assetguard/internal/domain/activity"
)

// AssetRepository provides persistence for assets. Update is a
// compare-and-swap on Version.
type AssetRepository interface {
	Create(ctx context.Context, a *Asset) error
	Get(ctx context.Context, id string) (*Asset, error)
	Update(ctx context.Context, a *Asset, expectedVersion int64) error
	List(ctx context.Context) ([]Asset, error)
	ListByClaimant(ctx context.Context, userID string) ([]Asset, error)
}

// ConflictRepository provides persistence for conflict records.
type ConflictRepository interface {
	Upsert(ctx context.Context, c *Conflict) error
	Get(ctx context.Context, assetID string) (*Conflict, error)
	Delete(ctx context.Context, assetID string) (bool, error)
	List(ctx context.Context) ([]Conflict, error)
}

// AccountService maintains the user side of a claim.
type AccountService interface {
	LinkAsset(ctx context.Context, userID, assetID string) error
	UnlinkAsset(ctx context.Context, userID, assetID string) error
	RequireAdmin(ctx context.Context, actor string) error
}

// ActivityRepository logs claim activity.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
