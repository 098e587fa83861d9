package conflict

import (
	"context"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
)

// AssetLister reads the authoritative asset set.
type AssetLister interface {
	List(ctx context.Context) ([]asset.Asset, error)
}

// ConflictStore is the conflict record set being repaired.
type ConflictStore interface {
	Upsert(ctx context.Context, c *asset.Conflict) error
	Delete(ctx context.Context, assetID string) (bool, error)
	List(ctx context.Context) ([]asset.Conflict, error)
}

// AdminChecker guards reconciliation.
type AdminChecker interface {
	RequireAdmin(ctx context.Context, actor string) error
}

// ActivityRepository logs reconciliation runs.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
