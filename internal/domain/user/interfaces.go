package user

import "context"

// Repository provides persistence for accounts.
type Repository interface {
	Create(ctx context.Context, acct *Account) error
	Get(ctx context.Context, id string) (*Account, error)
	SetAdmin(ctx context.Context, id string, isAdmin bool) error
	AddAsset(ctx context.Context, userID, assetID string) (bool, error)
	RemoveAsset(ctx context.Context, userID, assetID string) (bool, error)
}
