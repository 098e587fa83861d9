package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/repository"
)

// AssetRepository implements asset.AssetRepository for SQLite
type AssetRepository struct {
	db *DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *DB) *AssetRepository {
	return &AssetRepository{db: db}
}

const assetColumns = `asset_id, user_ids, conflict, version, created_at, modified_at`

// Create inserts a new asset. It fails with repository.ErrConflict if the
// asset already exists.
func (r *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	userIDs, err := encodeIDs(a.UserIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO assets (asset_id, user_ids, conflict, version, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		a.ID,
		userIDs,
		a.Conflict,
		a.Version,
		a.CreatedAt,
		a.ModifiedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return wrapErr("create asset", err)
	}
	return nil
}

// Get retrieves an asset by ID
func (r *AssetRepository) Get(ctx context.Context, id string) (*asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE asset_id = ?`

	a, err := scanAsset(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get asset", err)
	}
	return a, nil
}

// Update writes a only if the stored version still equals expectedVersion.
// A stale version yields repository.ErrConflict.
func (r *AssetRepository) Update(ctx context.Context, a *asset.Asset, expectedVersion int64) error {
	userIDs, err := encodeIDs(a.UserIDs)
	if err != nil {
		return err
	}

	query := `
		UPDATE assets
		SET user_ids = ?, conflict = ?, version = ?, modified_at = ?
		WHERE asset_id = ? AND version = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		userIDs,
		a.Conflict,
		a.Version,
		a.ModifiedAt,
		a.ID,
		expectedVersion,
	)
	if err != nil {
		return wrapErr("update asset", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("get rows affected", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists int
	err = r.db.QueryRowContext(ctx, `SELECT 1 FROM assets WHERE asset_id = ?`, a.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return wrapErr("check asset", err)
	}
	return repository.ErrConflict
}

// List returns every asset ordered by ID
func (r *AssetRepository) List(ctx context.Context) ([]asset.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets ORDER BY asset_id`
	return r.query(ctx, "list assets", query)
}

// ListByClaimant returns the assets userID has claimed
func (r *AssetRepository) ListByClaimant(ctx context.Context, userID string) ([]asset.Asset, error) {
	query := `
		SELECT ` + assetColumns + `
		FROM assets
		WHERE EXISTS (SELECT 1 FROM json_each(assets.user_ids) WHERE json_each.value = ?)
		ORDER BY asset_id
	`
	return r.query(ctx, "list assets by claimant", query, userID)
}

func (r *AssetRepository) query(ctx context.Context, action, query string, args ...any) ([]asset.Asset, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(action, err)
	}
	defer rows.Close()

	assets := []asset.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}
		assets = append(assets, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating asset rows: %w", err)
	}
	return assets, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*asset.Asset, error) {
	var a asset.Asset
	var userIDs string
	if err := row.Scan(
		&a.ID,
		&userIDs,
		&a.Conflict,
		&a.Version,
		&a.CreatedAt,
		&a.ModifiedAt,
	); err != nil {
		return nil, err
	}
	ids, err := decodeIDs(userIDs)
	if err != nil {
		return nil, err
	}
	a.UserIDs = ids
	return &a, nil
}

func encodeIDs(ids []string) (string, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("failed to encode user ids: %w", err)
	}
	return string(data), nil
}

func decodeIDs(raw string) ([]string, error) {
	ids := []string{}
	if raw == "" {
		return ids, nil
	}
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("failed to decode user ids: %w", err)
	}
	return ids, nil
}
