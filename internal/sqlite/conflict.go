package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/repository"
)

// ConflictRepository implements asset.ConflictRepository for SQLite
type ConflictRepository struct {
	db *DB
}

// NewConflictRepository creates a new ConflictRepository
func NewConflictRepository(db *DB) *ConflictRepository {
	return &ConflictRepository{db: db}
}

// Upsert writes the conflict record, overwriting any existing one
func (r *ConflictRepository) Upsert(ctx context.Context, c *asset.Conflict) error {
	userIDs, err := encodeIDs(c.UserIDs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO conflicts (asset_id, user_ids, detected_at)
		VALUES (?, ?, ?)
		ON CONFLICT(asset_id) DO UPDATE SET
			user_ids = excluded.user_ids,
			detected_at = excluded.detected_at
	`
	if _, err := r.db.ExecContext(ctx, query, c.AssetID, userIDs, c.DetectedAt); err != nil {
		return wrapErr("upsert conflict", err)
	}
	return nil
}

// Get retrieves the conflict record for an asset
func (r *ConflictRepository) Get(ctx context.Context, assetID string) (*asset.Conflict, error) {
	query := `SELECT asset_id, user_ids, detected_at FROM conflicts WHERE asset_id = ?`

	c, err := scanConflict(r.db.QueryRowContext(ctx, query, assetID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get conflict", err)
	}
	return c, nil
}

// Delete removes the conflict record for an asset and reports whether one
// existed. Deleting an absent record is not an error.
func (r *ConflictRepository) Delete(ctx context.Context, assetID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM conflicts WHERE asset_id = ?`, assetID)
	if err != nil {
		return false, wrapErr("delete conflict", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr("get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// List returns every conflict record ordered by asset ID
func (r *ConflictRepository) List(ctx context.Context) ([]asset.Conflict, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT asset_id, user_ids, detected_at FROM conflicts ORDER BY asset_id`)
	if err != nil {
		return nil, wrapErr("list conflicts", err)
	}
	defer rows.Close()

	conflicts := []asset.Conflict{}
	for rows.Next() {
		c, err := scanConflict(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conflict: %w", err)
		}
		conflicts = append(conflicts, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating conflict rows: %w", err)
	}
	return conflicts, nil
}

func scanConflict(row rowScanner) (*asset.Conflict, error) {
	var c asset.Conflict
	var userIDs string
	if err := row.Scan(&c.AssetID, &userIDs, &c.DetectedAt); err != nil {
		return nil, err
	}
	ids, err := decodeIDs(userIDs)
	if err != nil {
		return nil, err
	}
	c.UserIDs = ids
	return &c, nil
}
