package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/repository"
)

// UserRepository implements user.Repository and user.KeyRepository for SQLite
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new account. It fails with repository.ErrConflict if the
// account already exists.
func (r *UserRepository) Create(ctx context.Context, acct *user.Account) error {
	query := `
		INSERT INTO users (user_id, email, is_admin, messages_sent, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		acct.ID,
		acct.Email,
		acct.IsAdmin,
		acct.MessagesSent,
		acct.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return wrapErr("create user", err)
	}
	return nil
}

// Get retrieves an account with its assets in registration order
func (r *UserRepository) Get(ctx context.Context, id string) (*user.Account, error) {
	query := `
		SELECT user_id, email, is_admin, messages_sent, created_at
		FROM users
		WHERE user_id = ?
	`

	var acct user.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&acct.ID,
		&acct.Email,
		&acct.IsAdmin,
		&acct.MessagesSent,
		&acct.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get user", err)
	}

	assets, err := r.assets(ctx, id)
	if err != nil {
		return nil, err
	}
	acct.Assets = assets
	return &acct, nil
}

func (r *UserRepository) assets(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT asset_id FROM user_assets WHERE user_id = ? ORDER BY added_at, rowid`, userID)
	if err != nil {
		return nil, wrapErr("list user assets", err)
	}
	defer rows.Close()

	assets := []string{}
	for rows.Next() {
		var assetID string
		if err := rows.Scan(&assetID); err != nil {
			return nil, fmt.Errorf("failed to scan user asset: %w", err)
		}
		assets = append(assets, assetID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user asset rows: %w", err)
	}
	return assets, nil
}

// SetAdmin sets the admin flag on an account
func (r *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	result, err := r.db.ExecContext(ctx, `UPDATE users SET is_admin = ? WHERE user_id = ?`, isAdmin, id)
	if err != nil {
		return wrapErr("set admin", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return wrapErr("get rows affected", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AddAsset links an asset to an account and reports whether the link is new
func (r *UserRepository) AddAsset(ctx context.Context, userID, assetID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO user_assets (user_id, asset_id) VALUES (?, ?)`, userID, assetID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return false, repository.ErrNotFound
		}
		return false, wrapErr("add user asset", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr("get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// RemoveAsset unlinks an asset from an account and reports whether a link existed
func (r *UserRepository) RemoveAsset(ctx context.Context, userID, assetID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM user_assets WHERE user_id = ? AND asset_id = ?`, userID, assetID)
	if err != nil {
		return false, wrapErr("remove user asset", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, wrapErr("get rows affected", err)
	}
	return rowsAffected > 0, nil
}

// CreateKey stores a hashed API key
func (r *UserRepository) CreateKey(ctx context.Context, key *user.APIKey) error {
	query := `
		INSERT INTO api_keys (key_hash, id, user_id, label, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, key.KeyHash, key.ID, key.UserID, key.Label, key.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		if isForeignKeyViolation(err) {
			return repository.ErrNotFound
		}
		return wrapErr("create api key", err)
	}
	return nil
}

// GetKeyByHash looks up an API key by its hash and records the use
func (r *UserRepository) GetKeyByHash(ctx context.Context, keyHash string) (*user.APIKey, error) {
	query := `
		SELECT key_hash, id, user_id, label, created_at
		FROM api_keys
		WHERE key_hash = ?
	`

	var key user.APIKey
	err := r.db.QueryRowContext(ctx, query, keyHash).Scan(
		&key.KeyHash,
		&key.ID,
		&key.UserID,
		&key.Label,
		&key.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get api key", err)
	}

	if _, err := r.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used = CURRENT_TIMESTAMP WHERE key_hash = ?`, keyHash); err != nil {
		return nil, wrapErr("touch api key", err)
	}
	return &key, nil
}
