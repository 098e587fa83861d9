package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/repository"
)

const globalConfigKey = "global"

// ConfigRepository implements message.ConfigRepository for SQLite
type ConfigRepository struct {
	db *DB
}

// NewConfigRepository creates a new ConfigRepository
func NewConfigRepository(db *DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetGlobal reads the global config record. A missing record yields
// repository.ErrNotFound.
func (r *ConfigRepository) GetGlobal(ctx context.Context) (*message.GlobalConfig, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, globalConfigKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr("get global config", err)
	}

	var cfg message.GlobalConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode global config: %w", err)
	}
	return &cfg, nil
}

// PutGlobal overwrites the global config record
func (r *ConfigRepository) PutGlobal(ctx context.Context, cfg message.GlobalConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode global config: %w", err)
	}

	query := `
		INSERT INTO config (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, globalConfigKey, string(data)); err != nil {
		return wrapErr("put global config", err)
	}
	return nil
}
