package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/assetguard/internal/domain/activity"
)

// ActivityRepository implements activity.Repository for SQLite
type ActivityRepository struct {
	db *DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Log appends an entry and fills in its ID.
func (r *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_log (user_id, asset_id, activity_type, summary, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, nullable(entry.UserID), nullable(entry.AssetID), entry.ActivityType, entry.Summary, entry.Details, entry.CreatedAt)
	if err != nil {
		return wrapErr("log activity", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// List returns activity entries matching the given filters, newest first
func (r *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	q := newListQuery(`
		SELECT id, user_id, asset_id, activity_type, summary, details, created_at
		FROM activity_log
	`)
	if opts.UserID != nil {
		q.where("user_id", *opts.UserID)
	}
	if opts.AssetID != nil {
		q.where("asset_id", *opts.AssetID)
	}
	if opts.ActivityType != nil {
		q.where("activity_type", string(*opts.ActivityType))
	}
	query, args := q.build("created_at DESC, id DESC", opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list activity", err)
	}
	defer rows.Close()

	entries := []activity.ActivityEntry{}
	for rows.Next() {
		var entry activity.ActivityEntry
		var userID, assetID sql.NullString
		if err := rows.Scan(
			&entry.ID,
			&userID,
			&assetID,
			&entry.ActivityType,
			&entry.Summary,
			&entry.Details,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity entry: %w", err)
		}
		if userID.Valid {
			entry.UserID = &userID.String
		}
		if assetID.Valid {
			entry.AssetID = &assetID.String
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity rows: %w", err)
	}
	return entries, nil
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
