package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/repository"
)

// MessageRepository implements message.MessageRepository for SQLite
type MessageRepository struct {
	db *DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Admit increments the sender's counter and stores msg in one transaction.
// The increment is conditional on the counter being below maxMessages, so the
// quota holds under concurrent sends. Returns the new counter value.
func (r *MessageRepository) Admit(ctx context.Context, msg *message.Message, maxMessages int) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, wrapErr("begin transaction", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE users
		SET messages_sent = messages_sent + 1
		WHERE user_id = ? AND messages_sent < ?
	`, msg.SenderID, maxMessages)
	if err != nil {
		return 0, wrapErr("increment messages sent", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, wrapErr("get rows affected", err)
	}
	if rowsAffected == 0 {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE user_id = ?`, msg.SenderID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, repository.ErrNotFound
		}
		if err != nil {
			return 0, wrapErr("check sender", err)
		}
		return 0, repository.ErrLimitReached
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO messages (id, sender_id, asset_id, content, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, msg.SenderID, msg.AssetID, msg.Content, msg.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, repository.ErrConflict
		}
		return 0, wrapErr("insert message", err)
	}

	var sent int64
	err = tx.QueryRowContext(ctx, `SELECT messages_sent FROM users WHERE user_id = ?`, msg.SenderID).Scan(&sent)
	if err != nil {
		return 0, wrapErr("read messages sent", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, wrapErr("commit transaction", err)
	}
	return sent, nil
}

// List returns messages matching the filters, newest first
func (r *MessageRepository) List(ctx context.Context, opts message.ListOptions) ([]message.Message, error) {
	q := newListQuery(`
		SELECT id, sender_id, asset_id, content, created_at
		FROM messages
	`)
	if opts.SenderID != "" {
		q.where("sender_id", opts.SenderID)
	}
	if opts.AssetID != "" {
		q.where("asset_id", opts.AssetID)
	}
	query, args := q.build("created_at DESC, rowid DESC", opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr("list messages", err)
	}
	defer rows.Close()

	messages := []message.Message{}
	for rows.Next() {
		var m message.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.AssetID, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating message rows: %w", err)
	}
	return messages, nil
}
