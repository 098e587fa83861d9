package message

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/rpggio/assetguard/internal/repository"
)

// Gate admits messages against the global per-user quota.
type Gate struct {
	messages   MessageRepository
	config     ConfigRepository
	accounts   AccountService
	activities ActivityRepository
	publisher  events.Publisher
	logger     *slog.Logger
	defaultMax int
	now        func() time.Time
}

// NewGate creates a new message quota gate. defaultMax applies while no
// global config record exists; values <= 0 fall back to DefaultMaxMessages.
func NewGate(
	messages MessageRepository,
	config ConfigRepository,
	accounts AccountService,
	activities ActivityRepository,
	publisher events.Publisher,
	logger *slog.Logger,
	defaultMax int,
) *Gate {
	if defaultMax <= 0 {
		defaultMax = DefaultMaxMessages
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Gate{
		messages:   messages,
		config:     config,
		accounts:   accounts,
		activities: activities,
		publisher:  publisher,
		logger:     logger,
		defaultMax: defaultMax,
		now:        time.Now,
	}
}

// AttemptSend stores a message from userID about assetID if the sender is
// under quota, and increments the sender's counter by exactly one.
//
// The counter check and increment happen atomically with the message insert,
// so concurrent sends from one user can never exceed the quota.
func (g *Gate) AttemptSend(ctx context.Context, userID, assetID, content string) (*SendResult, error) {
	userID = strings.TrimSpace(userID)
	assetID = strings.TrimSpace(assetID)
	content = strings.TrimSpace(content)
	if userID == "" || assetID == "" || content == "" {
		return nil, ErrInvalidInput
	}

	acct, err := g.accounts.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading sender: %w", err)
	}

	cfg, err := g.Quota(ctx)
	if err != nil {
		return nil, err
	}

	if acct.MessagesSent >= int64(cfg.MaxMessages) {
		g.rejected(ctx, userID, assetID, acct.MessagesSent, cfg.MaxMessages)
		return nil, ErrQuotaExceeded
	}

	msg := &Message{
		ID:        uuid.NewString(),
		SenderID:  userID,
		AssetID:   assetID,
		Content:   content,
		CreatedAt: g.now().UTC(),
	}
	sent, err := g.messages.Admit(ctx, msg, cfg.MaxMessages)
	if err != nil {
		if errors.Is(err, repository.ErrLimitReached) {
			g.rejected(ctx, userID, assetID, int64(cfg.MaxMessages), cfg.MaxMessages)
			return nil, ErrQuotaExceeded
		}
		return nil, fmt.Errorf("admitting message: %w", err)
	}

	g.emit(ctx, activity.TypeMessageSent, events.Event{
		Type:       events.TypeMessageSent,
		AssetID:    assetID,
		UserID:     userID,
		Attributes: map[string]any{"message_id": msg.ID, "messages_sent": sent},
	}, fmt.Sprintf("%s sent message %d/%d about %s", userID, sent, cfg.MaxMessages, assetID))

	return &SendResult{
		Message:      *msg,
		MessagesSent: sent,
		MaxMessages:  cfg.MaxMessages,
	}, nil
}

// Quota returns the global config, falling back to the default when the
// record is absent or holds a non-positive value.
func (g *Gate) Quota(ctx context.Context) (GlobalConfig, error) {
	cfg, err := g.config.GetGlobal(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return GlobalConfig{MaxMessages: g.defaultMax}, nil
	}
	if err != nil {
		return GlobalConfig{}, fmt.Errorf("loading quota: %w", err)
	}
	if cfg.MaxMessages <= 0 {
		return GlobalConfig{MaxMessages: g.defaultMax}, nil
	}
	return *cfg, nil
}

// UpdateQuota overwrites the global message cap. Only admins may call it.
func (g *Gate) UpdateQuota(ctx context.Context, actor string, newMax int) error {
	if newMax <= 0 {
		return ErrInvalidInput
	}
	if err := g.accounts.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	if err := g.config.PutGlobal(ctx, GlobalConfig{MaxMessages: newMax}); err != nil {
		return fmt.Errorf("storing quota: %w", err)
	}
	g.logger.Info("message quota updated", "max_messages", newMax, "actor", actor)
	g.emit(ctx, activity.TypeQuotaUpdated, events.Event{
		Type:       events.TypeQuotaUpdated,
		UserID:     actor,
		Attributes: map[string]any{"max_messages": newMax},
	}, fmt.Sprintf("%s set max messages to %d", actor, newMax))
	return nil
}

// Usage reports how much of the quota userID has consumed.
func (g *Gate) Usage(ctx context.Context, userID string) (*Usage, error) {
	acct, err := g.accounts.Ensure(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	cfg, err := g.Quota(ctx)
	if err != nil {
		return nil, err
	}
	remaining := int64(cfg.MaxMessages) - acct.MessagesSent
	if remaining < 0 {
		remaining = 0
	}
	return &Usage{
		UserID:       acct.ID,
		MessagesSent: acct.MessagesSent,
		MaxMessages:  cfg.MaxMessages,
		Remaining:    remaining,
	}, nil
}

// List returns messages newest first.
func (g *Gate) List(ctx context.Context, opts ListOptions) ([]Message, error) {
	return g.messages.List(ctx, opts)
}

func (g *Gate) rejected(ctx context.Context, userID, assetID string, sent int64, limit int) {
	g.logger.Info("message rejected by quota", "user_id", userID, "asset_id", assetID, "messages_sent", sent, "max_messages", limit)
	g.emit(ctx, activity.TypeQuotaExceeded, events.Event{
		Type:       events.TypeQuotaExceeded,
		AssetID:    assetID,
		UserID:     userID,
		Attributes: map[string]any{"messages_sent": sent, "max_messages": limit},
	}, fmt.Sprintf("%s reached the message limit (%d)", userID, limit))
}

func (g *Gate) emit(ctx context.Context, at activity.ActivityType, event events.Event, summary string) {
	if g.activities != nil {
		entry := activity.NewEntry(at, event.UserID, event.AssetID, summary, event.Attributes, g.now())
		if err := g.activities.Log(ctx, entry); err != nil {
			g.logger.Warn("failed to log activity", "type", at, "error", err)
		}
	}
	event.OccurredAt = g.now()
	if err := g.publisher.Publish(ctx, event); err != nil {
		g.logger.Warn("failed to publish event", "type", event.Type, "error", err)
	}
}
