package mcp

import (
	"time"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/message"
)

type RegisterClaimParams struct {
	AssetID string `json:"asset_id" jsonschema:"identifier of the asset to claim"`
}

type UnregisterClaimParams struct {
	AssetID string `json:"asset_id" jsonschema:"identifier of the asset"`
	UserID  string `json:"user_id,omitempty" jsonschema:"claimant to withdraw; defaults to the caller, others require admin"`
}

type SendMessageParams struct {
	AssetID string `json:"asset_id" jsonschema:"asset the message is about"`
	Content string `json:"content" jsonschema:"message text"`
}

type ReconcileConflictsParams struct{}

type UpdateQuotaParams struct {
	MaxMessages int `json:"max_messages" jsonschema:"new per-user message cap, must be positive"`
}

type GetQuotaParams struct{}

type GetUsageParams struct {
	UserID string `json:"user_id,omitempty" jsonschema:"user to report on; defaults to the caller, others require admin"`
}

type GetAssetParams struct {
	AssetID string `json:"asset_id" jsonschema:"identifier of the asset"`
}

type ListAssetsParams struct {
	UserID string `json:"user_id,omitempty" jsonschema:"only assets claimed by this user"`
}

type ListConflictsParams struct{}

type ListMessagesParams struct {
	SenderID string `json:"sender_id,omitempty" jsonschema:"only messages from this user"`
	AssetID  string `json:"asset_id,omitempty" jsonschema:"only messages about this asset"`
	Limit    int    `json:"limit,omitempty" jsonschema:"maximum number of messages"`
	Offset   int    `json:"offset,omitempty"`
}

type GetAccountParams struct {
	UserID string `json:"user_id,omitempty" jsonschema:"account to read; defaults to the caller, others require admin"`
}

type GetRecentActivityParams struct {
	AssetID *string                `json:"asset_id,omitempty" jsonschema:"asset to filter by"`
	UserID  *string                `json:"user_id,omitempty" jsonschema:"user to filter by"`
	Type    *activity.ActivityType `json:"type,omitempty" jsonschema:"activity type to filter by"`
	Limit   int                    `json:"limit,omitempty" jsonschema:"maximum number of entries"`
}

type ListAssetsResponse struct {
	Assets []asset.Asset `json:"assets"`
}

type ListConflictsResponse struct {
	Conflicts []asset.Conflict `json:"conflicts"`
}

type ListMessagesResponse struct {
	Messages []message.Message `json:"messages"`
}

type QuotaResponse struct {
	MaxMessages int `json:"max_messages"`
}

type ActivityEntryResponse struct {
	Timestamp time.Time             `json:"timestamp"`
	Type      activity.ActivityType `json:"type"`
	UserID    *string               `json:"user_id,omitempty"`
	AssetID   *string               `json:"asset_id,omitempty"`
	Summary   string                `json:"summary"`
	Details   string                `json:"details,omitempty"`
}

type RecentActivityResponse struct {
	Entries []ActivityEntryResponse `json:"entries"`
}
