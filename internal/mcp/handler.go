package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/conflict"
	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/domain/user"
)

// RegistryService defines asset claim operations needed by MCP.
type RegistryService interface {
	RegisterClaim(ctx context.Context, assetID, userID string) (*asset.RegistrationResult, error)
	UnregisterClaim(ctx context.Context, actor, assetID, targetUserID string) (*asset.WithdrawalResult, error)
	Get(ctx context.Context, assetID string) (*asset.Asset, error)
	List(ctx context.Context) ([]asset.Asset, error)
	ListForUser(ctx context.Context, userID string) ([]asset.Asset, error)
	ListConflicts(ctx context.Context) ([]asset.Conflict, error)
}

// SynchronizerService defines conflict reconciliation needed by MCP.
type SynchronizerService interface {
	ReconcileAll(ctx context.Context, actor string) (*conflict.Report, error)
}

// GateService defines message and quota operations needed by MCP.
type GateService interface {
	AttemptSend(ctx context.Context, userID, assetID, content string) (*message.SendResult, error)
	UpdateQuota(ctx context.Context, actor string, newMax int) error
	Quota(ctx context.Context) (message.GlobalConfig, error)
	Usage(ctx context.Context, userID string) (*message.Usage, error)
	List(ctx context.Context, opts message.ListOptions) ([]message.Message, error)
}

// AccountService defines account operations needed by MCP.
type AccountService interface {
	Ensure(ctx context.Context, userID string) (*user.Account, error)
	Get(ctx context.Context, userID string) (*user.Account, error)
	RequireAdmin(ctx context.Context, actor string) error
}

// ActivityService defines activity operations needed by MCP.
type ActivityService interface {
	GetRecentActivity(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Registry     RegistryService
	Synchronizer SynchronizerService
	Gate         GateService
	Accounts     AccountService
	Activity     ActivityService
}

// Handler dispatches MCP commands.
type Handler struct {
	registry RegistryService
	sync     SynchronizerService
	gate     GateService
	accounts AccountService
	activity ActivityService
}

// NewHandler creates a new MCP handler.
func NewHandler(svcs Services) *Handler {
	return &Handler{
		registry: svcs.Registry,
		sync:     svcs.Synchronizer,
		gate:     svcs.Gate,
		accounts: svcs.Accounts,
		activity: svcs.Activity,
	}
}

// Handle dispatches a method call made by userID to the domain services.
// Errors are returned as *APIError.
func (h *Handler) Handle(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	if userID == "" {
		return nil, MapError(ErrUnauthorized)
	}
	result, err := h.dispatch(ctx, userID, method, params)
	if err != nil {
		return nil, MapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, userID, method string, params json.RawMessage) (any, error) {
	switch method {
	case "register_claim":
		var req RegisterClaimParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.registry.RegisterClaim(ctx, req.AssetID, userID)
	case "unregister_claim":
		var req UnregisterClaimParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.registry.UnregisterClaim(ctx, userID, req.AssetID, req.UserID)
	case "send_message":
		var req SendMessageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.gate.AttemptSend(ctx, userID, req.AssetID, req.Content)
	case "reconcile_conflicts":
		return h.sync.ReconcileAll(ctx, userID)
	case "update_quota":
		var req UpdateQuotaParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		if err := h.gate.UpdateQuota(ctx, userID, req.MaxMessages); err != nil {
			return nil, err
		}
		return QuotaResponse{MaxMessages: req.MaxMessages}, nil
	case "get_quota":
		cfg, err := h.gate.Quota(ctx)
		if err != nil {
			return nil, err
		}
		return QuotaResponse{MaxMessages: cfg.MaxMessages}, nil
	case "get_usage":
		var req GetUsageParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		target, err := h.targetUser(ctx, userID, req.UserID)
		if err != nil {
			return nil, err
		}
		return h.gate.Usage(ctx, target)
	case "get_asset":
		var req GetAssetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.registry.Get(ctx, req.AssetID)
	case "list_assets":
		var req ListAssetsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		var assets []asset.Asset
		var err error
		if req.UserID != "" {
			assets, err = h.registry.ListForUser(ctx, req.UserID)
		} else {
			assets, err = h.registry.List(ctx)
		}
		if err != nil {
			return nil, err
		}
		return ListAssetsResponse{Assets: assets}, nil
	case "list_conflicts":
		conflicts, err := h.registry.ListConflicts(ctx)
		if err != nil {
			return nil, err
		}
		return ListConflictsResponse{Conflicts: conflicts}, nil
	case "list_messages":
		var req ListMessagesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		msgs, err := h.gate.List(ctx, message.ListOptions{
			SenderID: req.SenderID,
			AssetID:  req.AssetID,
			Limit:    req.Limit,
			Offset:   req.Offset,
		})
		if err != nil {
			return nil, err
		}
		return ListMessagesResponse{Messages: msgs}, nil
	case "get_account":
		var req GetAccountParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		target, err := h.targetUser(ctx, userID, req.UserID)
		if err != nil {
			return nil, err
		}
		if target != userID {
			return h.accounts.Get(ctx, target)
		}
		return h.accounts.Ensure(ctx, target)
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		entries, err := h.activity.GetRecentActivity(ctx, activity.ListActivityOptions{
			AssetID:      req.AssetID,
			UserID:       req.UserID,
			ActivityType: req.Type,
			Limit:        req.Limit,
		})
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				UserID:    entry.UserID,
				AssetID:   entry.AssetID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return RecentActivityResponse{Entries: resp}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

// targetUser resolves an optional user argument. Reading another user's
// data requires the admin role, and that user must already have an account;
// only the caller's own account is created on first use.
func (h *Handler) targetUser(ctx context.Context, caller, requested string) (string, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" || requested == caller {
		return caller, nil
	}
	if err := h.accounts.RequireAdmin(ctx, caller); err != nil {
		return "", err
	}
	if _, err := h.accounts.Get(ctx, requested); err != nil {
		return "", err
	}
	return requested, nil
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
