package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools exposes every handler method as an MCP tool.
func registerTools(server *sdkmcp.Server, h *Handler) {
	// Claims
	addTool[RegisterClaimParams](server, h, "register_claim",
		"Claim an asset for the caller. A second distinct claimant marks the asset as conflicted.")
	addTool[UnregisterClaimParams](server, h, "unregister_claim",
		"Withdraw a claim on an asset. Withdrawing another user's claim requires the admin role.")
	addTool[GetAssetParams](server, h, "get_asset",
		"Get an asset with its claimants and conflict flag")
	addTool[ListAssetsParams](server, h, "list_assets",
		"List assets, optionally only those claimed by one user")
	addTool[ListConflictsParams](server, h, "list_conflicts",
		"List assets currently recorded as conflicted")

	// Reconciliation
	addTool[ReconcileConflictsParams](server, h, "reconcile_conflicts",
		"Rebuild the conflict records from the asset records (admin only)")

	// Messages and quota
	addTool[SendMessageParams](server, h, "send_message",
		"Send a message about an asset. Fails with QUOTA_EXCEEDED once the caller reaches the message cap.")
	addTool[ListMessagesParams](server, h, "list_messages",
		"List messages, newest first")
	addTool[GetQuotaParams](server, h, "get_quota",
		"Get the global per-user message cap")
	addTool[UpdateQuotaParams](server, h, "update_quota",
		"Set the global per-user message cap (admin only)")
	addTool[GetUsageParams](server, h, "get_usage",
		"Get how many messages a user has sent and how many remain")

	// Accounts and activity
	addTool[GetAccountParams](server, h, "get_account",
		"Get an account with its assets, message count and admin flag")
	addTool[GetRecentActivityParams](server, h, "get_recent_activity",
		"Get recent claim, conflict, message and quota activity")
}

func addTool[In any](server *sdkmcp.Server, h *Handler, name, description string) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{Name: name, Description: description},
		func(ctx context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, any, error) {
			params, err := json.Marshal(in)
			if err != nil {
				return nil, nil, fmt.Errorf("encoding %s arguments: %w", name, err)
			}
			result, err := h.Handle(ctx, getUserID(ctx), name, params)
			if err != nil {
				return toolError(err), nil, nil
			}
			return toolResult(result)
		})
}

func toolResult(result any) (*sdkmcp.CallToolResult, any, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return nil, nil, fmt.Errorf("encoding result: %w", err)
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func toolError(err error) *sdkmcp.CallToolResult {
	apiErr := MapError(err)
	data, marshalErr := json.Marshal(apiErr)
	if marshalErr != nil {
		data = []byte(apiErr.Error())
	}
	return &sdkmcp.CallToolResult{
		IsError: true,
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
	}
}
