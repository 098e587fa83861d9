package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `assetguard tracks which users claim which shared assets, flags assets claimed by more than one user, and caps how many messages each user may send.

Core concepts:
- Asset: a shared resource identified by a string id. Claimants are kept in arrival order.
- Conflict: an asset with more than one claimant. A conflict record mirrors every such asset.
- Quota: one global cap on messages per user. Absent configuration means 10.

Typical workflow:
1) register_claim(asset_id). Outcome is registered, registered_with_conflict or already_registered_by_caller.
2) list_conflicts to see contested assets; unregister_claim to withdraw your own claim.
3) send_message(asset_id, content) until QUOTA_EXCEEDED; get_usage shows what remains.

Admin only: reconcile_conflicts, update_quota, acting on other users' claims or accounts.

Errors carry a code. CONTENTION and STORE_UNAVAILABLE are safe to retry.

Docs:
- assetguard://docs/concepts
- assetguard://docs/errors
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "assetguard://docs/concepts",
		Name:        "docs_concepts",
		Title:       "assetguard concepts",
		Description: "Assets, conflicts, reconciliation and the message quota.",
		Content: `# assetguard: Concepts

## Assets and claims

- An asset id is trimmed of surrounding whitespace; an empty id is rejected.
- The first claim creates the asset. Each further distinct claimant is appended.
- Claiming an asset you already claim changes nothing and reports ` + "`already_registered_by_caller`" + `.
- Concurrent claims on one asset never lose a claimant; a writer that loses the race retries.

## Conflicts

- An asset is conflicted exactly when it has more than one claimant.
- A conflict record holds a snapshot of the claimants and the time it was written.
- Claims and withdrawals keep the record current. reconcile_conflicts rebuilds every record
  from the assets and removes records whose asset is gone or no longer contested.

## Message quota

- Every user has a running count of admitted messages.
- A message is admitted only while the count is below the global cap; the check and the
  increment are a single atomic step, so concurrent sends cannot overshoot.
- The cap defaults to 10 until an administrator sets it. It must be positive.
`,
	},
	{
		URI:         "assetguard://docs/errors",
		Name:        "docs_errors",
		Title:       "assetguard error codes",
		Description: "Error codes, what they mean and whether to retry.",
		Content: `# assetguard: Error codes

| Code | Meaning | Retry |
|---|---|---|
| INVALID_INPUT | empty id or content, non-positive quota, malformed arguments | no |
| QUOTA_EXCEEDED | the caller has used the whole message cap | no |
| NOT_FOUND | the asset or account does not exist | no |
| FORBIDDEN | the call needs the admin role | no |
| UNAUTHORIZED | missing or unknown API key | no |
| CONTENTION | the asset kept changing under the call | yes |
| STORE_UNAVAILABLE | the store could not serve the request | yes, with backoff |
| INTERNAL | unexpected failure | maybe |

A failure part-way through a claim reports ` + "`details.step`" + ` and ` + "`details.completed`" + `.
Every step is idempotent: repeating the call finishes the work.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
