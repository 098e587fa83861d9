package integration_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rpggio/assetguard/internal/app"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestEnv(t *testing.T, opts app.Options) *app.Stack {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { _ = db.Close() })
	return app.New(db, opts)
}

func TestIntegration_ConflictScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	res, err := env.Registry.RegisterClaim(ctx, "A", "u1")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeRegistered, res.Outcome)

	res, err = env.Registry.RegisterClaim(ctx, "A", "u2")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeRegisteredWithConflict, res.Outcome)

	got, err := env.Registry.Get(ctx, "A")
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2"}, got.UserIDs)
	require.True(t, got.Conflict)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, []string{"u1", "u2"}, conflicts[0].UserIDs)

	// A third claimant refreshes the conflict snapshot.
	_, err = env.Registry.RegisterClaim(ctx, "A", "u3")
	require.NoError(t, err)
	conflicts, err = env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"u1", "u2", "u3"}, conflicts[0].UserIDs)

	acct, err := env.Accounts.Get(ctx, "u2")
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, acct.Assets)
	require.False(t, acct.IsAdmin)
	require.Zero(t, acct.MessagesSent)
}

func TestIntegration_IdempotentClaim(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	_, err := env.Registry.RegisterClaim(ctx, "B", "u1")
	require.NoError(t, err)
	before, err := env.Registry.Get(ctx, "B")
	require.NoError(t, err)

	res, err := env.Registry.RegisterClaim(ctx, " B ", "u1")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeAlreadyRegistered, res.Outcome)

	after, err := env.Registry.Get(ctx, "B")
	require.NoError(t, err)
	require.Equal(t, before.Version, after.Version)
	require.Equal(t, []string{"u1"}, after.UserIDs)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}

func TestIntegration_ConcurrentClaimsKeepEveryClaimant(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{MaxAttempts: 100})

	const claimants = 6
	var wg sync.WaitGroup
	errs := make(chan error, claimants)
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.Registry.RegisterClaim(ctx, "shared", fmt.Sprintf("u%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	got, err := env.Registry.Get(ctx, "shared")
	require.NoError(t, err)
	require.Len(t, got.UserIDs, claimants)
	require.True(t, got.Conflict)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Len(t, conflicts[0].UserIDs, claimants)
}

func TestIntegration_QuotaScenario(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})
	require.NoError(t, env.Accounts.SetAdmin(ctx, user.SystemActor, "admin", true))
	require.NoError(t, env.Gate.UpdateQuota(ctx, "admin", 2))

	for i := 0; i < 2; i++ {
		_, err := env.Gate.AttemptSend(ctx, "u1", "A", "hello")
		require.NoError(t, err)
	}
	_, err := env.Gate.AttemptSend(ctx, "u1", "A", "hello")
	require.ErrorIs(t, err, message.ErrQuotaExceeded)

	usage, err := env.Gate.Usage(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(2), usage.MessagesSent)

	msgs, err := env.Gate.List(ctx, message.ListOptions{SenderID: "u1"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.ErrorIs(t, env.Gate.UpdateQuota(ctx, "u1", 50), user.ErrForbidden)
	require.ErrorIs(t, env.Gate.UpdateQuota(ctx, "admin", 0), message.ErrInvalidInput)

	// Raising the cap admits the sender again.
	require.NoError(t, env.Gate.UpdateQuota(ctx, "admin", 3))
	sent, err := env.Gate.AttemptSend(ctx, "u1", "A", "again")
	require.NoError(t, err)
	require.Equal(t, int64(3), sent.MessagesSent)
}

func TestIntegration_DefaultQuota(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	cfg, err := env.Gate.Quota(ctx)
	require.NoError(t, err)
	require.Equal(t, message.DefaultMaxMessages, cfg.MaxMessages)

	for i := 0; i < message.DefaultMaxMessages; i++ {
		_, err := env.Gate.AttemptSend(ctx, "u1", "A", "ping")
		require.NoError(t, err)
	}
	_, err = env.Gate.AttemptSend(ctx, "u1", "A", "ping")
	require.ErrorIs(t, err, message.ErrQuotaExceeded)
}

func TestIntegration_ConcurrentSendsAreExact(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{DefaultMaxMessages: 4})

	const senders = 12
	var wg sync.WaitGroup
	results := make(chan error, senders)
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.Gate.AttemptSend(ctx, "u1", "A", "burst")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for err := range results {
		if err == nil {
			admitted++
			continue
		}
		require.ErrorIs(t, err, message.ErrQuotaExceeded)
	}
	require.Equal(t, 4, admitted)

	usage, err := env.Gate.Usage(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, int64(4), usage.MessagesSent)

	msgs, err := env.Gate.List(ctx, message.ListOptions{SenderID: "u1"})
	require.NoError(t, err)
	require.Len(t, msgs, 4)
}

func TestIntegration_ReconcileRepairsDrift(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	_, err := env.Registry.RegisterClaim(ctx, "A", "u1")
	require.NoError(t, err)
	_, err = env.Registry.RegisterClaim(ctx, "A", "u2")
	require.NoError(t, err)
	_, err = env.Registry.RegisterClaim(ctx, "B", "u1")
	require.NoError(t, err)

	_, err = env.DB.Exec(`DELETE FROM conflicts`)
	require.NoError(t, err)

	report, err := env.Synchronizer.ReconcileAll(ctx, user.SystemActor)
	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)
	require.Equal(t, 1, report.Upserted)
	require.Equal(t, 1, report.Clean)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, "A", conflicts[0].AssetID)

	// A second pass finds nothing to repair but still rewrites the snapshot.
	report, err = env.Synchronizer.ReconcileAll(ctx, user.SystemActor)
	require.NoError(t, err)
	require.Equal(t, 1, report.Upserted)
	require.Zero(t, report.Removed)

	_, err = env.Synchronizer.ReconcileAll(ctx, "u1")
	require.ErrorIs(t, err, user.ErrForbidden)
}

func TestIntegration_WithdrawResolvesConflict(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	_, err := env.Registry.RegisterClaim(ctx, "A", "u1")
	require.NoError(t, err)
	_, err = env.Registry.RegisterClaim(ctx, "A", "u2")
	require.NoError(t, err)

	res, err := env.Registry.UnregisterClaim(ctx, "u2", "A", "")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeWithdrawn, res.Outcome)
	require.True(t, res.ConflictResolved)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Empty(t, conflicts)

	acct, err := env.Accounts.Get(ctx, "u2")
	require.NoError(t, err)
	require.Empty(t, acct.Assets)

	res, err = env.Registry.UnregisterClaim(ctx, "u2", "A", "")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeNotClaimed, res.Outcome)
}

func TestIntegration_ReservedUserLeavesNoClaim(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, app.Options{})

	_, err := env.Registry.RegisterClaim(ctx, "A", user.SystemActor)
	require.ErrorIs(t, err, asset.ErrInvalidInput)

	_, err = env.Registry.Get(ctx, "A")
	require.ErrorIs(t, err, asset.ErrAssetNotFound)

	res, err := env.Registry.RegisterClaim(ctx, "A", "bob")
	require.NoError(t, err)
	require.Equal(t, asset.OutcomeRegistered, res.Outcome)
	require.Equal(t, []string{"bob"}, res.Asset.UserIDs)

	conflicts, err := env.Registry.ListConflicts(ctx)
	require.NoError(t, err)
	require.Empty(t, conflicts)
}
