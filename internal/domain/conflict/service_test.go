package conflict_test

import (
	"context"
	"testing"

	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/conflict"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/repository"
	"github.com/rpggio/assetguard/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReconcileAll_RepairsConflictSet(t *testing.T) {
	ctx := context.Background()
	assets := &mocks.AssetRepository{}
	conflicts := &mocks.ConflictRepository{}
	admins := &mocks.AccountService{}
	syncer := conflict.NewSynchronizer(assets, conflicts, admins, nil, nil, nil)

	admins.On("RequireAdmin", ctx, user.SystemActor).Return(nil)
	assets.On("List", ctx).Return([]asset.Asset{
		{ID: "sensor-7", UserIDs: []string{"alice", "bob"}, Conflict: true},
		{ID: "sensor-8", UserIDs: []string{"carol"}, Conflict: true},
		{ID: "sensor-9", UserIDs: []string{"dave"}},
	}, nil)
	conflicts.On("Upsert", ctx, mock.MatchedBy(func(c *asset.Conflict) bool {
		return c.AssetID == "sensor-7" && len(c.UserIDs) == 2 && !c.DetectedAt.IsZero()
	})).Return(nil)
	conflicts.On("Delete", ctx, "sensor-8").Return(true, nil)
	conflicts.On("Delete", ctx, "sensor-9").Return(false, nil)
	conflicts.On("List", ctx).Return([]asset.Conflict{
		{AssetID: "sensor-7", UserIDs: []string{"alice", "bob"}},
		{AssetID: "gone", UserIDs: []string{"x", "y"}},
	}, nil)
	conflicts.On("Delete", ctx, "gone").Return(true, nil)

	report, err := syncer.ReconcileAll(ctx, user.SystemActor)
	require.NoError(t, err)
	require.Equal(t, 3, report.Scanned)
	require.Equal(t, 1, report.Upserted)
	require.Equal(t, 2, report.Removed)
	require.Equal(t, 1, report.Clean)
	require.Equal(t, 0, report.Failed)
	require.Len(t, report.Entries, 4)
	require.Equal(t, conflict.Entry{AssetID: "gone", Action: conflict.ActionRemoved, Orphan: true}, report.Entries[3])
	require.False(t, report.FinishedAt.Before(report.StartedAt))
	conflicts.AssertExpectations(t)
}

func TestReconcileAll_ContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	assets := &mocks.AssetRepository{}
	conflicts := &mocks.ConflictRepository{}
	admins := &mocks.AccountService{}
	syncer := conflict.NewSynchronizer(assets, conflicts, admins, nil, nil, nil)

	admins.On("RequireAdmin", ctx, "root").Return(nil)
	assets.On("List", ctx).Return([]asset.Asset{
		{ID: "a", UserIDs: []string{"u1", "u2"}},
		{ID: "b", UserIDs: []string{"u1", "u3"}},
	}, nil)
	conflicts.On("Upsert", ctx, mock.MatchedBy(func(c *asset.Conflict) bool { return c.AssetID == "a" })).
		Return(repository.ErrUnavailable)
	conflicts.On("Upsert", ctx, mock.MatchedBy(func(c *asset.Conflict) bool { return c.AssetID == "b" })).
		Return(nil)
	conflicts.On("List", ctx).Return([]asset.Conflict{}, nil)

	report, err := syncer.ReconcileAll(ctx, "root")
	require.NoError(t, err)
	require.Equal(t, 1, report.Failed)
	require.Equal(t, 1, report.Upserted)
	require.Equal(t, conflict.ActionFailed, report.Entries[0].Action)
	require.Contains(t, report.Entries[0].Error, "store unavailable")
	require.Equal(t, conflict.ActionUpserted, report.Entries[1].Action)
}

func TestReconcileAll_RequiresAdmin(t *testing.T) {
	ctx := context.Background()
	assets := &mocks.AssetRepository{}
	admins := &mocks.AccountService{}
	syncer := conflict.NewSynchronizer(assets, &mocks.ConflictRepository{}, admins, nil, nil, nil)

	admins.On("RequireAdmin", ctx, "alice").Return(user.ErrForbidden)

	_, err := syncer.ReconcileAll(ctx, "alice")
	require.ErrorIs(t, err, user.ErrForbidden)
	assets.AssertNotCalled(t, "List", mock.Anything)
}

func TestReconcileAll_ListFailureAborts(t *testing.T) {
	ctx := context.Background()
	assets := &mocks.AssetRepository{}
	admins := &mocks.AccountService{}
	syncer := conflict.NewSynchronizer(assets, &mocks.ConflictRepository{}, admins, nil, nil, nil)

	admins.On("RequireAdmin", ctx, "root").Return(nil)
	assets.On("List", ctx).Return(nil, repository.ErrUnavailable)

	_, err := syncer.ReconcileAll(ctx, "root")
	require.ErrorIs(t, err, repository.ErrUnavailable)
}

func TestReconcileAll_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assets := &mocks.AssetRepository{}
	conflicts := &mocks.ConflictRepository{}
	admins := &mocks.AccountService{}
	syncer := conflict.NewSynchronizer(assets, conflicts, admins, nil, nil, nil)

	admins.On("RequireAdmin", ctx, "root").Return(nil)
	assets.On("List", ctx).Return([]asset.Asset{{ID: "a", UserIDs: []string{"u1"}}}, nil)

	_, err := syncer.ReconcileAll(ctx, "root")
	require.ErrorIs(t, err, context.Canceled)
	conflicts.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
