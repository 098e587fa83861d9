package activity_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/repository/mocks"
	"github.com/stretchr/testify/require"
)

func TestActivityService_LogAndList(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}

	assetID := "sensor-7"
	entry := &activity.ActivityEntry{
		AssetID:      &assetID,
		ActivityType: activity.TypeConflictDetected,
		Summary:      "conflict detected",
	}
	opts := activity.ListActivityOptions{AssetID: &assetID}
	normalized := activity.ListActivityOptions{AssetID: &assetID, Limit: activity.DefaultListLimit}

	repo.On("Log", ctx, entry).Return(nil)
	repo.On("List", ctx, normalized).Return([]activity.ActivityEntry{*entry}, nil)

	svc := activity.NewService(repo, nil)
	require.NoError(t, svc.LogActivity(ctx, entry))
	require.False(t, entry.CreatedAt.IsZero())

	entries, err := svc.GetRecentActivity(ctx, opts)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	repo.AssertExpectations(t)
}

func TestActivityService_LogRejectsInvalidEntry(t *testing.T) {
	svc := activity.NewService(&mocks.ActivityRepository{}, nil)
	ctx := context.Background()
	require.ErrorIs(t, svc.LogActivity(ctx, nil), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.ActivityEntry{}), activity.ErrInvalidInput)
	require.ErrorIs(t, svc.LogActivity(ctx, &activity.ActivityEntry{ActivityType: "asset_deleted"}), activity.ErrInvalidInput)
}

func TestActivityService_ListClampsAndValidates(t *testing.T) {
	ctx := context.Background()
	repo := &mocks.ActivityRepository{}
	svc := activity.NewService(repo, nil)

	repo.On("List", ctx, activity.ListActivityOptions{Limit: activity.MaxListLimit}).
		Return([]activity.ActivityEntry{}, nil)
	_, err := svc.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: 10_000, Offset: -3})
	require.NoError(t, err)

	bogus := activity.ActivityType("bogus")
	_, err = svc.GetRecentActivity(ctx, activity.ListActivityOptions{ActivityType: &bogus})
	require.ErrorIs(t, err, activity.ErrInvalidInput)

	repo.On("List", ctx, activity.ListActivityOptions{Limit: 5}).Return(nil, errors.New("boom"))
	_, err = svc.GetRecentActivity(ctx, activity.ListActivityOptions{Limit: 5})
	require.Error(t, err)
	repo.AssertExpectations(t)
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entry := activity.NewEntry(activity.TypeQuotaUpdated, "root", "", "root set max messages to 5",
		map[string]any{"max_messages": 5}, at)
	require.NotNil(t, entry.UserID)
	require.Equal(t, "root", *entry.UserID)
	require.Nil(t, entry.AssetID)
	require.Equal(t, at, entry.CreatedAt)

	var details map[string]any
	require.NoError(t, json.Unmarshal([]byte(entry.Details), &details))
	require.Equal(t, float64(5), details["max_messages"])

	bare := activity.NewEntry(activity.TypeReconciliation, "", "", "reconciled", nil, at)
	require.Nil(t, bare.UserID)
	require.Empty(t, bare.Details)
}
