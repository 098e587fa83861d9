// Package conflict restores the conflict record set from the asset set.
package conflict

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/events"
)

// Synchronizer rebuilds conflict records from assets.
type Synchronizer struct {
	assets     AssetLister
	conflicts  ConflictStore
	admins     AdminChecker
	activities ActivityRepository
	publisher  events.Publisher
	logger     *slog.Logger
	now        func() time.Time
}

// NewSynchronizer creates a new conflict synchronizer.
func NewSynchronizer(
	assets AssetLister,
	conflicts ConflictStore,
	admins AdminChecker,
	activities ActivityRepository,
	publisher events.Publisher,
	logger *slog.Logger,
) *Synchronizer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Synchronizer{
		assets:     assets,
		conflicts:  conflicts,
		admins:     admins,
		activities: activities,
		publisher:  publisher,
		logger:     logger,
		now:        time.Now,
	}
}

// ReconcileAll scans every asset. Assets with more than one claimant get
// their conflict record overwritten with a fresh snapshot; any other asset
// has its conflict record deleted. Conflict records for assets that no longer
// exist are deleted as well.
//
// A failure on one asset is logged and recorded in the report, and the scan
// moves on. Only failing to list assets, or cancellation, aborts the run.
func (s *Synchronizer) ReconcileAll(ctx context.Context, actor string) (*Report, error) {
	if err := s.admins.RequireAdmin(ctx, actor); err != nil {
		return nil, err
	}

	report := &Report{StartedAt: s.now(), Entries: []Entry{}}
	assets, err := s.assets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}

	known := make(map[string]struct{}, len(assets))
	for i := range assets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		a := &assets[i]
		known[a.ID] = struct{}{}
		report.Scanned++
		report.add(s.reconcileOne(ctx, a))
	}

	s.sweepOrphans(ctx, known, report)

	report.FinishedAt = s.now()
	s.logger.Info("conflicts reconciled",
		"actor", actor,
		"scanned", report.Scanned,
		"upserted", report.Upserted,
		"removed", report.Removed,
		"failed", report.Failed,
	)
	s.emit(ctx, actor, report)
	return report, nil
}

func (s *Synchronizer) reconcileOne(ctx context.Context, a *asset.Asset) Entry {
	if a.IsConflicted() {
		ids := make([]string, len(a.UserIDs))
		copy(ids, a.UserIDs)
		err := s.conflicts.Upsert(ctx, &asset.Conflict{
			AssetID:    a.ID,
			UserIDs:    ids,
			DetectedAt: s.now(),
		})
		if err != nil {
			return s.failed(a.ID, false, err)
		}
		return Entry{AssetID: a.ID, Action: ActionUpserted}
	}

	deleted, err := s.conflicts.Delete(ctx, a.ID)
	if err != nil {
		return s.failed(a.ID, false, err)
	}
	if deleted {
		return Entry{AssetID: a.ID, Action: ActionRemoved}
	}
	return Entry{AssetID: a.ID, Action: ActionClean}
}

func (s *Synchronizer) sweepOrphans(ctx context.Context, known map[string]struct{}, report *Report) {
	records, err := s.conflicts.List(ctx)
	if err != nil {
		s.logger.Warn("skipping orphan sweep", "error", err)
		return
	}
	for _, c := range records {
		if _, ok := known[c.AssetID]; ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		if _, err := s.conflicts.Delete(ctx, c.AssetID); err != nil {
			report.add(s.failed(c.AssetID, true, err))
			continue
		}
		report.add(Entry{AssetID: c.AssetID, Action: ActionRemoved, Orphan: true})
	}
}

func (s *Synchronizer) failed(assetID string, orphan bool, err error) Entry {
	s.logger.Warn("failed to reconcile asset", "asset_id", assetID, "error", err)
	return Entry{AssetID: assetID, Action: ActionFailed, Orphan: orphan, Error: err.Error()}
}

func (s *Synchronizer) emit(ctx context.Context, actor string, report *Report) {
	summary := fmt.Sprintf("reconciled %d assets: %d upserted, %d removed, %d failed",
		report.Scanned, report.Upserted, report.Removed, report.Failed)
	attrs := map[string]any{
		"scanned":  report.Scanned,
		"upserted": report.Upserted,
		"removed":  report.Removed,
		"clean":    report.Clean,
		"failed":   report.Failed,
	}
	if s.activities != nil {
		entry := activity.NewEntry(activity.TypeReconciliation, actor, "", summary, attrs, s.now())
		if err := s.activities.Log(ctx, entry); err != nil {
			s.logger.Warn("failed to log activity", "type", activity.TypeReconciliation, "error", err)
		}
	}
	if err := s.publisher.Publish(ctx, events.Event{
		Type:       events.TypeReconciled,
		UserID:     actor,
		Attributes: attrs,
		OccurredAt: s.now(),
	}); err != nil {
		s.logger.Warn("failed to publish event", "type", events.TypeReconciled, "error", err)
	}
}

// Run reconciles every interval as the system actor until ctx is done.
func (s *Synchronizer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.ReconcileAll(ctx, user.SystemActor); err != nil && ctx.Err() == nil {
				s.logger.Error("scheduled reconciliation failed", "error", err)
			}
		}
	}
}
