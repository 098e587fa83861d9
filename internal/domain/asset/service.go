package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/rpggio/assetguard/internal/repository"
)

const defaultMaxAttempts = 5

// errRetry signals that a compare-and-swap lost and the attempt should be repeated.
var errRetry = errors.New("retry")

// Registry owns asset claims and the conflict records derived from them.
type Registry struct {
	assets      AssetRepository
	conflicts   ConflictRepository
	accounts    AccountService
	activities  ActivityRepository
	publisher   events.Publisher
	logger      *slog.Logger
	maxAttempts int
	now         func() time.Time
}

// Option customises a Registry.
type Option func(*Registry)

// WithMaxAttempts bounds the compare-and-swap retries per call.
func WithMaxAttempts(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRegistry creates a new asset registry.
func NewRegistry(
	assets AssetRepository,
	conflicts ConflictRepository,
	accounts AccountService,
	activities ActivityRepository,
	publisher events.Publisher,
	logger *slog.Logger,
	opts ...Option,
) *Registry {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Registry{
		assets:      assets,
		conflicts:   conflicts,
		accounts:    accounts,
		activities:  activities,
		publisher:   publisher,
		logger:      logger,
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RegisterClaim records that userID uses assetID.
//
// The first claimant creates the asset. A further distinct claimant is
// appended under a version compare-and-swap, and whenever the asset ends up
// with more than one claimant the conflict record is rewritten with the new
// snapshot. Repeated claims by the same user do not mutate the asset.
func (r *Registry) RegisterClaim(ctx context.Context, assetID, userID string) (*RegistrationResult, error) {
	id, err := NormalizeAssetID(assetID)
	if err != nil {
		return nil, err
	}
	uid, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := r.tryRegister(ctx, id, uid)
		if errors.Is(err, errRetry) {
			r.logger.Debug("claim lost compare-and-swap", "asset_id", id, "user_id", uid, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return nil, ErrContention
}

func (r *Registry) tryRegister(ctx context.Context, id, userID string) (*RegistrationResult, error) {
	current, err := r.assets.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return r.createAsset(ctx, id, userID)
	}
	if err != nil {
		return nil, &StepError{Step: StepLoadAsset, Err: err}
	}

	if current.HasClaimant(userID) {
		return r.repairExisting(ctx, current, userID)
	}

	now := r.now()
	updated := *current
	updated.UserIDs = append(cloneIDs(current.UserIDs), userID)
	updated.Conflict = updated.IsConflicted()
	updated.Version = current.Version + 1
	updated.ModifiedAt = now

	if err := r.assets.Update(ctx, &updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrConflict) || errors.Is(err, repository.ErrNotFound) {
			return nil, errRetry
		}
		return nil, &StepError{Step: StepWriteAsset, Err: err}
	}
	completed := []string{StepWriteAsset}

	result := &RegistrationResult{Outcome: OutcomeRegistered, Asset: updated}
	if updated.Conflict {
		conflict := &Conflict{
			AssetID:    id,
			UserIDs:    cloneIDs(updated.UserIDs),
			DetectedAt: now,
		}
		if err := r.conflicts.Upsert(ctx, conflict); err != nil {
			return nil, &StepError{Step: StepWriteConflict, Completed: completed, Err: err}
		}
		completed = append(completed, StepWriteConflict)
		result.Outcome = OutcomeRegisteredWithConflict
		result.Conflict = conflict
	}

	if err := r.accounts.LinkAsset(ctx, userID, id); err != nil {
		return nil, &StepError{Step: StepLinkAccount, Completed: completed, Err: err}
	}

	r.emit(ctx, activity.TypeClaimRegistered, events.TypeClaimRegistered, id, userID, updated.UserIDs,
		fmt.Sprintf("%s claimed asset %s", userID, id))
	if result.Conflict != nil {
		r.logger.Info("asset conflict detected", "asset_id", id, "user_ids", updated.UserIDs)
		r.emit(ctx, activity.TypeConflictDetected, events.TypeConflictDetected, id, userID, updated.UserIDs,
			fmt.Sprintf("asset %s claimed by %d users", id, len(updated.UserIDs)))
	}
	return result, nil
}

func (r *Registry) createAsset(ctx context.Context, id, userID string) (*RegistrationResult, error) {
	now := r.now()
	created := &Asset{
		ID:         id,
		UserIDs:    []string{userID},
		Conflict:   false,
		Version:    1,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	if err := r.assets.Create(ctx, created); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Someone else created it first; retry as an append.
			return nil, errRetry
		}
		return nil, &StepError{Step: StepWriteAsset, Err: err}
	}

	if err := r.accounts.LinkAsset(ctx, userID, id); err != nil {
		return nil, &StepError{Step: StepLinkAccount, Completed: []string{StepWriteAsset}, Err: err}
	}

	r.emit(ctx, activity.TypeClaimRegistered, events.TypeClaimRegistered, id, userID, created.UserIDs,
		fmt.Sprintf("%s claimed asset %s", userID, id))
	return &RegistrationResult{Outcome: OutcomeRegistered, Asset: *created}, nil
}

// repairExisting handles a repeated claim. The asset is left untouched, but
// writes that a failed earlier call may have skipped are re-applied.
func (r *Registry) repairExisting(ctx context.Context, current *Asset, userID string) (*RegistrationResult, error) {
	result := &RegistrationResult{Outcome: OutcomeAlreadyRegistered, Asset: *current}

	if current.IsConflicted() {
		existing, err := r.conflicts.Get(ctx, current.ID)
		switch {
		case err == nil:
			result.Conflict = existing
		case errors.Is(err, repository.ErrNotFound):
			conflict := &Conflict{
				AssetID:    current.ID,
				UserIDs:    cloneIDs(current.UserIDs),
				DetectedAt: r.now(),
			}
			if err := r.conflicts.Upsert(ctx, conflict); err != nil {
				return nil, &StepError{Step: StepWriteConflict, Err: err}
			}
			result.Conflict = conflict
		default:
			return nil, &StepError{Step: StepWriteConflict, Err: err}
		}
	}

	if err := r.accounts.LinkAsset(ctx, userID, current.ID); err != nil {
		return nil, &StepError{Step: StepLinkAccount, Err: err}
	}
	return result, nil
}

// UnregisterClaim withdraws targetUserID's claim on assetID. Users may
// withdraw their own claims; withdrawing someone else's requires the admin
// role. An empty targetUserID means the actor.
//
// When the asset drops to a single claimant (or none) its conflict record is
// deleted in the same call.
func (r *Registry) UnregisterClaim(ctx context.Context, actor, assetID, targetUserID string) (*WithdrawalResult, error) {
	id, err := NormalizeAssetID(assetID)
	if err != nil {
		return nil, err
	}
	actorID := strings.TrimSpace(actor)
	if actorID == "" {
		return nil, ErrInvalidInput
	}
	if strings.TrimSpace(targetUserID) == "" {
		targetUserID = actorID
	}
	target, err := normalizeUserID(targetUserID)
	if err != nil {
		return nil, err
	}
	if target != actorID {
		if err := r.accounts.RequireAdmin(ctx, actorID); err != nil {
			return nil, err
		}
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		res, err := r.tryUnregister(ctx, id, target, actorID)
		if errors.Is(err, errRetry) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return res, nil
	}
	return nil, ErrContention
}

func (r *Registry) tryUnregister(ctx context.Context, id, target, actor string) (*WithdrawalResult, error) {
	current, err := r.assets.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAssetNotFound
	}
	if err != nil {
		return nil, &StepError{Step: StepLoadAsset, Err: err}
	}

	if !current.HasClaimant(target) {
		if err := r.accounts.UnlinkAsset(ctx, target, id); err != nil {
			return nil, &StepError{Step: StepLinkAccount, Err: err}
		}
		return &WithdrawalResult{Outcome: OutcomeNotClaimed, Asset: *current}, nil
	}

	now := r.now()
	updated := *current
	updated.UserIDs = make([]string, 0, len(current.UserIDs)-1)
	for _, uid := range current.UserIDs {
		if uid != target {
			updated.UserIDs = append(updated.UserIDs, uid)
		}
	}
	updated.Conflict = updated.IsConflicted()
	updated.Version = current.Version + 1
	updated.ModifiedAt = now

	if err := r.assets.Update(ctx, &updated, current.Version); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, errRetry
		}
		return nil, &StepError{Step: StepWriteAsset, Err: err}
	}
	completed := []string{StepWriteAsset}

	result := &WithdrawalResult{Outcome: OutcomeWithdrawn, Asset: updated}
	if updated.Conflict {
		if err := r.conflicts.Upsert(ctx, &Conflict{
			AssetID:    id,
			UserIDs:    cloneIDs(updated.UserIDs),
			DetectedAt: now,
		}); err != nil {
			return nil, &StepError{Step: StepWriteConflict, Completed: completed, Err: err}
		}
		completed = append(completed, StepWriteConflict)
	} else {
		deleted, err := r.conflicts.Delete(ctx, id)
		if err != nil {
			return nil, &StepError{Step: StepWriteConflict, Completed: completed, Err: err}
		}
		completed = append(completed, StepWriteConflict)
		result.ConflictResolved = deleted
	}

	if err := r.accounts.UnlinkAsset(ctx, target, id); err != nil {
		return nil, &StepError{Step: StepLinkAccount, Completed: completed, Err: err}
	}

	r.emit(ctx, activity.TypeClaimWithdrawn, events.TypeClaimWithdrawn, id, target, updated.UserIDs,
		fmt.Sprintf("%s withdrew %s from asset %s", actor, target, id))
	if result.ConflictResolved {
		r.logger.Info("asset conflict resolved", "asset_id", id, "user_ids", updated.UserIDs)
		r.emit(ctx, activity.TypeConflictResolved, events.TypeConflictResolved, id, target, updated.UserIDs,
			fmt.Sprintf("asset %s no longer conflicted", id))
	}
	return result, nil
}

// Get returns an asset by ID.
func (r *Registry) Get(ctx context.Context, assetID string) (*Asset, error) {
	id, err := NormalizeAssetID(assetID)
	if err != nil {
		return nil, err
	}
	a, err := r.assets.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// List returns every asset.
func (r *Registry) List(ctx context.Context) ([]Asset, error) {
	return r.assets.List(ctx)
}

// ListForUser returns the assets userID has claimed.
func (r *Registry) ListForUser(ctx context.Context, userID string) ([]Asset, error) {
	uid, err := normalizeUserID(userID)
	if err != nil {
		return nil, err
	}
	return r.assets.ListByClaimant(ctx, uid)
}

// ListConflicts returns every conflict record.
func (r *Registry) ListConflicts(ctx context.Context) ([]Conflict, error) {
	return r.conflicts.List(ctx)
}

// emit records an activity entry and publishes the matching event. Failures
// are logged; they never fail the claim.
func (r *Registry) emit(ctx context.Context, at activity.ActivityType, et events.Type, assetID, userID string, userIDs []string, summary string) {
	if r.activities != nil {
		entry := activity.NewEntry(at, userID, assetID, summary, map[string]any{"user_ids": userIDs}, r.now())
		if err := r.activities.Log(ctx, entry); err != nil {
			r.logger.Warn("failed to log activity", "type", at, "asset_id", assetID, "error", err)
		}
	}
	if err := r.publisher.Publish(ctx, events.Event{
		Type:       et,
		AssetID:    assetID,
		UserID:     userID,
		UserIDs:    cloneIDs(userIDs),
		OccurredAt: r.now(),
	}); err != nil {
		r.logger.Warn("failed to publish event", "type", et, "asset_id", assetID, "error", err)
	}
}
