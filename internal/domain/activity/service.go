package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Service reads and appends the activity log.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new activity service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// LogActivity appends entry, stamping the current time if missing.
func (s *Service) LogActivity(ctx context.Context, entry *ActivityEntry) error {
	if entry == nil || !entry.ActivityType.Valid() {
		return ErrInvalidInput
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	if err := s.repo.Log(ctx, entry); err != nil {
		return fmt.Errorf("logging activity: %w", err)
	}
	return nil
}

// GetRecentActivity lists entries newest first. The limit defaults to
// DefaultListLimit and is capped at MaxListLimit.
func (s *Service) GetRecentActivity(ctx context.Context, opts ListActivityOptions) ([]ActivityEntry, error) {
	if opts.ActivityType != nil && !opts.ActivityType.Valid() {
		return nil, fmt.Errorf("%w: unknown activity type %q", ErrInvalidInput, *opts.ActivityType)
	}
	entries, err := s.repo.List(ctx, opts.normalized())
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	s.logger.Debug("activity listed", "count", len(entries))
	return entries, nil
}
