package user

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/rpggio/assetguard/internal/repository"
)

// Service manages accounts and the admin role check.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new account service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{repo: repo, logger: logger}
}

// Ensure returns the account for userID, creating it on first interaction.
func (s *Service) Ensure(ctx context.Context, userID string) (*Account, error) {
	userID, err := NormalizeID(userID)
	if err != nil {
		return nil, err
	}

	acct, err := s.repo.Get(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("loading account: %w", err)
	}

	acct = &Account{
		ID:        userID,
		Assets:    []string{},
		CreatedAt: time.Now(),
	}
	err = s.repo.Create(ctx, acct)
	if err == nil {
		s.logger.Debug("account created", "user_id", userID)
		return acct, nil
	}
	if !errors.Is(err, repository.ErrConflict) {
		return nil, fmt.Errorf("creating account: %w", err)
	}

	// Lost a creation race; the other writer's row is authoritative.
	acct, err = s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("reloading account: %w", err)
	}
	return acct, nil
}

// Get returns an existing account.
func (s *Service) Get(ctx context.Context, userID string) (*Account, error) {
	acct, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("getting account: %w", err)
	}
	return acct, nil
}

// IsAdmin reports whether actor holds the admin role. Unknown users are not admins.
func (s *Service) IsAdmin(ctx context.Context, actor string) (bool, error) {
	if actor == SystemActor {
		return true, nil
	}
	if strings.TrimSpace(actor) == "" {
		return false, nil
	}
	acct, err := s.repo.Get(ctx, actor)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("loading account: %w", err)
	}
	return acct.IsAdmin, nil
}

// RequireAdmin returns ErrForbidden unless actor holds the admin role.
func (s *Service) RequireAdmin(ctx context.Context, actor string) error {
	ok, err := s.IsAdmin(ctx, actor)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// SetAdmin grants or revokes the admin role. Only admins may change roles.
func (s *Service) SetAdmin(ctx context.Context, actor, userID string, isAdmin bool) error {
	if err := s.RequireAdmin(ctx, actor); err != nil {
		return err
	}
	if _, err := s.Ensure(ctx, userID); err != nil {
		return err
	}
	if err := s.repo.SetAdmin(ctx, userID, isAdmin); err != nil {
		return fmt.Errorf("setting admin flag: %w", err)
	}
	s.logger.Info("admin role changed", "user_id", userID, "is_admin", isAdmin, "actor", actor)
	return nil
}

// LinkAsset adds assetID to the user's asset set. Linking twice is a no-op.
func (s *Service) LinkAsset(ctx context.Context, userID, assetID string) error {
	if _, err := s.Ensure(ctx, userID); err != nil {
		return err
	}
	if _, err := s.repo.AddAsset(ctx, userID, assetID); err != nil {
		return fmt.Errorf("linking asset: %w", err)
	}
	return nil
}

// UnlinkAsset removes assetID from the user's asset set if present.
func (s *Service) UnlinkAsset(ctx context.Context, userID, assetID string) error {
	if _, err := s.repo.RemoveAsset(ctx, userID, assetID); err != nil {
		return fmt.Errorf("unlinking asset: %w", err)
	}
	return nil
}
