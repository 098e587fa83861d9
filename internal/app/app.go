// Package app wires the store, domain services and event publisher into one
// stack shared by the CLI commands and the test server.
package app

import (
	"log/slog"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/conflict"
	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/rpggio/assetguard/internal/mcp"
	"github.com/rpggio/assetguard/internal/sqlite"
)

// Options tunes the services built by New.
type Options struct {
	DefaultMaxMessages int
	MaxAttempts        int
	Publisher          events.Publisher
	Logger             *slog.Logger
}

// Stack holds every service backed by one database.
type Stack struct {
	DB           *sqlite.DB
	Accounts     *user.Service
	Keys         *user.KeyService
	Activity     *activity.Service
	Registry     *asset.Registry
	Synchronizer *conflict.Synchronizer
	Gate         *message.Gate
}

// New builds the stack on an open, migrated database.
func New(db *sqlite.DB, opts Options) *Stack {
	assetRepo := sqlite.NewAssetRepository(db)
	conflictRepo := sqlite.NewConflictRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)
	configRepo := sqlite.NewConfigRepository(db)
	activityRepo := sqlite.NewActivityRepository(db)

	accounts := user.NewService(userRepo, opts.Logger)

	return &Stack{
		DB:       db,
		Accounts: accounts,
		Keys:     user.NewKeyService(userRepo, accounts),
		Activity: activity.NewService(activityRepo, opts.Logger),
		Registry: asset.NewRegistry(assetRepo, conflictRepo, accounts, activityRepo, opts.Publisher, opts.Logger,
			asset.WithMaxAttempts(opts.MaxAttempts)),
		Synchronizer: conflict.NewSynchronizer(assetRepo, conflictRepo, accounts, activityRepo, opts.Publisher, opts.Logger),
		Gate:         message.NewGate(messageRepo, configRepo, accounts, activityRepo, opts.Publisher, opts.Logger, opts.DefaultMaxMessages),
	}
}

// Services returns the stack as MCP dispatcher dependencies.
func (s *Stack) Services() mcp.Services {
	return mcp.Services{
		Registry:     s.Registry,
		Synchronizer: s.Synchronizer,
		Gate:         s.Gate,
		Accounts:     s.Accounts,
		Activity:     s.Activity,
	}
}
