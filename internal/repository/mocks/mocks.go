package mocks

import (
	"context"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/asset"
	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/domain/user"
	"github.com/rpggio/assetguard/internal/events"
	"github.com/stretchr/testify/mock"
)

// AssetRepository is a mock for asset.AssetRepository.
type AssetRepository struct {
	mock.Mock
}

func (m *AssetRepository) Create(ctx context.Context, a *asset.Asset) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *AssetRepository) Get(ctx context.Context, id string) (*asset.Asset, error) {
	args := m.Called(ctx, id)
	if a, ok := args.Get(0).(*asset.Asset); ok {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssetRepository) Update(ctx context.Context, a *asset.Asset, expectedVersion int64) error {
	args := m.Called(ctx, a, expectedVersion)
	return args.Error(0)
}

func (m *AssetRepository) List(ctx context.Context) ([]asset.Asset, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]asset.Asset); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AssetRepository) ListByClaimant(ctx context.Context, userID string) ([]asset.Asset, error) {
	args := m.Called(ctx, userID)
	if list, ok := args.Get(0).([]asset.Asset); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ConflictRepository is a mock for asset.ConflictRepository.
type ConflictRepository struct {
	mock.Mock
}

func (m *ConflictRepository) Upsert(ctx context.Context, c *asset.Conflict) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *ConflictRepository) Get(ctx context.Context, assetID string) (*asset.Conflict, error) {
	args := m.Called(ctx, assetID)
	if c, ok := args.Get(0).(*asset.Conflict); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConflictRepository) Delete(ctx context.Context, assetID string) (bool, error) {
	args := m.Called(ctx, assetID)
	return args.Bool(0), args.Error(1)
}

func (m *ConflictRepository) List(ctx context.Context) ([]asset.Conflict, error) {
	args := m.Called(ctx)
	if list, ok := args.Get(0).([]asset.Conflict); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// UserRepository is a mock for user.Repository and user.KeyRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, acct *user.Account) error {
	args := m.Called(ctx, acct)
	return args.Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id string) (*user.Account, error) {
	args := m.Called(ctx, id)
	if acct, ok := args.Get(0).(*user.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) SetAdmin(ctx context.Context, id string, isAdmin bool) error {
	args := m.Called(ctx, id, isAdmin)
	return args.Error(0)
}

func (m *UserRepository) AddAsset(ctx context.Context, userID, assetID string) (bool, error) {
	args := m.Called(ctx, userID, assetID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) RemoveAsset(ctx context.Context, userID, assetID string) (bool, error) {
	args := m.Called(ctx, userID, assetID)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) CreateKey(ctx context.Context, key *user.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *UserRepository) GetKeyByHash(ctx context.Context, keyHash string) (*user.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if key, ok := args.Get(0).(*user.APIKey); ok {
		return key, args.Error(1)
	}
	return nil, args.Error(1)
}

// AccountService is a mock for the account collaborators of the domain services.
type AccountService struct {
	mock.Mock
}

func (m *AccountService) Ensure(ctx context.Context, userID string) (*user.Account, error) {
	args := m.Called(ctx, userID)
	if acct, ok := args.Get(0).(*user.Account); ok {
		return acct, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AccountService) LinkAsset(ctx context.Context, userID, assetID string) error {
	args := m.Called(ctx, userID, assetID)
	return args.Error(0)
}

func (m *AccountService) UnlinkAsset(ctx context.Context, userID, assetID string) error {
	args := m.Called(ctx, userID, assetID)
	return args.Error(0)
}

func (m *AccountService) RequireAdmin(ctx context.Context, actor string) error {
	args := m.Called(ctx, actor)
	return args.Error(0)
}

// MessageRepository is a mock for message.MessageRepository.
type MessageRepository struct {
	mock.Mock
}

func (m *MessageRepository) Admit(ctx context.Context, msg *message.Message, maxMessages int) (int64, error) {
	args := m.Called(ctx, msg, maxMessages)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepository) List(ctx context.Context, opts message.ListOptions) ([]message.Message, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]message.Message); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// ConfigRepository is a mock for message.ConfigRepository.
type ConfigRepository struct {
	mock.Mock
}

func (m *ConfigRepository) GetGlobal(ctx context.Context) (*message.GlobalConfig, error) {
	args := m.Called(ctx)
	if cfg, ok := args.Get(0).(*message.GlobalConfig); ok {
		return cfg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ConfigRepository) PutGlobal(ctx context.Context, cfg message.GlobalConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// ActivityRepository is a mock for activity.Repository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.ActivityEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListActivityOptions) ([]activity.ActivityEntry, error) {
	args := m.Called(ctx, opts)
	if list, ok := args.Get(0).([]activity.ActivityEntry); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// Publisher is a mock for events.Publisher.
type Publisher struct {
	mock.Mock
}

func (m *Publisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
