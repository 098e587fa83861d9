package user

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpggio/assetguard/internal/repository"
)

const tokenPrefix = "ag_"

// ErrInvalidToken indicates an unknown or revoked bearer token.
var ErrInvalidToken = errors.New("invalid api key")

// APIKey binds a hashed bearer token to a user. The plain token is only
// returned once, at issue time.
type APIKey struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	KeyHash   string    `json:"-"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KeyRepository provides persistence for API keys.
type KeyRepository interface {
	CreateKey(ctx context.Context, key *APIKey) error
	GetKeyByHash(ctx context.Context, keyHash string) (*APIKey, error)
}

// KeyService issues API keys and resolves bearer tokens to user ids.
type KeyService struct {
	keys     KeyRepository
	accounts *Service
}

// NewKeyService creates a new API key service.
func NewKeyService(keys KeyRepository, accounts *Service) *KeyService {
	return &KeyService{keys: keys, accounts: accounts}
}

// Issue creates an API key for userID and returns the plain token.
func (s *KeyService) Issue(ctx context.Context, actor, userID, label string) (string, *APIKey, error) {
	if err := s.accounts.RequireAdmin(ctx, actor); err != nil {
		return "", nil, err
	}
	acct, err := s.accounts.Ensure(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generating key: %w", err)
	}
	token := tokenPrefix + hex.EncodeToString(buf)

	key := &APIKey{
		ID:        uuid.NewString(),
		UserID:    acct.ID,
		KeyHash:   HashToken(token),
		Label:     strings.TrimSpace(label),
		CreatedAt: time.Now(),
	}
	if err := s.keys.CreateKey(ctx, key); err != nil {
		return "", nil, fmt.Errorf("storing key: %w", err)
	}
	s.accounts.logger.Info("api key issued", "user_id", acct.ID, "key_id", key.ID, "actor", actor)
	return token, key, nil
}

// ResolveUser returns the user id bound to a bearer token.
func (s *KeyService) ResolveUser(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	key, err := s.keys.GetKeyByHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("resolving key: %w", err)
	}
	return key.UserID, nil
}

// HashToken returns the hex SHA-256 of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
