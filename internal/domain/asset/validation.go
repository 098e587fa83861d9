package asset

import (
	"strings"

	"github.com/rpggio/assetguard/internal/domain/user"
)

// NormalizeAssetID trims surrounding whitespace and rejects empty ids.
func NormalizeAssetID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", ErrInvalidInput
	}
	return id, nil
}

// normalizeUserID applies the account id rules before any asset write, so a
// claimant that could never own an account is never recorded.
func normalizeUserID(raw string) (string, error) {
	id, err := user.NormalizeID(raw)
	if err != nil {
		return "", ErrInvalidInput
	}
	return id, nil
}
