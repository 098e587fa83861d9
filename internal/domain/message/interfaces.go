package message

import (
	"context"

	"github.com/rpggio/assetguard/internal/domain/activity"
	"github.com/rpggio/assetguard/internal/domain/user"
)

// MessageRepository persists messages. Admit stores msg and increments the
// sender's counter in one transaction, refusing with
// repository.ErrLimitReached when the counter is already at maxMessages.
type MessageRepository interface {
	Admit(ctx context.Context, msg *Message, maxMessages int) (int64, error)
	List(ctx context.Context, opts ListOptions) ([]Message, error)
}

// ConfigRepository stores the global config record.
type ConfigRepository interface {
	GetGlobal(ctx context.Context) (*GlobalConfig, error)
	PutGlobal(ctx context.Context, cfg GlobalConfig) error
}

// AccountService resolves senders and checks the admin role.
type AccountService interface {
	Ensure(ctx context.Context, userID string) (*user.Account, error)
	RequireAdmin(ctx context.Context, actor string) error
}

// ActivityRepository logs message activity.
type ActivityRepository interface {
	Log(ctx context.Context, entry *activity.ActivityEntry) error
}
