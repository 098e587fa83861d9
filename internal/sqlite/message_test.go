package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rpggio/assetguard/internal/domain/message"
	"github.com/rpggio/assetguard/internal/repository"
	"github.com/stretchr/testify/require"
)

func newMessage(id, sender string, at time.Time) *message.Message {
	return &message.Message{
		ID:        id,
		SenderID:  sender,
		AssetID:   "sensor-7",
		Content:   "hello " + id,
		CreatedAt: at,
	}
}

func TestMessageRepository_AdmitEnforcesLimit(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)
	users := NewUserRepository(db)
	insertUser(t, db, "alice")

	now := time.Now()
	sent, err := repo.Admit(ctx, newMessage("m1", "alice", now), 2)
	require.NoError(t, err)
	require.Equal(t, int64(1), sent)

	sent, err = repo.Admit(ctx, newMessage("m2", "alice", now.Add(time.Second)), 2)
	require.NoError(t, err)
	require.Equal(t, int64(2), sent)

	_, err = repo.Admit(ctx, newMessage("m3", "alice", now.Add(2*time.Second)), 2)
	require.ErrorIs(t, err, repository.ErrLimitReached)

	acct, err := users.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(2), acct.MessagesSent)

	msgs, err := repo.List(ctx, message.ListOptions{SenderID: "alice"})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "m2", msgs[0].ID)
	require.Equal(t, "m1", msgs[1].ID)
}

func TestMessageRepository_AdmitUnknownSender(t *testing.T) {
	db := NewTestDB(t)
	repo := NewMessageRepository(db)

	_, err := repo.Admit(context.Background(), newMessage("m1", "ghost", time.Now()), 5)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMessageRepository_DuplicateIDRollsBackCounter(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)
	insertUser(t, db, "alice")

	_, err := repo.Admit(ctx, newMessage("m1", "alice", time.Now()), 5)
	require.NoError(t, err)
	_, err = repo.Admit(ctx, newMessage("m1", "alice", time.Now()), 5)
	require.ErrorIs(t, err, repository.ErrConflict)

	acct, err := NewUserRepository(db).Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(1), acct.MessagesSent)
}

func TestMessageRepository_ConcurrentAdmitIsExact(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)
	insertUser(t, db, "alice")

	const limit = 5
	const senders = 20

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted, refused := 0, 0
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Admit(ctx, newMessage(fmt.Sprintf("m%d", i), "alice", time.Now()), limit)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				admitted++
			case errors.Is(err, repository.ErrLimitReached):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	require.Equal(t, limit, admitted)
	require.Equal(t, senders-limit, refused)

	acct, err := NewUserRepository(db).Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, int64(limit), acct.MessagesSent)

	msgs, err := repo.List(ctx, message.ListOptions{SenderID: "alice"})
	require.NoError(t, err)
	require.Len(t, msgs, limit)
}

func TestMessageRepository_ListFilters(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewMessageRepository(db)
	insertUser(t, db, "alice")
	insertUser(t, db, "bob")

	now := time.Now()
	_, err := repo.Admit(ctx, newMessage("a1", "alice", now), 10)
	require.NoError(t, err)
	other := newMessage("b1", "bob", now.Add(time.Second))
	other.AssetID = "sensor-8"
	_, err = repo.Admit(ctx, other, 10)
	require.NoError(t, err)

	all, err := repo.List(ctx, message.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "b1", all[0].ID)

	byAsset, err := repo.List(ctx, message.ListOptions{AssetID: "sensor-7"})
	require.NoError(t, err)
	require.Len(t, byAsset, 1)
	require.Equal(t, "a1", byAsset[0].ID)

	paged, err := repo.List(ctx, message.ListOptions{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "a1", paged[0].ID)
}

func TestConfigRepository_GetPut(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()
	repo := NewConfigRepository(db)

	_, err := repo.GetGlobal(ctx)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.PutGlobal(ctx, message.GlobalConfig{MaxMessages: 3}))
	require.NoError(t, repo.PutGlobal(ctx, message.GlobalConfig{MaxMessages: 7}))

	cfg, err := repo.GetGlobal(ctx)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.MaxMessages)

	var raw string
	require.NoError(t, db.QueryRow(`SELECT value FROM config WHERE key = 'global'`).Scan(&raw))
	require.JSONEq(t, `{"maxMessages":7}`, raw)
}
