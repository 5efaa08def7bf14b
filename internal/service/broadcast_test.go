package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octagonbets/ppv-bot/internal/models"
)

type staticUsers struct {
	users []models.User
	err   error
}

func (s staticUsers) Upsert(context.Context, models.User) (UpsertResult, error) {
	return UpsertExisting, nil
}

func (s staticUsers) Get(_ context.Context, id int64) (*models.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (s staticUsers) List(context.Context, bool) ([]models.User, error) {
	return s.users, s.err
}

func (s staticUsers) Count(context.Context) (int, error) { return len(s.users), nil }

func (s staticUsers) CountActive(context.Context) (int, error) { return len(s.users), nil }

func usersWithIDs(ids ...int64) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.User{ID: id})
	}
	return out
}

func TestBroadcastCountsFailuresAndSkipsAdmin(t *testing.T) {
	const adminID = 1
	users := staticUsers{users: usersWithIDs(1, 2, 3, 4, 5, 6)}
	logger := &recordingLogger{}
	svc := NewBroadcastService(users, logger, BroadcastOptions{Workers: 3})

	var (
		mu        sync.Mutex
		delivered []int64
	)
	report, err := svc.Broadcast(context.Background(), adminID, func(_ context.Context, userID int64) error {
		mu.Lock()
		delivered = append(delivered, userID)
		mu.Unlock()
		if userID == 3 || userID == 5 {
			return errors.New("bot was blocked by the user")
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, Report{Total: 6, Successful: 4, Failed: 2}, report)
	assert.ElementsMatch(t, []int64{2, 3, 4, 5, 6}, delivered)
	assert.Equal(t, 2, logger.errorCount())
}

func TestBroadcastAllFailing(t *testing.T) {
	users := staticUsers{users: usersWithIDs(10, 11, 12)}
	svc := NewBroadcastService(users, &recordingLogger{}, BroadcastOptions{Workers: 2, Rate: 1000})

	report, err := svc.Broadcast(context.Background(), 99, func(context.Context, int64) error {
		return errors.New("chat not found")
	})
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 3, Successful: 0, Failed: 3}, report)
}

func TestBroadcastOnlyAdmin(t *testing.T) {
	users := staticUsers{users: usersWithIDs(7)}
	svc := NewBroadcastService(users, &recordingLogger{}, BroadcastOptions{})

	calls := 0
	report, err := svc.Broadcast(context.Background(), 7, func(context.Context, int64) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, Report{Total: 1, Successful: 1}, report)
	assert.Zero(t, calls)
}

func TestBroadcastListFailure(t *testing.T) {
	users := staticUsers{err: errors.New("db down")}
	svc := NewBroadcastService(users, &recordingLogger{}, BroadcastOptions{Workers: 1})

	_, err := svc.Broadcast(context.Background(), 1, func(context.Context, int64) error { return nil })
	assert.Error(t, err)
}
