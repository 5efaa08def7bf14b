package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/octagonbets/ppv-bot/internal/models"
)

func TestUsersUpsertNewThenExisting(t *testing.T) {
	ctx := context.Background()
	fx := newStoreFixture(t)
	clk := &clock{now: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewUsersService(fx.users).(*usersService)
	svc.timeNow = clk.Now

	result, err := svc.Upsert(ctx, models.User{ID: 42, Username: "khabib", FirstName: "Khabib"})
	require.NoError(t, err)
	assert.Equal(t, UpsertNew, result)

	first, err := fx.users.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, first.CreatedAt.Equal(first.LastActive))

	clk.now = clk.now.Add(time.Minute)
	result, err = svc.Upsert(ctx, models.User{ID: 42, Username: "eagle", FirstName: "Khabib"})
	require.NoError(t, err)
	assert.Equal(t, UpsertExisting, result)

	second, err := svc.Get(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "eagle", second.Username)
	assert.True(t, second.LastActive.After(first.LastActive))
	assert.True(t, second.CreatedAt.Equal(first.CreatedAt))
}

func TestUsersGetMissing(t *testing.T) {
	fx := newStoreFixture(t)
	svc := NewUsersService(fx.users)

	_, err := svc.Get(context.Background(), 404)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUsersUpsertRequiresID(t *testing.T) {
	fx := newStoreFixture(t)
	svc := NewUsersService(fx.users)

	_, err := svc.Upsert(context.Background(), models.User{Username: "ghost"})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestUsersListAndCountActive(t *testing.T) {
	ctx := context.Background()
	fx := newStoreFixture(t)
	clk := &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	svc := NewUsersService(fx.users).(*usersService)
	svc.timeNow = clk.Now

	_, err := svc.Upsert(ctx, models.User{ID: 1, FirstName: "Old"})
	require.NoError(t, err)

	clk.now = clk.now.Add(45 * 24 * time.Hour)
	_, err = svc.Upsert(ctx, models.User{ID: 2, FirstName: "Recent"})
	require.NoError(t, err)
	clk.now = clk.now.Add(time.Hour)
	_, err = svc.Upsert(ctx, models.User{ID: 3, FirstName: "Newest"})
	require.NoError(t, err)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, int64(3), all[0].ID)
	assert.Equal(t, int64(1), all[2].ID)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, int64(3), active[0].ID)
	assert.Equal(t, int64(2), active[1].ID)

	total, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)

	recent, err := svc.CountActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, recent)
}
