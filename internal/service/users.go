package service

import (
	"context"
	"fmt"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

// ActiveWindow bounds "active" users for listings and statistics.
const ActiveWindow = 30 * 24 * time.Hour

type UpsertResult int

const (
	UpsertNew UpsertResult = iota + 1
	UpsertExisting
)

type UsersService interface {
	Upsert(ctx context.Context, user models.User) (UpsertResult, error)
	Get(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, onlyActive bool) ([]models.User, error)
	Count(ctx context.Context) (int, error)
	CountActive(ctx context.Context) (int, error)
}

type usersService struct {
	repo    repository.UsersRepository
	timeNow func() time.Time
}

func NewUsersService(repo repository.UsersRepository) UsersService {
	return &usersService{repo: repo, timeNow: time.Now}
}

func (s *usersService) Upsert(ctx context.Context, user models.User) (UpsertResult, error) {
	if user.ID == 0 {
		return 0, fmt.Errorf("id: %w", models.ErrValidation)
	}
	created, err := s.repo.Upsert(ctx, user, s.timeNow())
	if err != nil {
		return 0, fmt.Errorf("upsert user %d: %w", user.ID, err)
	}
	if created {
		return UpsertNew, nil
	}
	return UpsertExisting, nil
}

func (s *usersService) Get(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.Get(ctx, id)
}

func (s *usersService) List(ctx context.Context, onlyActive bool) ([]models.User, error) {
	if !onlyActive {
		return s.repo.List(ctx, nil)
	}
	since := s.timeNow().Add(-ActiveWindow)
	return s.repo.List(ctx, &since)
}

func (s *usersService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, nil)
}

func (s *usersService) CountActive(ctx context.Context) (int, error) {
	since := s.timeNow().Add(-ActiveWindow)
	return s.repo.Count(ctx, &since)
}
