package service

import (
	"context"
	"errors"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

type SessionService interface {
	Get(ctx context.Context, adminID int64) (*models.AdminSession, error)
	Save(ctx context.Context, session models.AdminSession) error
	Delete(ctx context.Context, adminID int64) error
}

type sessionService struct {
	repo repository.SessionsRepository
}

func NewSessionService(repo repository.SessionsRepository) SessionService {
	return &sessionService{repo: repo}
}

func (s *sessionService) Get(ctx context.Context, adminID int64) (*models.AdminSession, error) {
	session, err := s.repo.Get(ctx, adminID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return session, nil
}

func (s *sessionService) Save(ctx context.Context, session models.AdminSession) error {
	return s.repo.Upsert(ctx, session)
}

func (s *sessionService) Delete(ctx context.Context, adminID int64) error {
	return s.repo.Delete(ctx, adminID)
}
