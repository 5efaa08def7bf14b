package repository

import (
	"context"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
)

type UsersRepository interface {
	// Upsert inserts the user or refreshes name fields and last_active. created reports an insert.
	Upsert(ctx context.Context, user models.User, now time.Time) (created bool, err error)
	Get(ctx context.Context, id int64) (*models.User, error)
	// List returns users active after activeSince ordered by last_active desc, or all users ordered by
	// created_at desc when activeSince is nil.
	List(ctx context.Context, activeSince *time.Time) ([]models.User, error)
	Count(ctx context.Context, activeSince *time.Time) (int, error)
}

type TournamentsRepository interface {
	// Save overwrites the row keyed by tournament id. Saving an active tournament cancels every other
	// active row in the same transaction.
	Save(ctx context.Context, tournament models.Tournament) error
	GetActive(ctx context.Context) (*models.Tournament, error)
	Get(ctx context.Context, id string) (*models.Tournament, error)
	List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error)
	Delete(ctx context.Context, id string) error
}

type SessionsRepository interface {
	Get(ctx context.Context, adminID int64) (*models.AdminSession, error)
	Upsert(ctx context.Context, session models.AdminSession) error
	Delete(ctx context.Context, adminID int64) error
}

type Logger interface {
	Info(action string, entity string, entityID string, userID int64, status string)
	Warn(action string, entity string, entityID string, userID int64, reason string)
	Error(err error, action string, entity string, entityID string, userID int64)
}
