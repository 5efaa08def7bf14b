package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
	"github.com/octagonbets/ppv-bot/internal/snapshot"
)

// SnapshotRetention is how long a selected tournament stays current before it expires.
const SnapshotRetention = 7 * 24 * time.Hour

// TournamentsService owns Tournament, Fight and Odds writes. The relational store is the source of
// truth; the document slot mirrors the active tournament (last writer wins) and is reconciled on read.
type TournamentsService interface {
	Save(ctx context.Context, tournament models.Tournament) error
	// Current returns the active tournament or nil when there is none.
	Current(ctx context.Context) (*models.Tournament, error)
	Clear(ctx context.Context) error

	Confirm(ctx context.Context, event models.Event, fights []models.Fight) (*models.Tournament, error)
	SetOdds(ctx context.Context, text string) (*models.Tournament, error)
	SetBetsOpen(ctx context.Context, open bool) (*models.Tournament, error)
	Finish(ctx context.Context) (*models.Tournament, error)
	Cancel(ctx context.Context) (*models.Tournament, error)
	Archive(ctx context.Context) ([]models.Tournament, error)
	ExpireStale(ctx context.Context) (bool, error)
}

type tournamentsService struct {
	repo    repository.TournamentsRepository
	docs    snapshot.Store
	logger  repository.Logger
	timeNow func() time.Time
}

func NewTournamentsService(repo repository.TournamentsRepository, docs snapshot.Store, logger repository.Logger) TournamentsService {
	return &tournamentsService{
		repo:    repo,
		docs:    docs,
		logger:  logger,
		timeNow: time.Now,
	}
}

func (s *tournamentsService) Save(ctx context.Context, t models.Tournament) error {
	if t.ID == "" {
		return fmt.Errorf("id: %w", models.ErrValidation)
	}
	if !t.Status.Valid() {
		return fmt.Errorf("status %q: %w", t.Status, models.ErrValidation)
	}
	now := s.timeNow().UTC()
	if t.SelectedAt.IsZero() {
		t.SelectedAt = now
	}
	t.UpdatedAt = now

	if err := s.repo.Save(ctx, t); err != nil {
		return fmt.Errorf("save tournament %s: %w", t.ID, err)
	}

	// Mirror failures are only logged; Current never prefers the document over a relational row.
	var err error
	if t.Status == models.TournamentStatusActive {
		err = s.docs.Save(ctx, snapshot.FromTournament(t))
	} else {
		err = s.docs.Delete(ctx)
	}
	if err != nil {
		s.logger.Error(err, "mirror_snapshot", "tournament", t.ID, 0)
	}
	return nil
}

func (s *tournamentsService) Current(ctx context.Context) (*models.Tournament, error) {
	t, err := s.repo.GetActive(ctx)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		return s.currentFromDocument(ctx)
	default:
		return nil, fmt.Errorf("load active tournament: %w", err)
	}

	if s.expired(t) {
		if err := s.clear(ctx, t.ID); err != nil {
			return nil, err
		}
		s.logger.Info("expire_snapshot", "tournament", t.ID, 0, "expired")
		return nil, nil
	}
	return t, nil
}

// currentFromDocument is the fallback when the relational store has no active row. A fresh active
// document is written back so both paths agree again.
func (s *tournamentsService) currentFromDocument(ctx context.Context) (*models.Tournament, error) {
	doc, err := s.docs.Load(ctx)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error(err, "load_snapshot", "tournament", "", 0)
		}
		return nil, nil
	}
	if !doc.Meta.Active || doc.Status != models.TournamentStatusActive {
		return nil, nil
	}

	t := doc.Tournament()
	if s.expired(&t) {
		if err := s.docs.Delete(ctx); err != nil {
			return nil, fmt.Errorf("delete expired snapshot: %w", err)
		}
		s.logger.Info("expire_snapshot", "tournament", t.ID, 0, "expired")
		return nil, nil
	}

	// A relational row for the same id that is closed or newer wins over the document.
	stored, err := s.repo.Get(ctx, t.ID)
	switch {
	case err == nil:
		if stored.Status != models.TournamentStatusActive || !stored.UpdatedAt.Before(t.UpdatedAt) {
			if err := s.docs.Delete(ctx); err != nil {
				s.logger.Error(err, "drop_stale_snapshot", "tournament", t.ID, 0)
			} else {
				s.logger.Info("drop_stale_snapshot", "tournament", t.ID, 0, string(stored.Status))
			}
			return nil, nil
		}
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("load tournament %s: %w", t.ID, err)
	}

	if err := s.repo.Save(ctx, t); err != nil {
		s.logger.Error(err, "reconcile_snapshot", "tournament", t.ID, 0)
	} else {
		s.logger.Info("reconcile_snapshot", "tournament", t.ID, 0, "restored")
	}
	return &t, nil
}

func (s *tournamentsService) Clear(ctx context.Context) error {
	t, err := s.repo.GetActive(ctx)
	switch {
	case err == nil:
		return s.clear(ctx, t.ID)
	case errors.Is(err, models.ErrNotFound):
		return s.clear(ctx, "")
	default:
		return fmt.Errorf("load active tournament: %w", err)
	}
}

func (s *tournamentsService) clear(ctx context.Context, id string) error {
	var errs []error
	if id != "" {
		if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, models.ErrNotFound) {
			errs = append(errs, fmt.Errorf("delete tournament %s: %w", id, err))
		}
	}
	if err := s.docs.Delete(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// expired measures age from SelectedAt, then UpdatedAt. A snapshot with neither timestamp has no age
// and counts as expired.
func (s *tournamentsService) expired(t *models.Tournament) bool {
	since := t.SelectedAt
	if since.IsZero() {
		since = t.UpdatedAt
	}
	if since.IsZero() {
		return true
	}
	return s.timeNow().Sub(since) > SnapshotRetention
}

func (s *tournamentsService) Confirm(ctx context.Context, event models.Event, fights []models.Fight) (*models.Tournament, error) {
	if event.ID == "" {
		return nil, fmt.Errorf("event id: %w", models.ErrValidation)
	}
	card := make([]models.Fight, len(fights))
	for i, f := range fights {
		f.Position = i
		f.Odds = nil
		card[i] = f
	}
	t := models.Tournament{
		ID:         event.ID,
		Name:       event.Name,
		Date:       event.Date,
		Location:   event.Location,
		Fights:     card,
		Status:     models.TournamentStatusActive,
		BetsOpen:   true,
		SelectedAt: s.timeNow().UTC(),
	}
	if err := s.Save(ctx, t); err != nil {
		return nil, err
	}
	return s.reload(ctx, t.ID)
}

func (s *tournamentsService) SetOdds(ctx context.Context, text string) (*models.Tournament, error) {
	current, err := s.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if len(current.Fights) == 0 {
		return nil, fmt.Errorf("tournament %s has no fights: %w", current.ID, models.ErrValidation)
	}
	parsed, err := ParseOdds(text, len(current.Fights))
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	for _, item := range parsed {
		odds := item.Odds
		next.Fights[item.Position].Odds = &odds
	}
	next.HasOdds = true
	if err := s.Save(ctx, *next); err != nil {
		return nil, err
	}
	return s.reload(ctx, next.ID)
}

func (s *tournamentsService) SetBetsOpen(ctx context.Context, open bool) (*models.Tournament, error) {
	current, err := s.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.BetsOpen = open
	if err := s.Save(ctx, *next); err != nil {
		return nil, err
	}
	return s.reload(ctx, next.ID)
}

func (s *tournamentsService) Finish(ctx context.Context) (*models.Tournament, error) {
	return s.close(ctx, models.TournamentStatusFinished)
}

func (s *tournamentsService) Cancel(ctx context.Context) (*models.Tournament, error) {
	return s.close(ctx, models.TournamentStatusCancelled)
}

func (s *tournamentsService) close(ctx context.Context, status models.TournamentStatus) (*models.Tournament, error) {
	current, err := s.requireCurrent(ctx)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.Status = status
	next.BetsOpen = false
	if err := s.Save(ctx, *next); err != nil {
		return nil, err
	}
	return s.reload(ctx, next.ID)
}

func (s *tournamentsService) Archive(ctx context.Context) ([]models.Tournament, error) {
	status := models.TournamentStatusFinished
	return s.repo.List(ctx, &status)
}

func (s *tournamentsService) ExpireStale(ctx context.Context) (bool, error) {
	before, err := s.repo.GetActive(ctx)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return false, fmt.Errorf("load active tournament: %w", err)
	}
	current, err := s.Current(ctx)
	if err != nil {
		return false, err
	}
	return before != nil && current == nil, nil
}

func (s *tournamentsService) requireCurrent(ctx context.Context) (*models.Tournament, error) {
	current, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, fmt.Errorf("active tournament: %w", models.ErrNotFound)
	}
	return current, nil
}

func (s *tournamentsService) reload(ctx context.Context, id string) (*models.Tournament, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reload tournament %s: %w", id, err)
	}
	return t, nil
}
