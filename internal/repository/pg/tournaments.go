package pg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
)

const tournamentColumns = `id, name, date, location, fights, status, bets_open, has_odds, selected_at, updated_at`

type TournamentsRepo struct {
	pool *pgxpool.Pool
}

func NewTournamentsRepo(pool *pgxpool.Pool) repository.TournamentsRepository {
	return &TournamentsRepo{pool: pool}
}

func (r *TournamentsRepo) Save(ctx context.Context, t models.Tournament) error {
	fights := t.Fights
	if fights == nil {
		fights = []models.Fight{}
	}
	payload, err := json.Marshal(fights)
	if err != nil {
		return fmt.Errorf("encode fights: %w", err)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if t.Status == models.TournamentStatusActive {
			if _, err := tx.Exec(ctx, `
				UPDATE tournaments
				SET status = $1, bets_open = FALSE, updated_at = $2
				WHERE status = $3 AND id <> $4`,
				string(models.TournamentStatusCancelled), t.UpdatedAt.UTC(), string(models.TournamentStatusActive), t.ID,
			); err != nil {
				return fmt.Errorf("supersede active: %w", err)
			}
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO tournaments (`+tournamentColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id)
			DO UPDATE SET name = EXCLUDED.name,
			              date = EXCLUDED.date,
			              location = EXCLUDED.location,
			              fights = EXCLUDED.fights,
			              status = EXCLUDED.status,
			              bets_open = EXCLUDED.bets_open,
			              has_odds = EXCLUDED.has_odds,
			              selected_at = EXCLUDED.selected_at,
			              updated_at = EXCLUDED.updated_at`,
			t.ID, t.Name, t.Date, t.Location, payload, string(t.Status),
			t.BetsOpen, t.HasOdds, t.SelectedAt.UTC(), t.UpdatedAt.UTC(),
		)
		return err
	})
}

func (r *TournamentsRepo) GetActive(ctx context.Context) (*models.Tournament, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments
		WHERE status = $1
		ORDER BY selected_at DESC
		LIMIT 1`, string(models.TournamentStatusActive))
	return oneTournament(row)
}

func (r *TournamentsRepo) Get(ctx context.Context, id string) (*models.Tournament, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+tournamentColumns+`
		FROM tournaments WHERE id = $1`, id)
	return oneTournament(row)
}

func (r *TournamentsRepo) List(ctx context.Context, status *models.TournamentStatus) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments`
	var args []any
	if status != nil {
		query += ` WHERE status = $1`
		args = append(args, string(*status))
	}
	query += ` ORDER BY selected_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Tournament
	for rows.Next() {
		t, err := scanTournament(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *t)
	}
	return items, rows.Err()
}

func (r *TournamentsRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

func oneTournament(row pgx.Row) (*models.Tournament, error) {
	t, err := scanTournament(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTournament(row pgx.Row) (*models.Tournament, error) {
	var (
		t      models.Tournament
		status string
		fights []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Date,
		&t.Location,
		&fights,
		&status,
		&t.BetsOpen,
		&t.HasOdds,
		&t.SelectedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = models.TournamentStatus(status)
	if len(fights) > 0 {
		if err := json.Unmarshal(fights, &t.Fights); err != nil {
			return nil, fmt.Errorf("decode fights of %s: %w", t.ID, err)
		}
	}
	return &t, nil
}
